package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"utok/internal/config"
	"utok/internal/geo"
	"utok/internal/http/handlers"
	applog "utok/internal/log"
	"utok/internal/repos"
	"utok/internal/session"
)

func main() {
	// stdout logger until the configured one replaces it
	applog.Init("info", "")
	if err := run(); err != nil {
		report(err)
		os.Exit(1)
	}
}

func report(err error) {
	l := applog.L()
	l.Error("startup", zap.Error(err))
	_ = l.Sync()
}

func run() error {
	cfg, err := config.Load(os.Getenv("UTOK_CONFIG"))
	if err != nil {
		return err
	}
	logger := applog.Init(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()

	db, err := repos.OpenDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := session.NewStore(cfg.Session.Capacity)
	if err != nil {
		return err
	}
	geocoder := geo.NewClient(cfg.Geo.BaseURL, cfg.Geo.UserAgent, cfg.Geo.Timeout)

	deps, err := handlers.NewDeps(db, cfg, store, geocoder)
	if err != nil {
		return err
	}
	app, err := handlers.NewApp(cfg, deps, handlers.NewMetrics())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listen", zap.String("addr", cfg.App.Addr), zap.String("db", cfg.DB.Driver))
		return app.Listen(cfg.App.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutdown")
		return app.ShutdownWithContext(sctx)
	})
	return g.Wait()
}
