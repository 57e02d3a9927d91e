package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"utok/internal/config"
	applog "utok/internal/log"
)

//go:embed views/*.html
var views embed.FS

func viewEngine(cfg config.Config) (*html.Engine, error) {
	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(views, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("money", Money(unit))
	return engine, nil
}

func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	applog.Info(c, "http.access", map[string]any{"latency_ms": time.Since(start).Milliseconds()})
	return err
}

func rateLimited(action string) func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return problem(c, fiber.StatusTooManyRequests, "rate_limited", "Too many attempts. Please try again later.", nil)
	}
}

// NewApp builds the HTTP surface: middleware first, then the public and
// signed-in routes.
func NewApp(cfg config.Config, d *Deps, m *Metrics) (*fiber.App, error) {
	engine, err := viewEngine(cfg)
	if err != nil {
		return nil, err
	}
	app := fiber.New(fiber.Config{
		AppName:      "utok",
		Views:        engine,
		BodyLimit:    cfg.HTTP.BodyLimit,
		UnescapePath: true,
		ErrorHandler: ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(accessLog)
	app.Use(helmet.New())
	app.Use(m.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.HTTP.RateMax,
		Expiration: cfg.HTTP.RateWindow,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: rateLimited("rate.hit"),
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", m.Handler())

	api := app.Group("/api/v1")

	authLimiter := limiter.New(limiter.Config{
		Max:          5,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|auth" },
		LimitReached: rateLimited("rate.login.hit"),
	})
	api.Post("/auth/signup", authLimiter, d.AuthHandler.SignUp)
	api.Post("/auth/signin", authLimiter, d.AuthHandler.SignIn)

	api.Get("/services", d.CatalogHandler.Services)
	api.Post("/services/:name/select", d.CatalogHandler.Select)
	api.Get("/items", d.CatalogHandler.Items)
	api.Get("/items/:id", d.CatalogHandler.Item)

	me := api.Group("", RequireUser(d.Auth))
	me.Post("/auth/signout", d.AuthHandler.SignOut)
	me.Get("/me", d.AuthHandler.Me)
	me.Put("/me/password", d.AuthHandler.UpdatePassword)
	me.Delete("/me", d.AuthHandler.DeleteAccount)

	me.Get("/cart", d.CartHandler.View)
	me.Post("/cart/items/:id", d.CartHandler.Add)
	me.Put("/cart/items/:id", d.CartHandler.SetQuantity)
	me.Post("/cart/items/:id/increment", d.CartHandler.Increment)
	me.Post("/cart/items/:id/decrement", d.CartHandler.Decrement)
	me.Delete("/cart/items/:id", d.CartHandler.Remove)
	me.Post("/cart/checkout", countOn(m.Checkouts, d.CartHandler.Checkout))

	me.Post("/location", d.LocationHandler.Resolve)

	me.Get("/checkout", d.OrderHandler.Pending)
	me.Post("/orders", countOn(m.Orders, d.OrderHandler.Place))
	me.Get("/orders", d.OrderHandler.List)
	me.Get("/orders/:id", d.OrderHandler.Detail)
	me.Get("/orders/:id/receipt", d.OrderHandler.Receipt)
	me.Delete("/orders/:id", d.OrderHandler.Delete)

	me.Post("/orders/:id/draft", d.OrderHandler.OpenDraft)
	me.Get("/orders/:id/draft", d.OrderHandler.Draft)
	me.Patch("/orders/:id/draft", d.OrderHandler.PatchDraft)
	me.Put("/orders/:id/draft/items/:name", d.OrderHandler.SetDraftQuantity)
	me.Delete("/orders/:id/draft/items/:name", d.OrderHandler.RemoveDraftItem)
	me.Post("/orders/:id/draft/save", d.OrderHandler.SaveDraft)
	me.Delete("/orders/:id/draft", d.OrderHandler.DiscardDraft)

	app.Use(func(c *fiber.Ctx) error {
		return problem(c, fiber.StatusNotFound, "not_found", "Page not found", nil)
	})
	return app, nil
}
