package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"utok/internal/config"
	"utok/internal/geo"
	"utok/internal/http/handlers"
	applog "utok/internal/log"
	"utok/internal/repos"
	"utok/internal/session"
)

type stubGeo struct {
	addr geo.Address
	err  error
}

func (s stubGeo) Reverse(float64, float64) (geo.Address, error) { return s.addr, s.err }

type testApp struct {
	app     *fiber.App
	metrics *handlers.Metrics
	orders  *repos.OrderRepo
	db      *sqlx.DB
	logs    *observer.ObservedLogs
}

func newTestApp(t *testing.T, tweak ...func(*config.Config)) testApp {
	t.Helper()
	cfg := config.Default()
	cfg.DB.DSN = ":memory:"
	cfg.HTTP.RateMax = 1000
	cfg.HTTP.RateWindow = time.Minute
	for _, f := range tweak {
		f(&cfg)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	applog.Set(zap.New(core))
	t.Cleanup(func() { applog.Set(nil) })

	db, err := repos.OpenDB(cfg.DB.Driver, cfg.DB.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := session.NewStore(cfg.Session.Capacity)
	require.NoError(t, err)

	g := stubGeo{addr: geo.Address{Name: "Marché Central", City: "Douala", Country: "Cameroon"}}
	deps, err := handlers.NewDeps(db, cfg, store, g)
	require.NoError(t, err)
	m := handlers.NewMetrics()
	app, err := handlers.NewApp(cfg, deps, m)
	require.NoError(t, err)

	return testApp{app: app, metrics: m, orders: repos.NewOrderRepo(db), db: db, logs: logs}
}

// call sends a JSON request and decodes a JSON reply.
func (ta testApp) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

// signIn registers a fresh customer and returns a bearer token.
func (ta testApp) signIn(t *testing.T) (token, email string) {
	t.Helper()
	email = gofakeit.Email()
	pw := gofakeit.Password(true, true, true, false, false, 12)
	status, _ := ta.call(t, "POST", "/api/v1/auth/signup", "", map[string]string{
		"name": gofakeit.FirstName(), "email": email, "password": pw, "confirmPassword": pw,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := ta.call(t, "POST", "/api/v1/auth/signin", "", map[string]string{"email": email, "password": pw})
	require.Equal(t, fiber.StatusOK, status)
	token, _ = body["token"].(string)
	require.NotEmpty(t, token)
	return token, email
}

func (ta testApp) actions(msg string) int {
	return ta.logs.FilterMessage(msg).Len()
}

var placement = map[string]string{
	"area":          "Area A",
	"location":      "Bonamoussadi, Douala",
	"paymentMethod": "OM",
	"phoneNumber":   "+237 677 00 11 22",
	"userName":      "Chantal",
}
