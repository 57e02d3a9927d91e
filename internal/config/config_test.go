package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utok/internal/config"
)

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utok.yaml")
	yaml := `
app:
  addr: ":9000"
db:
  dsn: "file.db"
auth:
  jwt_secret: "from-file"
  ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("UTOK_DB__DSN", "env.db")
	t.Setenv("UTOK_LOG__LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.App.Addr)
	assert.Equal(t, "env.db", cfg.DB.DSN)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TTL)
	assert.Equal(t, "XAF", cfg.App.Currency)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := config.Load("")
	require.EqualError(t, err, "auth.jwt_secret required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		wantError string
	}{
		{name: "defaults: ok", mutate: func(*config.Config) {}},
		{
			name:      "unknown driver: error",
			mutate:    func(c *config.Config) { c.DB.Driver = "mysql" },
			wantError: `db.driver "mysql": want sqlite or pgx`,
		},
		{
			name:      "empty dsn: error",
			mutate:    func(c *config.Config) { c.DB.DSN = "" },
			wantError: "db.dsn required",
		},
		{
			name:      "bad currency: error",
			mutate:    func(c *config.Config) { c.App.Currency = "ZZZZ" },
			wantError: "app.currency[ZZZZ] is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError != "" {
				require.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
		})
	}
}
