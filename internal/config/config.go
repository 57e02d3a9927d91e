package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/currency"
)

type Config struct {
	App struct {
		Addr     string `koanf:"addr"`
		Currency string `koanf:"currency"`
	} `koanf:"app"`

	DB struct {
		Driver string `koanf:"driver"` // sqlite | pgx
		DSN    string `koanf:"dsn"`
	} `koanf:"db"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Auth struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"auth"`

	Session struct {
		Capacity int `koanf:"capacity"`
	} `koanf:"session"`

	Geo struct {
		BaseURL   string        `koanf:"base_url"`
		UserAgent string        `koanf:"user_agent"`
		Timeout   time.Duration `koanf:"timeout"`
	} `koanf:"geo"`

	HTTP struct {
		BodyLimit  int           `koanf:"body_limit"`
		RateMax    int           `koanf:"rate_max"`
		RateWindow time.Duration `koanf:"rate_window"`
	} `koanf:"http"`
}

var defaults = map[string]any{
	"app.addr":         ":8081",
	"app.currency":     "XAF",
	"db.driver":        "sqlite",
	"db.dsn":           "utok.db",
	"log.level":        "info",
	"log.file":         "",
	"auth.jwt_secret":  "",
	"auth.issuer":      "utok",
	"auth.ttl":         "72h",
	"session.capacity": 4096,
	"geo.base_url":     "https://nominatim.openstreetmap.org",
	"geo.user_agent":   "utok-backend/1.0",
	"geo.timeout":      "5s",
	"http.body_limit":  1 << 20,
	"http.rate_max":    60,
	"http.rate_window": "1m",
}

// Default returns the built-in configuration with a throwaway signing secret.
// Tests and local tooling use it; Load is the production path.
func Default() Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults, "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	cfg.Auth.JWTSecret = "dev-secret"
	return cfg
}

// Load layers defaults, an optional YAML file and UTOK_* environment variables
// (nested keys use "__", e.g. UTOK_DB__DSN).
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("UTOK_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "UTOK_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.Addr == "" {
		return fmt.Errorf("app.addr required")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn required")
	}
	switch c.DB.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("db.driver %q: want sqlite or pgx", c.DB.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret required")
	}
	if _, err := c.CurrencyUnit(); err != nil {
		return err
	}
	return nil
}

// CurrencyUnit parses app.currency as an ISO 4217 code.
func (c Config) CurrencyUnit() (currency.Unit, error) {
	u, err := currency.ParseISO(c.App.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("app.currency[%s] is not valid: %w", c.App.Currency, err)
	}
	return u, nil
}
