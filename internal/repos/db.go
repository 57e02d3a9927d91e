package repos

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	applog "utok/internal/log"
)

// OpenDB connects with driver "sqlite" or "pgx", creates the schema and seeds
// the reference tables.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: :memory: databases are per connection and sqlite
		// serialises writers anyway
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := seedReference(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}

var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TIMESTAMP
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMP,
  last_seen TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
	`CREATE TABLE IF NOT EXISTS services(
  name TEXT PRIMARY KEY,
  icon TEXT NOT NULL,
  available INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS items(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_name ON items(LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  area TEXT NOT NULL,
  location TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  phone TEXT NOT NULL,
  user_name TEXT NOT NULL,
  comments TEXT NOT NULL DEFAULT '',
  items TEXT NOT NULL,
  total_price TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(LOWER(email), created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,
	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ,
  last_seen TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
	`CREATE TABLE IF NOT EXISTS services(
  name TEXT PRIMARY KEY,
  icon TEXT NOT NULL,
  available BOOLEAN NOT NULL DEFAULT FALSE,
  position INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS items(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_name ON items(LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  area TEXT NOT NULL,
  location TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  phone TEXT NOT NULL,
  user_name TEXT NOT NULL,
  comments TEXT NOT NULL DEFAULT '',
  items TEXT NOT NULL,
  total_price TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(LOWER(email), created_at)`,
}

func ensureSchema(db *sqlx.DB) error {
	stmts := sqliteSchema
	if db.DriverName() == "pgx" {
		stmts = postgresSchema
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

type seedService struct {
	name, icon string
	available  bool
}

type seedItem struct {
	id, name, image, price string
}

var (
	defaultServices = []seedService{
		{"Laundry", "local-laundry-service", true},
		{"Drying", "dry-cleaning", false},
		{"Ironing", "whatshot", false},
		{"Folding", "layers", false},
	}
	defaultItems = []seedItem{
		{"shirt", "Shirt", "items/shirt.png", "500"},
		{"trousers", "Trousers", "items/trousers.png", "700"},
		{"dress", "Dress", "items/dress.png", "1000"},
		{"bedsheet", "Bedsheet", "items/bedsheet.png", "1500"},
		{"towel", "Towel", "items/towel.png", "400"},
		{"jacket", "Jacket", "items/jacket.png", "2000"},
		{"blanket", "Blanket", "items/blanket.png", "3000"},
	}
)

// seedReference inserts the home services and the laundry price list.
// Safe to run on every startup (idempotent).
func seedReference(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	svc := tx.Rebind(`INSERT INTO services(name,icon,available,position) VALUES(?,?,?,?) ON CONFLICT(name) DO NOTHING`)
	for i, s := range defaultServices {
		if _, err := tx.Exec(svc, s.name, s.icon, s.available, i); err != nil {
			return err
		}
	}

	var n int
	if err := tx.Get(&n, `SELECT COUNT(*) FROM items`); err != nil {
		return err
	}
	if n == 0 {
		applog.L().Info("seed.items", zap.Int("count", len(defaultItems)))
		item := tx.Rebind(`INSERT INTO items(id,name,image,price) VALUES(?,?,?,?)`)
		for _, it := range defaultItems {
			if _, err := tx.Exec(item, it.id, it.name, it.image, decimal.RequireFromString(it.price)); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
