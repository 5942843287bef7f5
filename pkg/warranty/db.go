package warranty

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens the warranty SQLite database at the given path.
// If path is ":memory:", an in-memory database is used.
// Sets WAL mode, enables foreign keys, and runs migrations plus the
// demo product seed automatically.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := Seed(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding products: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id    TEXT PRIMARY KEY,
		product_type  TEXT NOT NULL CHECK(product_type IN ('SALT', 'HEAT')),
		product_name  TEXT NOT NULL,
		serial_number TEXT NOT NULL UNIQUE,
		purchase_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_coverage (
		product_id      TEXT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
		coverage_type   TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		PRIMARY KEY (product_id, coverage_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_serial ON products(serial_number)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

type seedProduct struct {
	id       string
	typ      string
	name     string
	serial   string
	purchase string
	coverage map[string]int
}

// Demo catalog. IDs, serials, and coverage windows are fixed so the
// scripted scenarios resolve the same records every run.
var seedProducts = []seedProduct{
	{
		id: "SALT-001", typ: "SALT", name: "Salt Water Softener Pro",
		serial: "SN-SALT-2024-001234", purchase: "2024-06-15",
		coverage: map[string]int{"parts": 24, "labor": 12, "controller": 60},
	},
	{
		id: "SALT-002", typ: "SALT", name: "Salt Water Softener Basic",
		serial: "SN-SALT-2022-005678", purchase: "2022-01-10",
		coverage: map[string]int{"parts": 24, "labor": 12, "controller": 60},
	},
	{
		id: "HEAT-001", typ: "HEAT", name: "Heat Pump Water Heater Elite",
		serial: "SN-HEAT-2025-001111", purchase: "2025-01-01",
		coverage: map[string]int{"parts": 36, "labor": 12, "tank": 120},
	},
	{
		id: "HEAT-002", typ: "HEAT", name: "Heat Pump Water Heater Standard",
		serial: "SN-HEAT-2020-002222", purchase: "2020-06-01",
		coverage: map[string]int{"parts": 36, "labor": 12, "tank": 120},
	},
	{
		id: "HEAT-003", typ: "HEAT", name: "Heat Pump Water Heater Pro",
		serial: "SN-HEAT-2024-003333", purchase: "2024-03-15",
		coverage: map[string]int{"parts": 36, "labor": 12, "tank": 120},
	},
}

// Seed inserts the demo product catalog. Idempotent.
func Seed(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range seedProducts {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO products (product_id, product_type, product_name, serial_number, purchase_date)
			 VALUES (?, ?, ?, ?, ?)`,
			p.id, p.typ, p.name, p.serial, p.purchase,
		); err != nil {
			return fmt.Errorf("inserting product %s: %w", p.id, err)
		}
		for covType, months := range p.coverage {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO product_coverage (product_id, coverage_type, duration_months)
				 VALUES (?, ?, ?)`,
				p.id, covType, months,
			); err != nil {
				return fmt.Errorf("inserting coverage %s/%s: %w", p.id, covType, err)
			}
		}
	}

	return tx.Commit()
}
