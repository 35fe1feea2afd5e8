package postgres

import (
	"database/sql"
	"fmt"
	"log"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		price           NUMERIC(12,2) NOT NULL,
		stock_available INTEGER NOT NULL DEFAULT 0 CHECK (stock_available >= 0),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL UNIQUE,
		company_name TEXT NOT NULL,
		email        TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		customer_id TEXT NOT NULL,
		product_id  TEXT NOT NULL REFERENCES products(id),
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		unit_price  NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (customer_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS asks (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		min_price  NUMERIC(12,2),
		expires_at TIMESTAMPTZ,
		note       TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'open',
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bids (
		id          TEXT PRIMARY KEY,
		ask_id      TEXT NOT NULL REFERENCES asks(id),
		supplier_id TEXT NOT NULL,
		price       NUMERIC(12,2) NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		message     TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS supply_orders (
		id            TEXT PRIMARY KEY,
		order_no      TEXT NOT NULL UNIQUE,
		supplier_id   TEXT NOT NULL,
		store_id      TEXT NOT NULL REFERENCES stores(id),
		status        TEXT NOT NULL DEFAULT 'pending',
		total_amount  NUMERIC(12,2) NOT NULL,
		delivery_date TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS supply_order_items (
		id              TEXT PRIMARY KEY,
		supply_order_id TEXT NOT NULL REFERENCES supply_orders(id),
		product_id      TEXT NOT NULL,
		quantity        INTEGER NOT NULL,
		unit_cost       NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		order_no         TEXT NOT NULL UNIQUE,
		customer_id      TEXT NOT NULL,
		store_id         TEXT NOT NULL REFERENCES stores(id),
		status           TEXT NOT NULL DEFAULT 'pending',
		payment_status   TEXT NOT NULL DEFAULT 'pending',
		refund_status    TEXT NOT NULL DEFAULT '',
		total_amount     NUMERIC(12,2) NOT NULL,
		tax_amount       NUMERIC(12,2) NOT NULL DEFAULT 0,
		shipping_amount  NUMERIC(12,2) NOT NULL DEFAULT 0,
		gateway_order_id TEXT NOT NULL DEFAULT '',
		cancel_reason    TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		cancelled_at     TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id           TEXT PRIMARY KEY,
		order_id     TEXT NOT NULL REFERENCES orders(id),
		product_id   TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL CHECK (quantity > 0),
		unit_price   NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id),
		amount     NUMERIC(12,2) NOT NULL,
		method     TEXT NOT NULL,
		reference  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id         TEXT PRIMARY KEY,
		invoice_no TEXT NOT NULL UNIQUE,
		order_id   TEXT NOT NULL REFERENCES orders(id),
		amount     NUMERIC(12,2) NOT NULL,
		issued_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_ask_id ON bids(ask_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order ON payments(order_id)`,
}

// Migrate applies the schema. Statements are idempotent so this is safe to
// run at every boot.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Printf("[DB] Schema up to date (%d statements)", len(migrations))
	return nil
}
