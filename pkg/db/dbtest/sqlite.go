// Package dbtest opens throwaway sqlite databases carrying the application
// schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/gasdrop-backend/pkg/db"
)

// Postgres-only column types (uuid, numeric, composite, text[]) are plain
// TEXT here; the model Value/Scan methods round-trip through strings.
var schema = []string{
	`CREATE TABLE users (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'customer',
		permissions TEXT NOT NULL DEFAULT '{}',
		phone_number TEXT,
		password_hash TEXT,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		weight TEXT,
		price TEXT NOT NULL,
		original_price TEXT,
		delivery_charge TEXT,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		in_stock BOOLEAN NOT NULL DEFAULT 1,
		quantity INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_lines (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		price TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT cart_lines_user_product_key UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		subtotal TEXT NOT NULL,
		delivery_charge TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		discount TEXT NOT NULL,
		total TEXT NOT NULL,
		promo_code TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		assigned_agent_id TEXT,
		address TEXT NOT NULL,
		payment_mode TEXT NOT NULL,
		delivery_slot TEXT,
		delivered_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity INTEGER NOT NULL
	)`,
	`CREATE TABLE delivery_agents (
		uid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		deliveries_this_week INTEGER NOT NULL DEFAULT 0,
		remaining_today INTEGER NOT NULL DEFAULT 0,
		total_allotted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Tables lists every table created by NewSQLite.
func Tables() []string {
	return []string{"users", "products", "cart_lines", "orders", "order_items", "delivery_agents", "outbox_events"}
}

// NewSQLite returns a private in-memory database with the full schema. The
// connection is closed when the test ends.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// NewClient wraps NewSQLite in a db.Client so services get a real WithTx.
func NewClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := NewSQLite(t)
	return db.NewFromConn(conn), conn
}
