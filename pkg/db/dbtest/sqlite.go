// Package dbtest provides an in-memory sqlite database carrying the group buy
// schema for package tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Schema mirrors the postgres migrations using sqlite types. Numeric columns are
// TEXT so decimals round-trip without float conversion.
var Schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('vendor', 'supplier')),
		password_hash TEXT NOT NULL,
		phone TEXT,
		last_login_at datetime,
		created_at datetime NOT NULL,
		updated_at datetime NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_users_email ON users (lower(email))`,
	`CREATE TABLE group_orders (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		supplier_name TEXT NOT NULL,
		item TEXT NOT NULL,
		description TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		bulk_price TEXT NOT NULL CHECK (CAST(bulk_price AS REAL) > 0),
		original_price TEXT NOT NULL CHECK (CAST(original_price AS REAL) > 0),
		min_quantity INTEGER NOT NULL CHECK (min_quantity > 0),
		max_quantity INTEGER NOT NULL,
		deadline datetime NOT NULL,
		location_name TEXT NOT NULL,
		location_lat REAL NOT NULL,
		location_lng REAL NOT NULL,
		delivery_charge_per_km TEXT NOT NULL DEFAULT '0' CHECK (CAST(delivery_charge_per_km AS REAL) >= 0),
		contact_phone TEXT NOT NULL CHECK (length(contact_phone) = 10 AND contact_phone NOT GLOB '*[^0-9]*'),
		status TEXT NOT NULL DEFAULT 'open'
			CHECK (status IN ('open', 'accepted', 'completed', 'cancelled', 'expired')),
		total_quantity INTEGER NOT NULL DEFAULT 0 CHECK (total_quantity >= 0),
		version INTEGER NOT NULL DEFAULT 1,
		created_at datetime NOT NULL,
		updated_at datetime NOT NULL,
		CONSTRAINT ck_group_orders_prices CHECK (CAST(bulk_price AS REAL) < CAST(original_price AS REAL)),
		CONSTRAINT ck_group_orders_quantities CHECK (max_quantity > min_quantity),
		CONSTRAINT ck_group_orders_capacity CHECK (total_quantity <= max_quantity)
	)`,
	`CREATE TABLE participants (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES group_orders (id) ON DELETE CASCADE,
		vendor_id TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		vendor_lat REAL,
		vendor_lng REAL,
		vendor_phone TEXT CHECK (vendor_phone IS NULL OR (length(vendor_phone) = 10 AND vendor_phone NOT GLOB '*[^0-9]*')),
		delivery_charge TEXT NOT NULL DEFAULT '0',
		has_reviewed BOOLEAN NOT NULL DEFAULT false,
		joined_at datetime NOT NULL,
		updated_at datetime NOT NULL,
		CONSTRAINT ux_participants_order_vendor UNIQUE (order_id, vendor_id),
		CONSTRAINT ck_participants_location CHECK ((vendor_lat IS NULL) = (vendor_lng IS NULL))
	)`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		supplier_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at datetime NOT NULL,
		CONSTRAINT ux_reviews_order_vendor UNIQUE (order_id, vendor_id)
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at datetime NOT NULL,
		published_at datetime,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// NewSQLite opens a private in-memory database with the schema applied. The pool
// is limited to one connection so transactions from concurrent goroutines queue
// behind each other the way row locks serialise them on postgres.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range Schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}
