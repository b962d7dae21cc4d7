//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/tordrt/erdcanvas"
	"github.com/tordrt/erdcanvas/internal/db"
	"github.com/tordrt/erdcanvas/internal/schema"
)

const sqliteFixture = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username VARCHAR(50) NOT NULL UNIQUE,
	email VARCHAR(100) NOT NULL,
	status TEXT DEFAULT 'active',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(255) NOT NULL,
	category VARCHAR(50),
	price DECIMAL(10,2) NOT NULL
);
CREATE INDEX idx_category ON products(category);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	total DECIMAL(10,2),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE order_items (
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
	quantity INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (order_id, product_id)
);
`

// sqlitePath returns SQLITE_TEST_PATH, or a fresh fixture database
func sqlitePath(t *testing.T) string {
	t.Helper()
	if path := os.Getenv("SQLITE_TEST_PATH"); path != "" {
		return path
	}

	path := filepath.Join(t.TempDir(), "test.db")
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer raw.Close()
	if _, err := raw.ExecContext(context.Background(), sqliteFixture); err != nil {
		t.Fatalf("Failed to create fixture tables: %v", err)
	}
	return path
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()

	client, err := db.NewSQLiteClient(ctx, sqlitePath(t))
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer client.Close()

	s, err := db.NewSQLiteExtractor(client).ExtractSchema(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, fixtureTables)

	table := s.Table("users")
	if table == nil {
		t.Fatal("Users table not found")
	}
	verifyPrimaryKey(t, table, []string{"id"})
	verifyColumns(t, table, []string{"id", "username", "email", "status", "created_at"})
	verifyConstraint(t, s, "users", "id", schema.AutoIncrement)
	verifyConstraint(t, s, "users", "username", schema.Unique)
	verifyConstraint(t, s, "users", "created_at", schema.DefaultCurrentTimestamp)

	verifyPrimaryKey(t, s.Table("order_items"), []string{"order_id", "product_id"})

	verifyForeignKey(t, s, "orders", "user_id", "users", schema.Cascade)
	verifyForeignKey(t, s, "order_items", "product_id", "products", schema.Restrict)

	verifyIndex(t, s, "products", "idx_category")
	verifyConstraint(t, s, "products", "category", schema.CreateIndex)

	verifyEditable(t, s)
}

func TestSQLiteSpecificTables(t *testing.T) {
	ctx := context.Background()

	s, err := erdcanvas.ImportSchema(ctx, "sqlite://"+sqlitePath(t), &erdcanvas.Options{
		Tables: []string{"users", "products"},
	})
	if err != nil {
		t.Fatalf("Failed to import schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "products"})
	if s.Table("orders") != nil || s.Table("order_items") != nil {
		t.Error("Should not include orders or order_items tables")
	}
}

func TestSQLiteExcludeTables(t *testing.T) {
	ctx := context.Background()

	s, err := erdcanvas.ImportSchema(ctx, "sqlite://"+sqlitePath(t), &erdcanvas.Options{
		ExcludeTables: []string{"order_items"},
	})
	if err != nil {
		t.Fatalf("Failed to import schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"orders", "products", "users"})
}
