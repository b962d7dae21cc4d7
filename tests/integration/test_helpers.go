//go:build integration
// +build integration

package integration

import (
	"strings"
	"testing"

	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/formatter"
	"github.com/tordrt/erdcanvas/internal/schema"
)

// fixtureTables are the tables every fixture database defines
var fixtureTables = []string{"order_items", "orders", "products", "users"}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	for _, tableName := range expectedTables {
		if s.Table(tableName) == nil {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	for _, colName := range expectedColumns {
		if table.Column(colName) == nil {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key and that
// no column carries the tag itself
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if strings.Join(table.PrimaryKey, ",") != strings.Join(expectedPK, ",") {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
	}
	for _, col := range table.Columns {
		if col.HasConstraint(schema.PrimaryKey) {
			t.Errorf("Column %s.%s carries a PRIMARY KEY tag", table.Name, col.Name)
		}
	}
}

// verifyConstraint checks that a column carries a constraint tag
func verifyConstraint(t *testing.T, s *schema.Schema, tableName, columnName string, tag schema.Constraint) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}
	col := table.Column(columnName)
	if col == nil {
		t.Fatalf("Column %s not found in table %s", columnName, tableName)
	}
	if !col.HasConstraint(tag) {
		t.Errorf("Expected %s.%s to have %s, got %v", tableName, columnName, tag, col.Constraints)
	}
}

// verifyForeignKey checks that a relationship exists
func verifyForeignKey(t *testing.T, s *schema.Schema, tableName, foreignKey, targetTable string, onDelete schema.ReferentialAction) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}

	for _, rel := range table.Relationships {
		if rel.ReferencesTable == targetTable && rel.ForeignKey == foreignKey {
			if rel.OnDelete != onDelete {
				t.Errorf("Expected %s.%s ON DELETE %s, got %s", tableName, foreignKey, onDelete, rel.OnDelete)
			}
			if rel.Type != schema.ManyToOne {
				t.Errorf("Expected %s.%s to be %s, got %s", tableName, foreignKey, schema.ManyToOne, rel.Type)
			}
			return
		}
	}

	t.Errorf("Expected relationship from %s.%s to %s not found", tableName, foreignKey, targetTable)
}

// verifyIndex checks that a named index is listed on the table
func verifyIndex(t *testing.T, s *schema.Schema, tableName, indexName string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}
	for _, idx := range table.Indexes {
		if idx == indexName {
			return
		}
	}
	t.Errorf("Expected index %s on %s table not found (have %v)", indexName, tableName, table.Indexes)
}

// verifyEditable opens the imported schema in an editor, makes an undoable
// edit and checks the SQL export covers every table
func verifyEditable(t *testing.T, s *schema.Schema) {
	t.Helper()

	ed := editor.New(s, editor.Options{Logger: editor.Discard})
	if ed.Layout().Len() != len(s.Tables) {
		t.Errorf("Expected a position for each of %d tables, got %d", len(s.Tables), ed.Layout().Len())
	}
	if issues := ed.Schema().Validate(); len(issues) > 0 {
		t.Errorf("Imported schema has dangling references: %v", issues)
	}

	before := ed.Schema().Clone()
	if _, err := ed.AddColumn("users"); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}
	if !ed.Undo() || len(ed.Schema().Table("users").Columns) != len(before.Table("users").Columns) {
		t.Error("Expected undo to restore the imported users table")
	}

	var buf strings.Builder
	if err := formatter.NewSQLFormatter(&buf).Format(ed.Schema()); err != nil {
		t.Fatalf("SQL export failed: %v", err)
	}
	for _, table := range s.Tables {
		if !strings.Contains(buf.String(), "CREATE TABLE "+table.Name+" (") {
			t.Errorf("Expected CREATE TABLE %s in export", table.Name)
		}
	}
}
