package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// SQLFormatter writes the schema as CREATE TABLE / ALTER TABLE DDL
type SQLFormatter struct {
	writer io.Writer
	// Now stamps the header; tests replace it for stable output.
	Now func() time.Time
}

// NewSQLFormatter creates a new SQL formatter
func NewSQLFormatter(w io.Writer) *SQLFormatter {
	return &SQLFormatter{writer: w, Now: time.Now}
}

// Format writes one CREATE TABLE per table in schema order, then one
// foreign key statement per relationship in schema/table order.
// Relationships to a missing table or column are skipped.
func (f *SQLFormatter) Format(s *schema.Schema) error {
	var b strings.Builder

	fmt.Fprintf(&b, "-- Database Schema: %s\n", s.Name)
	fmt.Fprintf(&b, "-- Generated on: %s\n\n", f.Now().UTC().Format(time.RFC3339))

	for _, table := range s.Tables {
		f.formatTable(&b, table)
	}

	for _, table := range s.Tables {
		for _, rel := range table.Relationships {
			target := s.Table(rel.ReferencesTable)
			if target == nil || target.Column(rel.ReferencesColumn) == nil {
				continue
			}
			fmt.Fprintf(&b, "ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s;\n",
				table.Name,
				ConstraintName(table.Name, rel),
				rel.ForeignKey,
				rel.ReferencesTable,
				rel.ReferencesColumn,
				rel.OnDelete,
				rel.OnUpdate)
		}
	}

	if _, err := io.WriteString(f.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write sql: %w", err)
	}
	return nil
}

func (f *SQLFormatter) formatTable(b *strings.Builder, table schema.Table) {
	fmt.Fprintf(b, "CREATE TABLE %s (\n", table.Name)

	lines := make([]string, 0, len(table.Columns)+1)
	for _, col := range table.Columns {
		parts := append([]string{col.Name, col.Type}, constraintList(col)...)
		lines = append(lines, "  "+strings.Join(parts, " "))
	}
	if pk := primaryKey(table); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);\n\n")
}

// primaryKey returns the table's key list, or the columns tagged PRIMARY KEY
// when the list is empty
func primaryKey(table schema.Table) []string {
	if len(table.PrimaryKey) > 0 {
		return table.PrimaryKey
	}
	var pk []string
	for _, col := range table.Columns {
		if col.HasConstraint(schema.PrimaryKey) {
			pk = append(pk, col.Name)
		}
	}
	return pk
}

// ConstraintName returns the foreign key constraint name for a relationship
func ConstraintName(table string, rel schema.Relationship) string {
	return fmt.Sprintf("fk_%s_%s", table, rel.ForeignKey)
}
