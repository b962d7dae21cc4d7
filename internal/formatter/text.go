package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	if s.Name != "" {
		_, _ = fmt.Fprintf(f.writer, "SCHEMA %s\n\n", s.Name)
	}
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(table schema.Table) error {
	// Table header with primary key
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.Relationships) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range table.Relationships {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s, ON DELETE %s, ON UPDATE %s)\n",
				rel.ForeignKey, rel.ReferencesTable, rel.ReferencesColumn,
				rel.Type.Symbol(), rel.OnDelete, rel.OnUpdate)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintf(f.writer, "  INDEXES: %s\n", strings.Join(table.Indexes, ", "))
	}

	return nil
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", col.Type}
	parts = append(parts, constraintList(col)...)
	return strings.Join(parts, " ")
}
