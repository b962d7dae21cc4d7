package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	title := s.Name
	if title == "" {
		title = "Database Schema"
	}
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", title)
	if s.Version != "" {
		_, _ = fmt.Fprintf(f.writer, "Version %s\n\n", s.Version)
	}

	for _, table := range s.Tables {
		f.formatTable(table, s)
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table schema.Table, s *schema.Schema) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(col, table.PrimaryKey)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.Type, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.Type)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.Relationships) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range table.Relationships {
			note := ""
			if s.Table(rel.ReferencesTable) == nil {
				note = " _(missing table)_"
			}
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s, on delete %s, on update %s)%s\n",
				rel.ForeignKey,
				rel.ReferencesTable,
				rel.ReferencesColumn,
				rel.Type.Symbol(),
				strings.ToLower(string(rel.OnDelete)),
				strings.ToLower(string(rel.OnUpdate)),
				note)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	incoming := findIncoming(table.Name, s)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, in := range incoming {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s (%s)\n", in.table, in.rel.ForeignKey, in.rel.ReferencesColumn, in.rel.Type.Symbol())
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Idx")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", idx)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatConstraints(col schema.Column, primaryKey []string) string {
	var constraints []string

	for _, pk := range primaryKey {
		if pk == col.Name {
			constraints = append(constraints, "PK")
			break
		}
	}
	constraints = append(constraints, constraintList(col)...)

	return strings.Join(constraints, ", ")
}

type incomingRelationship struct {
	table string
	rel   schema.Relationship
}

// findIncoming finds all relationships in other tables pointing at tableName
func findIncoming(tableName string, s *schema.Schema) []incomingRelationship {
	var incoming []incomingRelationship
	for _, table := range s.Tables {
		for _, rel := range table.Relationships {
			if rel.ReferencesTable == tableName {
				incoming = append(incoming, incomingRelationship{table: table.Name, rel: rel})
			}
		}
	}
	return incoming
}
