// Package db reads table definitions from live PostgreSQL, MySQL and SQLite
// databases into the editor's schema model.
package db

import (
	"context"
	"regexp"
	"strings"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// Extractor reads a schema from a connected database
type Extractor interface {
	// ExtractSchema extracts the named tables, or every table when tables is
	// empty.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// columnInfo is a column as the catalog reports it, before mapping
type columnInfo struct {
	Name          string
	Type          string
	Nullable      bool
	Unique        bool
	AutoIncrement bool
	Default       *string
}

// foreignKey is one foreign key column as the catalog reports it
type foreignKey struct {
	Column           string
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         string
	OnUpdate         string
}

// indexInfo is a secondary index
type indexInfo struct {
	Name    string
	Unique  bool
	Columns []string

	// Implicit indexes back a constraint and are not listed by name.
	Implicit bool
}

var (
	varcharPattern   = regexp.MustCompile(`^(?:varchar|character varying)\((\d+)\)$`)
	currentTimestamp = regexp.MustCompile(`^(?:current_timestamp|now)(?:\(\d*\))?$`)
)

// mapType maps a catalog type onto the editor's type vocabulary. Types
// without a counterpart are kept verbatim.
func mapType(dbType string) string {
	t := strings.ToLower(strings.TrimSpace(dbType))
	if m := varcharPattern.FindStringSubmatch(t); m != nil {
		candidate := "VARCHAR(" + m[1] + ")"
		if schema.KnownType(candidate) {
			return candidate
		}
		return dbType
	}

	switch {
	case t == "tinyint(1)", t == "bool", t == "boolean":
		return "BOOLEAN"
	case t == "integer", t == "int", t == "bigint", t == "smallint", t == "serial", t == "bigserial",
		strings.HasPrefix(t, "int("), strings.HasPrefix(t, "bigint("), strings.HasPrefix(t, "smallint("),
		strings.HasPrefix(t, "int "), strings.HasPrefix(t, "bigint "):
		return "INTEGER"
	case t == "text", t == "mediumtext", t == "longtext", t == "clob":
		return "TEXT"
	case strings.HasPrefix(t, "timestamp"), t == "timestamptz", strings.HasPrefix(t, "datetime"):
		return "TIMESTAMP"
	case strings.HasPrefix(t, "decimal"), strings.HasPrefix(t, "numeric"):
		return "DECIMAL"
	}
	return dbType
}

// mapColumn converts catalog column information into an editor column
func mapColumn(info columnInfo) schema.Column {
	col := schema.Column{Name: info.Name, Type: mapType(info.Type)}

	if !info.Nullable {
		col.Constraints = append(col.Constraints, schema.NotNull)
	}
	if info.Unique {
		col.Constraints = append(col.Constraints, schema.Unique)
	}

	auto := info.AutoIncrement
	if info.Default != nil {
		def := strings.TrimSpace(*info.Default)
		// PostgreSQL reports literals with a cast: 'active'::character varying
		if i := strings.Index(def, "::"); i > 0 {
			def = def[:i]
		}
		lower := strings.ToLower(def)
		switch {
		case strings.HasPrefix(lower, "nextval("):
			auto = true
		case currentTimestamp.MatchString(lower):
			col.Constraints = append(col.Constraints, schema.DefaultCurrentTimestamp)
		case def != "" && lower != "null":
			col.Constraints = append(col.Constraints, schema.Default)
			col.DefaultValue = schema.NewValue(def)
		}
	}
	if auto {
		col.Constraints = append(col.Constraints, schema.AutoIncrement)
	}
	return col
}

// mapAction maps a catalog referential rule, defaulting to NO ACTION
func mapAction(rule string) schema.ReferentialAction {
	a := schema.ReferentialAction(strings.ToUpper(strings.TrimSpace(rule)))
	if a.Valid() {
		return a
	}
	return schema.NoAction
}

// buildTable assembles an editor table from catalog information. A foreign
// key on a unique column is one-to-one; every other one is many-to-one.
// Single-column indexes tag their column.
func buildTable(name string, columns []columnInfo, pk []string, fks []foreignKey, indexes []indexInfo) schema.Table {
	table := schema.Table{
		Name:          name,
		Columns:       make([]schema.Column, 0, len(columns)),
		PrimaryKey:    append([]string{}, pk...),
		Relationships: []schema.Relationship{},
	}
	for _, info := range columns {
		table.Columns = append(table.Columns, mapColumn(info))
	}

	for _, idx := range indexes {
		if !idx.Implicit {
			table.Indexes = append(table.Indexes, idx.Name)
		}
		if len(idx.Columns) != 1 {
			continue
		}
		col := table.Column(idx.Columns[0])
		if col == nil {
			continue
		}
		tag := schema.CreateIndex
		if idx.Unique {
			tag = schema.Unique
		}
		if !col.HasConstraint(tag) {
			col.Constraints = append(col.Constraints, tag)
		}
	}

	for _, fk := range fks {
		relType := schema.ManyToOne
		if uniqueColumn(&table, fk.Column) {
			relType = schema.OneToOne
		}
		table.Relationships = append(table.Relationships, schema.Relationship{
			Type:             relType,
			ForeignKey:       fk.Column,
			ReferencesTable:  fk.ReferencesTable,
			ReferencesColumn: fk.ReferencesColumn,
			OnDelete:         mapAction(fk.OnDelete),
			OnUpdate:         mapAction(fk.OnUpdate),
		})
	}
	return table
}

// uniqueColumn reports whether column alone identifies a row
func uniqueColumn(t *schema.Table, column string) bool {
	if len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == column {
		return true
	}
	col := t.Column(column)
	return col != nil && col.HasConstraint(schema.Unique)
}

// newSchema wraps extracted tables and applies the model's invariants
func newSchema(name string, tables []schema.Table) *schema.Schema {
	s := &schema.Schema{Name: name, Tables: tables}
	s.Normalize()
	return s
}
