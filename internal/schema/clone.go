package schema

import (
	"fmt"
	"strings"
)

// Clone returns a deep copy sharing no slices with s
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		Name:      s.Name,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		Tables:    make([]Table, len(s.Tables)),
	}
	for i, t := range s.Tables {
		out.Tables[i] = t.clone()
	}
	return out
}

func (t Table) clone() Table {
	out := Table{
		Name:          t.Name,
		Columns:       make([]Column, len(t.Columns)),
		PrimaryKey:    append([]string{}, t.PrimaryKey...),
		Relationships: append([]Relationship{}, t.Relationships...),
	}
	if t.Indexes != nil {
		out.Indexes = append([]string{}, t.Indexes...)
	}
	for i, c := range t.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

func (c Column) clone() Column {
	out := Column{Name: c.Name, Type: c.Type}
	if c.Constraints != nil {
		out.Constraints = append([]Constraint{}, c.Constraints...)
	}
	if c.DefaultValue != nil {
		out.DefaultValue = NewValue(c.DefaultValue.String())
	}
	return out
}

// Normalize brings a loaded or imported schema in line with the editor's
// invariants: PRIMARY KEY tags move into the table primary key list, primary
// key entries name existing columns, and relationships whose foreign key
// column is missing are dropped.
func (s *Schema) Normalize() {
	if s.Tables == nil {
		s.Tables = []Table{}
	}
	for i := range s.Tables {
		t := &s.Tables[i]

		var pk []string
		for _, name := range t.PrimaryKey {
			if t.Column(name) != nil && indexOf(pk, name) < 0 {
				pk = append(pk, name)
			}
		}
		for j := range t.Columns {
			col := &t.Columns[j]
			if !col.HasConstraint(PrimaryKey) {
				continue
			}
			tags := make([]Constraint, 0, len(col.Constraints))
			for _, c := range col.Constraints {
				if c != PrimaryKey {
					tags = append(tags, c)
				}
			}
			col.Constraints = tags
			if indexOf(pk, col.Name) < 0 {
				pk = append(pk, col.Name)
			}
		}
		if pk == nil {
			pk = []string{}
		}
		t.PrimaryKey = pk

		rels := make([]Relationship, 0, len(t.Relationships))
		for _, rel := range t.Relationships {
			if t.Column(rel.ForeignKey) != nil {
				rels = append(rels, rel)
			}
		}
		t.Relationships = rels
	}
}

// CheckTables reports the first table that breaks the model's structural rules:
// names must be non-empty and unique, and every table needs a column.
func (s *Schema) CheckTables() error {
	seen := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: table %d", ErrInvalidName, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
		}
		seen[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("%w: %s", ErrNoColumns, t.Name)
		}
	}
	return nil
}

// Issue describes a reference that no longer resolves
type Issue struct {
	Table        string
	Relationship int
	Message      string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: relationship %d: %s", i.Table, i.Relationship, i.Message)
}

// Validate reports relationships whose referenced table or column does not
// exist. It never modifies the schema.
func (s *Schema) Validate() []Issue {
	var issues []Issue
	for _, t := range s.Tables {
		for i, rel := range t.Relationships {
			target := s.Table(rel.ReferencesTable)
			if target == nil {
				issues = append(issues, Issue{
					Table:        t.Name,
					Relationship: i,
					Message:      fmt.Sprintf("references missing table %q", rel.ReferencesTable),
				})
				continue
			}
			if target.Column(rel.ReferencesColumn) == nil {
				issues = append(issues, Issue{
					Table:        t.Name,
					Relationship: i,
					Message:      fmt.Sprintf("references missing column %s.%s", rel.ReferencesTable, rel.ReferencesColumn),
				})
			}
		}
	}
	return issues
}
