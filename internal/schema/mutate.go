package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned for rejected edits. None of them leave the schema modified.
var (
	ErrTableNotFound        = errors.New("table not found")
	ErrDuplicateTable       = errors.New("table name already in use")
	ErrInvalidName          = errors.New("name must not be empty")
	ErrColumnNotFound       = errors.New("column not found")
	ErrDuplicateColumn      = errors.New("column name already in use")
	ErrLastColumn           = errors.New("cannot delete the last column")
	ErrUnknownType          = errors.New("unknown column type")
	ErrUnknownConstraint    = errors.New("unknown constraint")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrForeignKeyNotFound   = errors.New("foreign key column not in table")
	ErrNoTargetTable        = errors.New("no other table to reference")
	ErrUnknownRelationship  = errors.New("unknown relationship type")
	ErrUnknownAction        = errors.New("unknown referential action")
	ErrNoColumns            = errors.New("table has no columns")
)

const (
	newTablePrefix = "new_table_"
	newColumnName  = "new_column"
)

// AddTable appends a table with a default name and a single id column.
// It returns the name assigned.
func (s *Schema) AddTable() string {
	n := len(s.Tables) + 1
	name := fmt.Sprintf("%s%d", newTablePrefix, n)
	for s.Table(name) != nil {
		n++
		name = fmt.Sprintf("%s%d", newTablePrefix, n)
	}

	s.Tables = append(s.Tables, Table{
		Name: name,
		Columns: []Column{
			{Name: "id", Type: "INTEGER", Constraints: []Constraint{AutoIncrement}},
		},
		PrimaryKey:    []string{"id"},
		Relationships: []Relationship{},
	})
	return name
}

// DeleteTable removes a table and every relationship in the remaining
// tables that references it.
func (s *Schema) DeleteTable(name string) error {
	if s.Table(name) == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	remaining := make([]Table, 0, len(s.Tables)-1)
	for _, t := range s.Tables {
		if t.Name == name {
			continue
		}
		kept := make([]Relationship, 0, len(t.Relationships))
		for _, rel := range t.Relationships {
			if rel.ReferencesTable != name {
				kept = append(kept, rel)
			}
		}
		t.Relationships = kept
		remaining = append(remaining, t)
	}
	s.Tables = remaining
	return nil
}

// HasRelationships reports whether deleting the table would cascade away
// relationships, either its own or ones in other tables pointing at it.
func (s *Schema) HasRelationships(name string) bool {
	for _, t := range s.Tables {
		if t.Name == name && len(t.Relationships) > 0 {
			return true
		}
		for _, rel := range t.Relationships {
			if rel.ReferencesTable == name {
				return true
			}
		}
	}
	return false
}

// RenameTable renames a table. Relationships in other tables that point at
// the old name are left as they are.
func (s *Schema) RenameTable(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidName
	}
	t := s.Table(oldName)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if s.Table(newName) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, newName)
	}
	t.Name = newName
	return nil
}

// Clear removes every table
func (s *Schema) Clear() {
	s.Tables = []Table{}
}

// AddColumn appends a VARCHAR(50) column with a unique default name and
// returns that name.
func (s *Schema) AddColumn(table string) (string, error) {
	t := s.Table(table)
	if t == nil {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	name := newColumnName
	for n := 2; t.Column(name) != nil; n++ {
		name = fmt.Sprintf("%s_%d", newColumnName, n)
	}
	t.Columns = append(t.Columns, Column{Name: name, Type: "VARCHAR(50)"})
	return name, nil
}

// DeleteColumn removes the column at index. Deleting the last column is
// rejected. The column leaves the primary key, and relationships using it as
// foreign key are dropped.
func (s *Schema) DeleteColumn(table string, index int) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if index < 0 || index >= len(t.Columns) {
		return fmt.Errorf("%w: index %d", ErrColumnNotFound, index)
	}
	if len(t.Columns) <= 1 {
		return ErrLastColumn
	}

	name := t.Columns[index].Name
	t.Columns = append(t.Columns[:index], t.Columns[index+1:]...)

	if i := indexOf(t.PrimaryKey, name); i >= 0 {
		t.PrimaryKey = append(t.PrimaryKey[:i], t.PrimaryKey[i+1:]...)
	}

	kept := t.Relationships[:0]
	for _, rel := range t.Relationships {
		if rel.ForeignKey != name {
			kept = append(kept, rel)
		}
	}
	t.Relationships = kept
	return nil
}

// UpdateColumn replaces the column at index. A rename is carried into the
// primary key and the table's own relationships.
func (s *Schema) UpdateColumn(table string, index int, col Column) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if index < 0 || index >= len(t.Columns) {
		return fmt.Errorf("%w: index %d", ErrColumnNotFound, index)
	}
	col.Name = strings.TrimSpace(col.Name)
	if col.Name == "" {
		return ErrInvalidName
	}
	// Imported columns may keep a type outside the vocabulary until it changes.
	if col.Type != t.Columns[index].Type && !KnownType(col.Type) {
		return fmt.Errorf("%w: %s", ErrUnknownType, col.Type)
	}
	for _, c := range col.Constraints {
		if !c.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownConstraint, c)
		}
	}

	oldName := t.Columns[index].Name
	if col.Name != oldName && t.Column(col.Name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name)
	}

	makePK := false
	tags := make([]Constraint, 0, len(col.Constraints))
	for _, c := range col.Constraints {
		if c == PrimaryKey {
			makePK = true
			continue
		}
		tags = append(tags, c)
	}
	col.Constraints = tags
	t.Columns[index] = col

	if col.Name != oldName {
		if i := indexOf(t.PrimaryKey, oldName); i >= 0 {
			t.PrimaryKey[i] = col.Name
		}
		for i := range t.Relationships {
			if t.Relationships[i].ForeignKey == oldName {
				t.Relationships[i].ForeignKey = col.Name
			}
		}
	}
	if makePK && !t.IsPrimaryKey(col.Name) {
		t.PrimaryKey = append(t.PrimaryKey, col.Name)
	}
	return nil
}

// TogglePrimaryKey adds the column to the primary key or removes it
func (s *Schema) TogglePrimaryKey(table, column string) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if t.Column(column) == nil {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	if i := indexOf(t.PrimaryKey, column); i >= 0 {
		t.PrimaryKey = append(t.PrimaryKey[:i], t.PrimaryKey[i+1:]...)
	} else {
		t.PrimaryKey = append(t.PrimaryKey, column)
	}
	return nil
}

// ToggleConstraint adds or removes a constraint tag on a column. The PRIMARY
// KEY tag is kept in the table's primary key list instead.
func (s *Schema) ToggleConstraint(table, column string, tag Constraint) error {
	if !tag.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownConstraint, tag)
	}
	if tag == PrimaryKey {
		return s.TogglePrimaryKey(table, column)
	}
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	col := t.Column(column)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}

	for i, existing := range col.Constraints {
		if existing == tag {
			col.Constraints = append(col.Constraints[:i], col.Constraints[i+1:]...)
			return nil
		}
	}
	col.Constraints = append(col.Constraints, tag)
	return nil
}

// DefaultRelationship builds the relationship the editor proposes for a
// table: many-to-one from its first column to the id of the first other table.
func (s *Schema) DefaultRelationship(table string) (Relationship, error) {
	t := s.Table(table)
	if t == nil {
		return Relationship{}, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	var target string
	for _, other := range s.Tables {
		if other.Name != table {
			target = other.Name
			break
		}
	}
	if target == "" {
		return Relationship{}, ErrNoTargetTable
	}

	fk := ""
	if len(t.Columns) > 0 {
		fk = t.Columns[0].Name
	}
	return Relationship{
		Type:             ManyToOne,
		ForeignKey:       fk,
		ReferencesTable:  target,
		ReferencesColumn: "id",
		OnDelete:         Cascade,
		OnUpdate:         Cascade,
	}, nil
}

// AddRelationship appends a relationship to the table owning the foreign key.
// The referenced table is not checked.
func (s *Schema) AddRelationship(table string, rel Relationship) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if err := checkRelationship(t, rel); err != nil {
		return err
	}
	t.Relationships = append(t.Relationships, rel)
	return nil
}

// UpdateRelationship replaces the relationship at index
func (s *Schema) UpdateRelationship(table string, index int, rel Relationship) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if index < 0 || index >= len(t.Relationships) {
		return fmt.Errorf("%w: index %d", ErrRelationshipNotFound, index)
	}
	if err := checkRelationship(t, rel); err != nil {
		return err
	}
	t.Relationships[index] = rel
	return nil
}

// DeleteRelationship removes the relationship at index
func (s *Schema) DeleteRelationship(table string, index int) error {
	t := s.Table(table)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	if index < 0 || index >= len(t.Relationships) {
		return fmt.Errorf("%w: index %d", ErrRelationshipNotFound, index)
	}
	t.Relationships = append(t.Relationships[:index], t.Relationships[index+1:]...)
	return nil
}

func checkRelationship(t *Table, rel Relationship) error {
	if t.Column(rel.ForeignKey) == nil {
		return fmt.Errorf("%w: %s.%s", ErrForeignKeyNotFound, t.Name, rel.ForeignKey)
	}
	if !rel.Type.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownRelationship, rel.Type)
	}
	if !rel.OnDelete.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAction, rel.OnDelete)
	}
	if !rel.OnUpdate.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAction, rel.OnUpdate)
	}
	return nil
}
