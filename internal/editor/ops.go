package editor

import (
	"fmt"
	"strings"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// AddTable appends a table on the grid slot for its index
func (e *Editor) AddTable() string {
	var name string
	_ = e.apply("add table", func() error {
		name = e.schema.AddTable()
		e.layout.Place(name, len(e.schema.Tables)-1, 1)
		return nil
	})
	return name
}

// DeleteTable removes a table, its layout entry and every relationship
// pointing at it. No confirmation is asked; see DeleteSelectedTable.
func (e *Editor) DeleteTable(name string) error {
	return e.apply("delete table", func() error {
		if err := e.schema.DeleteTable(name); err != nil {
			return err
		}
		e.layout.Delete(name)
		if e.selected == name {
			e.selected = ""
		}
		return nil
	})
}

// DeleteSelectedTable deletes the selected table after confirmation. It
// reports whether a table was deleted.
func (e *Editor) DeleteSelectedTable() bool {
	name := e.selected
	if name == "" || e.schema.Table(name) == nil {
		return false
	}

	message := fmt.Sprintf("Are you sure you want to delete table '%s'?", name)
	if e.schema.HasRelationships(name) {
		message += " This will also delete all related relationships."
	}
	if !e.ask(message) {
		return false
	}
	if err := e.DeleteTable(name); err != nil {
		return false
	}
	e.tell(fmt.Sprintf("Table '%s' deleted", name))
	return true
}

// RenameTable renames a table. Its geometry and the selection follow the
// new name; relationships elsewhere keep pointing at the old one.
func (e *Editor) RenameTable(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == oldName && e.schema.Table(oldName) != nil {
		return nil
	}
	return e.apply("rename table", func() error {
		if err := e.schema.RenameTable(oldName, newName); err != nil {
			return err
		}
		e.layout.Rename(oldName, newName)
		if e.selected == oldName {
			e.selected = newName
		}
		return nil
	})
}

// ClearSchema removes every table after confirmation
func (e *Editor) ClearSchema() bool {
	if !e.ask("Are you sure you want to clear all tables?") {
		return false
	}
	_ = e.apply("clear schema", func() error {
		e.schema.Clear()
		e.layout.Clear()
		e.selected = ""
		return nil
	})
	e.tell("Schema cleared")
	return true
}

// AddColumn appends a default column and grows the table's box
func (e *Editor) AddColumn(table string) (string, error) {
	var name string
	err := e.apply("add column", func() error {
		var err error
		if name, err = e.schema.AddColumn(table); err != nil {
			return err
		}
		e.resize(table)
		return nil
	})
	return name, err
}

// DeleteColumn removes the column at index. The last column of a table
// cannot be deleted.
func (e *Editor) DeleteColumn(table string, index int) error {
	return e.apply("delete column", func() error {
		if err := e.schema.DeleteColumn(table, index); err != nil {
			return err
		}
		e.resize(table)
		return nil
	})
}

// UpdateColumn replaces the column at index
func (e *Editor) UpdateColumn(table string, index int, col schema.Column) error {
	return e.apply("update column", func() error {
		return e.schema.UpdateColumn(table, index, col)
	})
}

// TogglePrimaryKey adds or removes a column from the primary key
func (e *Editor) TogglePrimaryKey(table, column string) error {
	return e.apply("toggle primary key", func() error {
		return e.schema.TogglePrimaryKey(table, column)
	})
}

// ToggleConstraint adds or removes a constraint tag on a column
func (e *Editor) ToggleConstraint(table, column string, tag schema.Constraint) error {
	return e.apply("toggle constraint", func() error {
		return e.schema.ToggleConstraint(table, column, tag)
	})
}

// AddRelationship appends rel to table
func (e *Editor) AddRelationship(table string, rel schema.Relationship) error {
	return e.apply("add relationship", func() error {
		return e.schema.AddRelationship(table, rel)
	})
}

// AddDefaultRelationship appends the proposed default relationship for table
func (e *Editor) AddDefaultRelationship(table string) (schema.Relationship, error) {
	rel, err := e.schema.DefaultRelationship(table)
	if err != nil {
		e.logger.Printf("add relationship rejected: %v", err)
		return schema.Relationship{}, err
	}
	return rel, e.AddRelationship(table, rel)
}

// UpdateRelationship replaces the relationship at index
func (e *Editor) UpdateRelationship(table string, index int, rel schema.Relationship) error {
	return e.apply("update relationship", func() error {
		return e.schema.UpdateRelationship(table, index, rel)
	})
}

// DeleteRelationship removes the relationship at index
func (e *Editor) DeleteRelationship(table string, index int) error {
	return e.apply("delete relationship", func() error {
		return e.schema.DeleteRelationship(table, index)
	})
}

// Select makes name the selected table. An empty name clears the selection.
func (e *Editor) Select(name string) error {
	if name != "" && e.schema.Table(name) == nil {
		return fmt.Errorf("%w: %s", schema.ErrTableNotFound, name)
	}
	e.selected = name
	e.redraw()
	return nil
}

func (e *Editor) resize(table string) {
	if t := e.schema.Table(table); t != nil {
		e.layout.Resize(table, len(t.Columns))
	}
}
