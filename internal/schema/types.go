package schema

import (
	"encoding/json"
	"strconv"
)

// Constraint is a column constraint tag
type Constraint string

// Column constraint tags
const (
	NotNull                 Constraint = "NOT NULL"
	Unique                  Constraint = "UNIQUE"
	PrimaryKey              Constraint = "PRIMARY KEY"
	ForeignKey              Constraint = "FOREIGN KEY"
	Check                   Constraint = "CHECK"
	Default                 Constraint = "DEFAULT"
	AutoIncrement           Constraint = "AUTO_INCREMENT"
	DefaultCurrentTimestamp Constraint = "DEFAULT CURRENT_TIMESTAMP"
	CreateIndex             Constraint = "CREATE INDEX"
)

// Constraints lists every known constraint tag
var Constraints = []Constraint{
	NotNull, Unique, PrimaryKey, ForeignKey, Check, Default,
	AutoIncrement, DefaultCurrentTimestamp, CreateIndex,
}

// EditableConstraints are the tags offered when editing a column
var EditableConstraints = []Constraint{
	NotNull, Unique, PrimaryKey, AutoIncrement, DefaultCurrentTimestamp,
}

// Valid reports whether c is a known constraint tag
func (c Constraint) Valid() bool {
	for _, known := range Constraints {
		if c == known {
			return true
		}
	}
	return false
}

// RelationshipType is the cardinality tag of a relationship
type RelationshipType string

// Cardinality tags
const (
	OneToOne   RelationshipType = "ONE-TO-ONE"
	OneToMany  RelationshipType = "ONE-TO-MANY"
	ManyToOne  RelationshipType = "MANY-TO-ONE"
	ManyToMany RelationshipType = "MANY-TO-MANY"
)

// RelationshipTypes lists every cardinality tag
var RelationshipTypes = []RelationshipType{OneToOne, OneToMany, ManyToOne, ManyToMany}

// Valid reports whether t is a known cardinality tag
func (t RelationshipType) Valid() bool {
	for _, known := range RelationshipTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Symbol returns the short glyph drawn on relationship badges
func (t RelationshipType) Symbol() string {
	switch t {
	case OneToOne:
		return "1:1"
	case OneToMany:
		return "1:N"
	case ManyToOne:
		return "N:1"
	case ManyToMany:
		return "N:N"
	default:
		return "?"
	}
}

// ReferentialAction is an ON DELETE / ON UPDATE action
type ReferentialAction string

// Referential actions
const (
	Cascade    ReferentialAction = "CASCADE"
	SetNull    ReferentialAction = "SET NULL"
	Restrict   ReferentialAction = "RESTRICT"
	NoAction   ReferentialAction = "NO ACTION"
	SetDefault ReferentialAction = "SET DEFAULT"
)

// ReferentialActions lists every referential action
var ReferentialActions = []ReferentialAction{Cascade, SetNull, Restrict, NoAction, SetDefault}

// Valid reports whether a is a known referential action
func (a ReferentialAction) Valid() bool {
	for _, known := range ReferentialActions {
		if a == known {
			return true
		}
	}
	return false
}

// DataTypes is the column type vocabulary offered by the editor
var DataTypes = []string{
	"INTEGER", "VARCHAR(50)", "VARCHAR(100)", "VARCHAR(255)",
	"TEXT", "TIMESTAMP", "BOOLEAN", "DECIMAL",
}

// KnownType reports whether t is part of the editor vocabulary
func KnownType(t string) bool {
	for _, known := range DataTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Schema represents a complete database schema
type Schema struct {
	Name      string  `json:"schemaName"`
	Tables    []Table `json:"tables"`
	Version   string  `json:"version,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// Table represents a database table
type Table struct {
	Name          string         `json:"tableName"`
	Columns       []Column       `json:"columns"`
	PrimaryKey    []string       `json:"primaryKey"`
	Relationships []Relationship `json:"relationships"`
	Indexes       []string       `json:"indexes,omitempty"`
}

// Column represents a table column
type Column struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Constraints  []Constraint `json:"constraints,omitempty"`
	DefaultValue *Value       `json:"defaultValue,omitempty"`
}

// Relationship represents a foreign key owned by the table holding the key
type Relationship struct {
	Type             RelationshipType  `json:"type"`
	ForeignKey       string            `json:"foreignKey"`
	ReferencesTable  string            `json:"referencesTable"`
	ReferencesColumn string            `json:"referencesColumn"`
	OnDelete         ReferentialAction `json:"onDelete"`
	OnUpdate         ReferentialAction `json:"onUpdate"`
}

// Value is a column default. Stored documents may hold a string, number or
// boolean; all are kept as their SQL literal text.
type Value string

// NewValue returns a pointer to a default value
func NewValue(s string) *Value {
	v := Value(s)
	return &v
}

// String returns the literal text
func (v Value) String() string {
	return string(v)
}

// UnmarshalJSON accepts JSON strings, numbers and booleans
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Value(strconv.FormatBool(b))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Value(n.String())
	return nil
}

// HasConstraint reports whether the column carries tag c
func (c Column) HasConstraint(tag Constraint) bool {
	for _, existing := range c.Constraints {
		if existing == tag {
			return true
		}
	}
	return false
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether the named column is part of the primary key
func (t *Table) IsPrimaryKey(column string) bool {
	return indexOf(t.PrimaryKey, column) >= 0
}

// Table returns the table with the given name, or nil
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns table names in schema order
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
