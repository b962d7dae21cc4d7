package schema

import "time"

// Sample returns the schema loaded on first run: a small blogging platform
// with users, posts and comments.
func Sample(now time.Time) *Schema {
	timestamps := func(names ...string) []Column {
		cols := make([]Column, 0, len(names))
		for _, n := range names {
			cols = append(cols, Column{Name: n, Type: "TIMESTAMP", Constraints: []Constraint{DefaultCurrentTimestamp}})
		}
		return cols
	}

	users := Table{
		Name: "users",
		Columns: append([]Column{
			{Name: "id", Type: "INTEGER", Constraints: []Constraint{NotNull, Unique, AutoIncrement}},
			{Name: "username", Type: "VARCHAR(50)", Constraints: []Constraint{NotNull, Unique}},
			{Name: "email", Type: "VARCHAR(100)", Constraints: []Constraint{NotNull, Unique}},
			{Name: "password_hash", Type: "VARCHAR(255)", Constraints: []Constraint{NotNull}},
		}, timestamps("created_at", "updated_at")...),
		PrimaryKey:    []string{"id"},
		Relationships: []Relationship{},
	}

	posts := Table{
		Name: "posts",
		Columns: append([]Column{
			{Name: "id", Type: "INTEGER", Constraints: []Constraint{NotNull, Unique, AutoIncrement}},
			{Name: "user_id", Type: "INTEGER", Constraints: []Constraint{NotNull}},
			{Name: "title", Type: "VARCHAR(255)", Constraints: []Constraint{NotNull}},
			{Name: "content", Type: "TEXT"},
		}, timestamps("created_at", "updated_at")...),
		PrimaryKey: []string{"id"},
		Relationships: []Relationship{
			{Type: ManyToOne, ForeignKey: "user_id", ReferencesTable: "users", ReferencesColumn: "id", OnDelete: Cascade, OnUpdate: Cascade},
		},
	}

	comments := Table{
		Name: "comments",
		Columns: append([]Column{
			{Name: "id", Type: "INTEGER", Constraints: []Constraint{NotNull, AutoIncrement}},
			{Name: "post_id", Type: "INTEGER", Constraints: []Constraint{NotNull}},
			{Name: "user_id", Type: "INTEGER", Constraints: []Constraint{NotNull}},
			{Name: "comment_text", Type: "TEXT", Constraints: []Constraint{NotNull}},
		}, timestamps("created_at")...),
		PrimaryKey: []string{"id"},
		Relationships: []Relationship{
			{Type: ManyToOne, ForeignKey: "post_id", ReferencesTable: "posts", ReferencesColumn: "id", OnDelete: Cascade, OnUpdate: Cascade},
			{Type: ManyToOne, ForeignKey: "user_id", ReferencesTable: "users", ReferencesColumn: "id", OnDelete: SetNull, OnUpdate: Cascade},
		},
	}

	return &Schema{
		Name:      "BloggingPlatform",
		Tables:    []Table{users, posts, comments},
		Version:   "1.0.0",
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}
