package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{client: client}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted := make([]schema.Table, 0, len(tableNames))
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extracted = append(extracted, table)
	}

	name := strings.TrimSuffix(filepath.Base(e.client.path), filepath.Ext(e.client.path))
	return newSchema(name, extracted), nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	return queryStrings(ctx, e.client.db, query)
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (schema.Table, error) {
	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(columns) == 0 {
		return schema.Table{}, fmt.Errorf("table not found")
	}

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to extract relationships: %w", err)
	}

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to extract indexes: %w", err)
	}

	return buildTable(tableName, columns, pk, fks, indexes), nil
}

// quoteIdent quotes a name for use in a PRAGMA argument
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// extractColumns extracts columns and the primary key. A single INTEGER
// primary key declared AUTOINCREMENT is flagged as such.
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]columnInfo, []string, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	pkOrder := map[int]string{}

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := columnInfo{Name: name, Type: colType, Nullable: notNull == 0}
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}
		if pk > 0 {
			pkOrder[pk] = name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pk := make([]string, 0, len(pkOrder))
	for i := 1; i <= len(pkOrder); i++ {
		pk = append(pk, pkOrder[i])
	}

	if len(pk) == 1 {
		auto, err := e.hasAutoincrement(ctx, tableName)
		if err != nil {
			return nil, nil, err
		}
		for i := range columns {
			if columns[i].Name == pk[0] && auto {
				columns[i].AutoIncrement = true
			}
		}
	}

	return columns, pk, nil
}

// hasAutoincrement checks the table's DDL for the AUTOINCREMENT keyword
func (e *SQLiteExtractor) hasAutoincrement(ctx context.Context, tableName string) (bool, error) {
	var ddl sql.NullString
	err := e.client.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

// extractForeignKeys extracts foreign key columns with their referential rules
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fks []foreignKey
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, match string
		var toCol sql.NullString
		var fk foreignKey

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &fk.OnUpdate, &fk.OnDelete, &match); err != nil {
			return nil, err
		}

		fk.Column = fromCol
		fk.ReferencesTable = targetTable
		// A missing target column means the referenced table's primary key
		fk.ReferencesColumn = toCol.String
		if !toCol.Valid || toCol.String == "" {
			fk.ReferencesColumn = "id"
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// extractIndexes extracts secondary index information, including the
// automatic indexes behind UNIQUE constraints
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]indexInfo, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var indexes []indexInfo
	var origins []string
	for rows.Next() {
		var seq, unique, partial int
		var idx indexInfo
		var origin string

		if err := rows.Scan(&seq, &idx.Name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, err
		}
		idx.Unique = unique == 1
		indexes = append(indexes, idx)
		origins = append(origins, origin)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Read index_info only after index_list is closed.
	kept := indexes[:0]
	for i, idx := range indexes {
		if origins[i] == "pk" {
			continue
		}
		columns, err := e.indexColumns(ctx, idx.Name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}
		idx.Columns = columns
		idx.Implicit = origins[i] == "u"
		kept = append(kept, idx)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })
	return kept, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}
