package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdcanvas"
	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/store"
)

var (
	dbURL         string
	mysqlURL      string
	sqlitePath    string
	tables        string
	excludeTables string
	schemaName    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the saved schema with the structure of a live database",
	Long: `Import reads tables, columns, primary keys, foreign keys and indexes from PostgreSQL,
MySQL or SQLite and saves them as the editor state. Tables are laid out on the default grid
and the undo history starts empty.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	importCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	importCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	importCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	importCmd.Flags().StringVarP(&excludeTables, "exclude", "x", "", "Tables to skip (comma-separated, optional)")
	importCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, from the DSN for MySQL)")
}

// importURL turns the database flags into a URL for ImportSchema
func importURL() (string, error) {
	dbCount := 0
	if dbURL != "" {
		dbCount++
	}
	if mysqlURL != "" {
		dbCount++
	}
	if sqlitePath != "" {
		dbCount++
	}
	if dbCount == 0 {
		return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case sqlitePath != "":
		return "sqlite://" + sqlitePath, nil
	case mysqlURL != "":
		return "mysql://" + mysqlURL, nil
	default:
		return dbURL, nil
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	url, err := importURL()
	if err != nil {
		return err
	}

	imported, err := erdcanvas.ImportSchema(ctx, url, &erdcanvas.Options{
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(excludeTables),
		SchemaName:    schemaName,
	})
	if err != nil {
		return fmt.Errorf("failed to import schema: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close store: %v\n", err)
		}
	}()

	ed := editor.New(imported, editor.Options{Store: st, Key: cfg.Editor.Key})
	if err := ed.Save(ctx); err != nil {
		return err
	}

	for _, issue := range ed.Schema().Validate() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", issue)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d tables from %s\n", len(ed.Schema().Tables), ed.Schema().Name)
	return nil
}
