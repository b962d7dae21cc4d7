package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdcanvas"
	"github.com/tordrt/erdcanvas/internal/config"
	"github.com/tordrt/erdcanvas/internal/editor"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "erdcanvas",
	Short: "Design relational schemas on a canvas",
	Long: `erdcanvas edits relational schemas as entity-relationship diagrams: tables, columns,
primary keys and relationships laid out on a canvas, with undo/redo, persistence and
SQL/JSON export. Use the edit command for an interactive session or serve for the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.AddCommand(exportCmd, renderCmd, importCmd, editCmd, serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openSession loads the configuration and the saved editor state
func openSession(ctx context.Context, opts editor.Options) (*erdcanvas.Session, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	sess, err := erdcanvas.OpenEditor(ctx, cfg, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open editor: %w", err)
	}
	return sess, cfg, nil
}

func closeSession(sess *erdcanvas.Session) {
	if err := sess.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close store: %v\n", err)
	}
}

// parseTableList splits a comma-separated flag value
func parseTableList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
