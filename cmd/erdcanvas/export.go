package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdcanvas"
	"github.com/tordrt/erdcanvas/internal/editor"
)

var (
	exportFormats []string
	outputFile    string
	outputDir     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the saved schema as SQL, JSON, text or markdown",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", []string{"sql"}, "Output format: sql, json, text or markdown (repeatable with --output-dir)")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory, one file per format named after the schema")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Validate flag combinations
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if outputDir == "" && len(exportFormats) > 1 {
		return fmt.Errorf("multiple formats require --output-dir")
	}

	sess, _, err := openSession(ctx, editor.Options{})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	opts := &erdcanvas.OutputOptions{Writer: cmd.OutOrStdout(), OutputDir: outputDir, Formats: exportFormats}
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		opts.Writer = f
	}

	if err := erdcanvas.Export(sess.Schema(), opts); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}
