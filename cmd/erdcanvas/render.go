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
	imageFile    string
	renderWidth  int
	renderHeight int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the saved diagram as a PNG image",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&imageFile, "output", "o", "canvas.png", "Output PNG file")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Image width (default: canvas width from config)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Image height (default: canvas height from config)")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, cfg, err := openSession(ctx, editor.Options{})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	width, height := cfg.Canvas.Width, cfg.Canvas.Height
	if renderWidth > 0 {
		width = renderWidth
	}
	if renderHeight > 0 {
		height = renderHeight
	}

	f, err := os.Create(imageFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
		}
	}()

	if err := erdcanvas.RenderPNG(sess.Editor, f, width, height); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%dx%d)\n", imageFile, width, height)
	return nil
}
