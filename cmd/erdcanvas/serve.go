package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default: server.addr from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	sess, cfg, err := openSession(context.Background(), editor.Options{})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	srv := server.New(sess.Editor, cfg.Server, cfg.Canvas).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	log.Println("Shutting down server gracefully ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server Shutdown:", err)
	}
	if err := sess.Save(ctx); err != nil {
		log.Println("Failed to save schema:", err)
	}
	log.Println("Server exiting")
	return nil
}
