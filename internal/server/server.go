// Package server exposes an editor over HTTP. Requests are applied to the
// editor one at a time, in arrival order.
package server

import (
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tordrt/erdcanvas/internal/config"
	"github.com/tordrt/erdcanvas/internal/editor"
)

// Server serializes HTTP requests onto a single editor
type Server struct {
	mu     sync.Mutex
	editor *editor.Editor

	// confirmed and messages belong to the request holding mu.
	confirmed bool
	messages  []string

	width  int
	height int
	cfg    config.ServerConfig
	logger *log.Logger
	router *gin.Engine
}

// New wraps ed. The server takes over the editor's confirmation and
// notification callbacks: destructive requests are confirmed with
// ?confirm=true and notifications are returned in the response.
func New(ed *editor.Editor, cfg config.ServerConfig, canvas config.CanvasConfig) *Server {
	s := &Server{
		editor: ed,
		width:  canvas.Width,
		height: canvas.Height,
		cfg:    cfg,
		logger: log.New(os.Stderr, "[SERVER] ", log.LstdFlags),
	}
	ed.SetConfirm(func(string) bool { return s.confirmed })
	ed.SetNotify(func(msg string) { s.messages = append(s.messages, msg) })

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s.router = gin.New()
	s.router.Use(gin.Logger(), gin.Recovery(), cors.New(corsConfig(cfg.CORSOrigins)))
	s.registerRoutes(s.router.Group("/api"))
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server listening on the configured address
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// locked runs fn with exclusive access to the editor. Confirmation for
// destructive actions comes from the confirm query parameter.
func (s *Server) locked(c *gin.Context, fn func(ed *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmed = c.Query("confirm") == "true"
	s.messages = nil
	fn(s.editor)
}

// reply writes a success envelope carrying the current editor notifications.
// It must be called from within locked.
func (s *Server) reply(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:   "success",
		Message:  message,
		Data:     data,
		Messages: s.messages,
	})
}
