// Package config loads erdcanvas settings from defaults, an optional YAML
// file and the environment (including a .env file), in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/erdcanvas/internal/store"
)

// Config is the complete application configuration
type Config struct {
	Store  store.Config `yaml:"store" json:"store"`
	Editor EditorConfig `yaml:"editor" json:"editor"`
	Canvas CanvasConfig `yaml:"canvas" json:"canvas"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// EditorConfig controls history and persistence behavior
type EditorConfig struct {
	// Key is the store key the editor state lives under.
	Key             string `yaml:"key" json:"key"`
	HistoryCapacity int    `yaml:"history_capacity" json:"history_capacity"`
	Autosave        bool   `yaml:"autosave" json:"autosave"`
	// SeedSample starts from the sample schema when nothing is saved.
	SeedSample bool `yaml:"seed_sample" json:"seed_sample"`
}

// CanvasConfig sizes rendered images
type CanvasConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr        string   `yaml:"addr" json:"addr"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode" json:"mode"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Store: store.Config{
			Type:        "file",
			Path:        ".erdcanvas",
			DialTimeout: 5 * time.Second,
		},
		Editor: EditorConfig{
			Key:             "schema-editor-data",
			HistoryCapacity: 50,
			Autosave:        false,
			SeedSample:      true,
		},
		Canvas: CanvasConfig{
			Width:  1200,
			Height: 800,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
			Mode:        "release",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then environment variables. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.LoadYAML(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadYAML overlays YAML data onto c
func (c *Config) LoadYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// ApplyEnv overlays ERDCANVAS_* environment variables onto c
func (c *Config) ApplyEnv() error {
	c.Store.Type = getEnv("ERDCANVAS_STORE_TYPE", c.Store.Type)
	c.Store.Path = getEnv("ERDCANVAS_STORE_PATH", c.Store.Path)
	c.Store.Addr = getEnv("ERDCANVAS_REDIS_ADDR", c.Store.Addr)
	c.Store.Password = getEnv("ERDCANVAS_REDIS_PASSWORD", c.Store.Password)
	c.Store.Namespace = getEnv("ERDCANVAS_REDIS_NAMESPACE", c.Store.Namespace)
	c.Editor.Key = getEnv("ERDCANVAS_KEY", c.Editor.Key)
	c.Server.Addr = getEnv("ERDCANVAS_ADDR", c.Server.Addr)
	c.Server.Mode = getEnv("ERDCANVAS_GIN_MODE", c.Server.Mode)
	if origins := os.Getenv("ERDCANVAS_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitAndTrim(origins, ",")
	}

	var err error
	if c.Store.DB, err = getEnvInt("ERDCANVAS_REDIS_DB", c.Store.DB); err != nil {
		return err
	}
	if c.Editor.HistoryCapacity, err = getEnvInt("ERDCANVAS_HISTORY_CAPACITY", c.Editor.HistoryCapacity); err != nil {
		return err
	}
	if c.Canvas.Width, err = getEnvInt("ERDCANVAS_CANVAS_WIDTH", c.Canvas.Width); err != nil {
		return err
	}
	if c.Canvas.Height, err = getEnvInt("ERDCANVAS_CANVAS_HEIGHT", c.Canvas.Height); err != nil {
		return err
	}
	if c.Editor.Autosave, err = getEnvBool("ERDCANVAS_AUTOSAVE", c.Editor.Autosave); err != nil {
		return err
	}
	if c.Editor.SeedSample, err = getEnvBool("ERDCANVAS_SEED_SAMPLE", c.Editor.SeedSample); err != nil {
		return err
	}
	return nil
}

// Validate checks the values Load cannot repair
func (c *Config) Validate() error {
	if c.Store.Type == "" {
		return fmt.Errorf("store type is required")
	}
	if c.Editor.Key == "" {
		return fmt.Errorf("editor key is required")
	}
	if c.Editor.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.Editor.HistoryCapacity)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode: %s", c.Server.Mode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitAndTrim(str, sep string) []string {
	parts := strings.Split(str, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
