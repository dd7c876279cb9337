// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads the adstudio configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gg/text"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/adstudio/canvas"
	"github.com/gogpu/adstudio/collab"
	"github.com/gogpu/adstudio/export"
	"github.com/gogpu/adstudio/server"
)

// Environment variables that override file values.
const (
	EnvAPIURL      = "ADSTUDIO_API_URL"
	EnvRemoveBgKey = "REMOVE_BG_API_KEY"
	EnvPort        = "PORT"
	EnvLogLevel    = "LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Canvas   canvas.Size  `yaml:"canvas"`
	Client   ClientConfig `yaml:"client"`
	Server   ServerConfig `yaml:"server"`
	Export   ExportConfig `yaml:"export"`
}

// ClientConfig configures the collaborator client used by the editor.
// An empty APIURL keeps the services in process.
type ClientConfig struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

// ServerConfig configures the collaborator server.
type ServerConfig struct {
	Listen         string `yaml:"listen"`
	StaticDir      string `yaml:"static_dir"`
	PublicURL      string `yaml:"public_url"`
	RemoveBgAPIKey string `yaml:"remove_bg_api_key"`
	RemoveBgURL    string `yaml:"remove_bg_url"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
}

// ExportConfig configures rasterization.
type ExportConfig struct {
	Dir           string `yaml:"dir"`
	FontPath      string `yaml:"font_path"`
	Interpolation string `yaml:"interpolation"`
	Concurrency   int    `yaml:"concurrency"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Canvas:   canvas.DefaultSize,
		Client: ClientConfig{
			Timeout: collab.DefaultTimeout,
			Retries: collab.DefaultRetries,
			Backoff: collab.DefaultBackoff,
		},
		Server: ServerConfig{
			Listen:      server.DefaultListen,
			StaticDir:   server.DefaultStaticDir,
			PublicURL:   server.DefaultPublicURL,
			RemoveBgURL: server.DefaultRemoveBgURL,
			MaxUploadMB: server.DefaultMaxUpload >> 20,
		},
		Export: ExportConfig{
			Dir:           ".",
			Interpolation: "bilinear",
			Concurrency:   export.DefaultConcurrency,
		},
	}
}

// Load returns the defaults merged with the file at path (if path is not
// empty) and the environment, validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from the environment. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok {
		c.Client.APIURL = v
	}
	if v, ok := lookup(EnvRemoveBgKey); ok {
		c.Server.RemoveBgAPIKey = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		c.Server.Listen = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Canvas.W <= 0 || c.Canvas.H <= 0 {
		return fmt.Errorf("canvas: width and height must be > 0")
	}
	if c.Client.Timeout < 0 || c.Client.Retries < 0 || c.Client.Backoff < 0 {
		return fmt.Errorf("client: timeout, retries and backoff must be >= 0")
	}
	if c.Server.StaticDir == "" {
		return fmt.Errorf("server: static_dir is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server: max_upload_mb must be > 0")
	}
	if c.Export.Concurrency <= 0 {
		return fmt.Errorf("export: concurrency must be > 0")
	}
	switch strings.ToLower(c.Export.Interpolation) {
	case "", "nearest", "bilinear", "bicubic":
	default:
		return fmt.Errorf("export: unsupported interpolation %q (use nearest, bilinear or bicubic)", c.Export.Interpolation)
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.Server.MaxUploadMB) << 20 }

// ServerOptions returns the server section as a server.Config.
func (c *Config) ServerOptions() server.Config {
	return server.Config{
		StaticDir:      c.Server.StaticDir,
		PublicURL:      c.Server.PublicURL,
		RemoveBgAPIKey: c.Server.RemoveBgAPIKey,
		RemoveBgURL:    c.Server.RemoveBgURL,
		MaxUploadBytes: c.MaxUploadBytes(),
		Canvas:         c.Canvas,
	}
}

// NewClient returns the collaborator client, or nil when no API URL is
// configured.
func (c *Config) NewClient() *collab.Client {
	if c.Client.APIURL == "" {
		return nil
	}
	return collab.NewClient(c.Client.APIURL,
		collab.WithCallTimeout(c.Client.Timeout),
		collab.WithRetries(c.Client.Retries, c.Client.Backoff))
}

// ExportOptions returns the exporter options of the export section. A
// configured font file is loaded here.
func (c *Config) ExportOptions() ([]export.Option, error) {
	opts := []export.Option{
		export.WithInterpolation(export.ParseInterpolation(strings.ToLower(c.Export.Interpolation))),
		export.WithConcurrency(c.Export.Concurrency),
	}
	if c.Export.FontPath != "" {
		src, err := text.NewFontSourceFromFile(c.Export.FontPath)
		if err != nil {
			return nil, fmt.Errorf("export: font %s: %w", c.Export.FontPath, err)
		}
		opts = append(opts, export.WithFontSource(src))
	}
	return opts, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return slog.Level(n), nil
	}
	return 0, fmt.Errorf("log_level: unknown level %q", s)
}
