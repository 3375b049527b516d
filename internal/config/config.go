/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gocollage/internal/board"
	"gocollage/internal/layout"
	applog "gocollage/internal/log"
)

// AppConfig is the user configuration persisted as YAML in the user scope.
// Environment variables (optionally from a .env file) override it at runtime
// and are never written back.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Layout        LayoutConfig  `yaml:"layout"`
	Export        ExportConfig  `yaml:"export"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// LayoutConfig holds the engine and canvas constants.
type LayoutConfig struct {
	MaxAttempts          int     `yaml:"max_attempts"`
	Boundary             bool    `yaml:"boundary"`
	ZoomStep             float64 `yaml:"zoom_step"`
	InitialScale         float64 `yaml:"initial_scale"`
	ResolveWhileDragging bool    `yaml:"resolve_while_dragging"`
	SnapThreshold        float64 `yaml:"snap_threshold"`
}

type ExportConfig struct {
	Formats []string `yaml:"formats"`
	Markers bool     `yaml:"markers"`
	Scale   float64  `yaml:"scale"`
}

// BackendConfig points at the optional Postgres archive. Empty DSN disables it.
type BackendConfig struct {
	DSN       string `yaml:"dsn"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Listen    string `yaml:"listen"`
	Secret    string `yaml:"secret"`
	URL       string `yaml:"url"` // archive server used by the remote commands
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Layout: LayoutConfig{
			MaxAttempts:  layout.DefaultMaxAttempts,
			Boundary:     true,
			ZoomStep:     1.1,
			InitialScale: 0.25,
		},
		Export:  ExportConfig{Formats: []string{"png"}, Scale: 1},
		Backend: BackendConfig{TimeoutMs: 15000, Listen: ":8080", URL: "http://localhost:8080"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "GCL_CONFIG"
	EnvMaxAttempts   = "GCL_MAX_ATTEMPTS"
	EnvBoundary      = "GCL_BOUNDARY"
	EnvZoomStep      = "GCL_ZOOM_STEP"
	EnvDragResolve   = "GCL_RESOLVE_WHILE_DRAGGING"
	EnvBackendDSN    = "GCL_BACKEND_DSN"
	EnvBackendSecret = "GCL_BACKEND_SECRET"
	EnvBackendURL    = "GCL_BACKEND_URL"
	EnvExportMarkers = "GCL_EXPORT_MARKERS"
	EnvLogLevel      = applog.EnvLevel
	EnvLogFormat     = applog.EnvFormat
	EnvLogSource     = applog.EnvSource
	EnvLogFile       = applog.EnvFile
)

// ConfigPath returns the per-user config file path. GCL_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCollage")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCollage")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "gocollage")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gocollage")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment. Existing variables are kept; missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Load reads the config file if present, applies defaults and merges environment overrides.
// A malformed file is reported but the defaults plus env are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
}

// Save writes the config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Layout.MaxAttempts > 0 {
		dst.Layout.MaxAttempts = src.Layout.MaxAttempts
	}
	// booleans are copied so an explicit false in the file persists
	dst.Layout.Boundary = src.Layout.Boundary
	dst.Layout.ResolveWhileDragging = src.Layout.ResolveWhileDragging
	if src.Layout.ZoomStep > 1 {
		dst.Layout.ZoomStep = src.Layout.ZoomStep
	}
	if src.Layout.InitialScale > 0 {
		dst.Layout.InitialScale = src.Layout.InitialScale
	}
	if src.Layout.SnapThreshold > 0 {
		dst.Layout.SnapThreshold = src.Layout.SnapThreshold
	}
	if len(src.Export.Formats) > 0 {
		dst.Export.Formats = append([]string(nil), src.Export.Formats...)
	}
	dst.Export.Markers = src.Export.Markers
	if src.Export.Scale > 0 {
		dst.Export.Scale = src.Export.Scale
	}
	if s := strings.TrimSpace(src.Backend.DSN); s != "" {
		dst.Backend.DSN = s
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	if s := strings.TrimSpace(src.Backend.Listen); s != "" {
		dst.Backend.Listen = s
	}
	if s := strings.TrimSpace(src.Backend.Secret); s != "" {
		dst.Backend.Secret = s
	}
	if s := strings.TrimSpace(src.Backend.URL); s != "" {
		dst.Backend.URL = s
	}
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMaxAttempts)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Layout.MaxAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBoundary)); v != "" {
		cfg.Layout.Boundary = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvZoomStep)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 1 {
			cfg.Layout.ZoomStep = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDragResolve)); v != "" {
		cfg.Layout.ResolveWhileDragging = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportMarkers)); v != "" {
		cfg.Export.Markers = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendSecret)); v != "" {
		cfg.Backend.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"layout.max_attempts":           EnvMaxAttempts,
	"layout.boundary":               EnvBoundary,
	"layout.zoom_step":              EnvZoomStep,
	"layout.resolve_while_dragging": EnvDragResolve,
	"export.markers":                EnvExportMarkers,
	"backend.dsn":                   EnvBackendDSN,
	"backend.secret":                EnvBackendSecret,
	"backend.url":                   EnvBackendURL,
	"logging.level":                 EnvLogLevel,
	"logging.format":                EnvLogFormat,
	"logging.source":                EnvLogSource,
	"logging.file":                  EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// EngineOptions converts the layout section into engine options.
func (l LayoutConfig) EngineOptions() layout.Options {
	return layout.Options{MaxAttempts: l.MaxAttempts, Boundary: l.Boundary}
}

// BoardOptions converts the layout section into board options.
func (l LayoutConfig) BoardOptions() board.Options {
	o := board.DefaultOptions()
	o.Layout = l.EngineOptions()
	if l.ZoomStep > 1 {
		o.ZoomStep = l.ZoomStep
	}
	if l.InitialScale > 0 {
		o.InitialScale = l.InitialScale
	}
	o.ResolveWhileDragging = l.ResolveWhileDragging
	o.SnapThreshold = l.SnapThreshold
	return o
}

// LogOptions converts the logging section into logger options.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
