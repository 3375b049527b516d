/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the config at a temp file so tests never read the real user config.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.MaxAttempts != 50 || !cfg.Layout.Boundary || cfg.Layout.ZoomStep != 1.1 || cfg.Layout.InitialScale != 0.25 {
		t.Fatalf("unexpected layout defaults: %+v", cfg.Layout)
	}
	if cfg.Layout.ResolveWhileDragging {
		t.Fatalf("drag resolution must be off by default")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Layout.Boundary = false
	cfg.Layout.MaxAttempts = 12
	cfg.Export.Formats = []string{"pdf", "svg"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Layout.Boundary || got.Layout.MaxAttempts != 12 || len(got.Export.Formats) != 2 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestLoad_MalformedFileKeepsDefaults(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("layout: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Layout.MaxAttempts != 50 {
		t.Fatalf("defaults must survive a bad file: %+v", cfg.Layout)
	}
}

func TestEnvOverridesLayout(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMaxAttempts, "7")
	t.Setenv(EnvBoundary, "off")
	t.Setenv(EnvZoomStep, "1.25")
	t.Setenv(EnvDragResolve, "yes")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	l := cfg.Layout
	if l.MaxAttempts != 7 || l.Boundary || l.ZoomStep != 1.25 || !l.ResolveWhileDragging {
		t.Fatalf("env overrides not applied: %+v", l)
	}
	opts := l.EngineOptions()
	if opts.MaxAttempts != 7 || opts.Boundary {
		t.Fatalf("engine options mismatch: %+v", opts)
	}
	if name, ok := EnvOverrideFor("layout.boundary"); !ok || name != EnvBoundary {
		t.Fatalf("EnvOverrideFor(layout.boundary) = %q,%v", name, ok)
	}
	if _, ok := EnvOverrideFor("export.scale"); ok {
		t.Fatalf("export.scale has no env override")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gcl.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	lo := cfg.Logging.LogOptions()
	if lo.Level != "error" || lo.Format != "json" || !lo.AddSource || lo.File != "X:/gcl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", lo)
	}
}

func TestMergeIncludesBackendAndExport(t *testing.T) {
	dst := Defaults()
	src := AppConfig{
		Backend: BackendConfig{DSN: " postgres://u@h/db "},
		Export:  ExportConfig{Markers: true, Scale: 2},
		Layout:  LayoutConfig{Boundary: true, ZoomStep: 0.5},
	}
	mergeInto(&dst, &src)
	if dst.Backend.DSN != "postgres://u@h/db" || !dst.Export.Markers || dst.Export.Scale != 2 {
		t.Fatalf("fields not merged: %#v", dst)
	}
	if dst.Layout.ZoomStep != 1.1 {
		t.Fatalf("zoom step <= 1 must be ignored, got %v", dst.Layout.ZoomStep)
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("GCL_BACKEND_DSN=postgres://dotenv/db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvBackendDSN, "")
	_ = os.Unsetenv(EnvBackendDSN)
	LoadDotEnv(env, filepath.Join(dir, "missing.env"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.DSN != "postgres://dotenv/db" {
		t.Fatalf("dotenv value not applied: %q", cfg.Backend.DSN)
	}
}

func TestBackendEnvAndBoardOptions(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendSecret, "s3cret")
	t.Setenv(EnvBackendURL, "http://archive:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.Secret != "s3cret" || cfg.Backend.URL != "http://archive:9000" || cfg.Backend.Listen != ":8080" {
		t.Fatalf("backend = %#v", cfg.Backend)
	}
	if name, ok := EnvOverrideFor("backend.secret"); !ok || name != EnvBackendSecret {
		t.Fatalf("EnvOverrideFor(backend.secret) = %q, %v", name, ok)
	}

	cfg.Layout.SnapThreshold = 6
	cfg.Layout.ResolveWhileDragging = true
	o := cfg.Layout.BoardOptions()
	if !o.Layout.Boundary || o.Layout.MaxAttempts != cfg.Layout.MaxAttempts {
		t.Fatalf("layout options = %#v", o.Layout)
	}
	if o.ZoomStep != 1.1 || o.InitialScale != 0.25 || o.SnapThreshold != 6 || !o.ResolveWhileDragging {
		t.Fatalf("board options = %#v", o)
	}
}
