package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing optional file is empty", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "none.yaml"), false)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Store != "" || cfg.RTol != nil || cfg.Tolerances != nil {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
		if cfg.Default() != tolerance.Default {
			t.Fatalf("Default() = %v", cfg.Default())
		}
	})

	t.Run("missing required file fails", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "none.yaml"), true); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("fields and overrides", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		writeFile(t, path, `
store: goldens.db
log_level: debug
rtol: 0.01
tolerances:
  linear_regression: {rtol: 0.001, atol: 0.000001}
report: out/report.json
`)
		cfg, err := LoadConfig(path, true)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Store != "goldens.db" || cfg.LogLevel != "debug" || cfg.Report != "out/report.json" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.ATol != nil {
			t.Fatalf("unset atol parsed as %v", *cfg.ATol)
		}
		want := tolerance.Tolerance{RTol: 0.01, ATol: tolerance.Default.ATol}
		if cfg.Default() != want {
			t.Fatalf("Default() = %v, want %v", cfg.Default(), want)
		}
		got := cfg.Tolerances.Lookup("linear_regression/diabetes/loss", tolerance.Exact)
		if got != (tolerance.Tolerance{RTol: 1e-3, ATol: 1e-6}) {
			t.Fatalf("override lookup = %v", got)
		}
	})

	t.Run("rejects bad values", func(t *testing.T) {
		for name, content := range map[string]string{
			"malformed.yaml": "store: [",
			"negative.yaml":  "atol: -1",
			"override.yaml":  "tolerances:\n  poly: {rtol: -0.5}",
		} {
			path := filepath.Join(dir, name)
			writeFile(t, path, content)
			if _, err := LoadConfig(path, false); err == nil {
				t.Fatalf("%s: expected error", name)
			}
		}
	})
}
