//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store.Backend != "file" || cfg.Store.Path != "verification_codes.json" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Store.FlushTimeout != 5*time.Second || cfg.Store.AutosaveInterval != 30*time.Second {
		t.Fatalf("unexpected timings: %+v", cfg.Store)
	}
	v := cfg.Variants
	if !v.Insertion || !v.Truncation || !v.EntryDate || !v.Combine || v.Substitution || v.DateDigits {
		t.Fatalf("unexpected variant classes: %+v", v)
	}
	if v.Max != 16 || v.MinPrefix != 3 {
		t.Fatalf("unexpected variant bounds: %+v", v)
	}
	if cfg.Limiter.Attempts != 5 || cfg.Limiter.Window != time.Minute {
		t.Fatalf("unexpected limiter: %+v", cfg.Limiter)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	src := `
log:
  level: debug
store:
  backend: Postgres
  flush_timeout: 2s
database:
  url: postgres://user:pw@localhost/pickup
variants:
  max: 8
  substitution: true
  combine: false
kiosk:
  id: gate-2
`
	cfg, err := Parse([]byte(src), true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Store.Backend != "postgres" || cfg.Store.FlushTimeout != 2*time.Second {
		t.Fatalf("store: %+v", cfg.Store)
	}
	if cfg.Store.AutosaveInterval != 30*time.Second {
		t.Fatalf("omitted fields keep defaults, got %v", cfg.Store.AutosaveInterval)
	}
	if cfg.Variants.Max != 8 || !cfg.Variants.Substitution || cfg.Variants.Combine || !cfg.Variants.Insertion {
		t.Fatalf("variants: %+v", cfg.Variants)
	}
	if cfg.Kiosk.ID != "gate-2" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected: kiosk=%q log=%+v", cfg.Kiosk.ID, cfg.Log)
	}
	if !cfg.Runtime.Dev {
		t.Fatal("dev flag not carried")
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"postgres without url": "store:\n  backend: postgres\n",
		"unknown backend":      "store:\n  backend: s3\n",
		"cap above ceiling":    "variants:\n  max: 40\n",
		"not yaml":             "store: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src), false); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("", false)
	if err != nil || cfg.Store.Backend != "file" {
		t.Fatalf("empty path should give defaults: %+v %v", cfg, err)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("missing file should fail, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path, false)
	if err != nil || cfg.Store.Backend != "memory" {
		t.Fatalf("LoadConfig: %+v %v", cfg, err)
	}
}
