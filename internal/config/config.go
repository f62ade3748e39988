// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Backend          string        `yaml:"backend"` // file | postgres | memory
	Path             string        `yaml:"path"`    // snapshot file for the file backend
	FlushTimeout     time.Duration `yaml:"flush_timeout"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LimiterConfig struct {
	Attempts int           `yaml:"attempts"` // verify attempts per kiosk per window
	Window   time.Duration `yaml:"window"`
}

type AuditConfig struct {
	Path string `yaml:"path"` // JSON-lines activity log; "-" writes to stderr
}

type VariantsConfig struct {
	Max          int  `yaml:"max"`
	MinPrefix    int  `yaml:"min_prefix"`
	Insertion    bool `yaml:"insertion"`
	Substitution bool `yaml:"substitution"`
	Truncation   bool `yaml:"truncation"`
	DateDigits   bool `yaml:"date_digits"`
	EntryDate    bool `yaml:"entry_date"`
	Combine      bool `yaml:"combine"`
}

type KioskConfig struct {
	ID string `yaml:"id"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Limiter  LimiterConfig  `yaml:"limiter"`
	Audit    AuditConfig    `yaml:"audit"`
	Variants VariantsConfig `yaml:"variants"`
	Kiosk    KioskConfig    `yaml:"kiosk"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Variants: VariantsConfig{
			Insertion:  true,
			Truncation: true,
			EntryDate:  true,
			Combine:    true,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads the YAML file at path. A missing file is an error; an
// empty path yields Default().
func LoadConfig(path string, dev bool) (*Config, error) {
	if path == "" {
		cfg := Default()
		cfg.Runtime.Dev = dev
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse decodes YAML on top of Default() so omitted sections keep their
// defaults, then validates.
func Parse(b []byte, dev bool) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "verification_codes.json"
	}
	cfg.Store.FlushTimeout = normalizeDuration(cfg.Store.FlushTimeout, 5*time.Second)
	cfg.Store.AutosaveInterval = normalizeDuration(cfg.Store.AutosaveInterval, 30*time.Second)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Limiter.Attempts <= 0 {
		cfg.Limiter.Attempts = 5
	}
	cfg.Limiter.Window = normalizeDuration(cfg.Limiter.Window, time.Minute)
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "activity.log"
	}
	if cfg.Variants.Max <= 0 {
		cfg.Variants.Max = 16
	}
	if cfg.Variants.MinPrefix <= 0 {
		cfg.Variants.MinPrefix = 3
	}
	if cfg.Kiosk.ID == "" {
		cfg.Kiosk.ID = "front-desk"
	}
}

// Validate performs minimal validation.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file", "memory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("store.backend %q is not one of file|postgres|memory", c.Store.Backend)
	}
	if c.Variants.Max > 16 {
		return fmt.Errorf("variants.max %d exceeds the ceiling of 16", c.Variants.Max)
	}
	return nil
}

func normalizeDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
