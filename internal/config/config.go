// Package config loads llmtxt settings: defaults, then .llmtxt/config.yaml,
// then LLMTXT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Locations and prefixes.
const (
	DirName   = ".llmtxt"
	FileName  = "config.yaml"
	EnvPrefix = "LLMTXT"
)

// Config is the full llmtxt configuration.
type Config struct {
	DocRoot       string         `yaml:"doc_root" env:"DOC_ROOT"`
	DBPath        string         `yaml:"db_path" env:"DB_PATH"`
	PublicBaseURL string         `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	Owner         string         `yaml:"owner" env:"OWNER"`
	Lock          LockConfig     `yaml:"lock" env:"LOCK"`
	Backup        BackupConfig   `yaml:"backup" env:"BACKUP"`
	History       HistoryConfig  `yaml:"history" env:"HISTORY"`
	Pipeline      PipelineConfig `yaml:"pipeline" env:"PIPELINE"`
	Server        ServerConfig   `yaml:"server" env:"SERVER"`
	Log           LogConfig      `yaml:"log" env:"LOG"`
}

// LockConfig tunes the save lock.
type LockConfig struct {
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	StaleAfter   time.Duration `yaml:"stale_after" env:"STALE_AFTER"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// BackupConfig tunes backup reuse.
type BackupConfig struct {
	RecencyWindow time.Duration `yaml:"recency_window" env:"RECENCY_WINDOW"`
}

// HistoryConfig tunes history listing.
type HistoryConfig struct {
	ListLimit int `yaml:"list_limit" env:"LIST_LIMIT"`
}

// PipelineConfig points at the remote generation pipeline.
type PipelineConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	BatchSize         int           `yaml:"batch_size" env:"BATCH_SIZE"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// ServerConfig configures `llmtxt serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DocRoot: "public",
		DBPath:  filepath.Join(DirName, "history.db"),
		Owner:   "default",
		Lock: LockConfig{
			Timeout:      10 * time.Second,
			StaleAfter:   30 * time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Backup:  BackupConfig{RecencyWindow: 5 * time.Second},
		History: HistoryConfig{ListLimit: 50},
		Pipeline: PipelineConfig{
			Timeout:           120 * time.Second,
			BatchSize:         5,
			RequestsPerSecond: 2,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Path returns the config file location under dir.
func Path(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// LoadConfig reads .llmtxt/config.yaml from dir over the defaults, applies
// environment overrides and validates the result. A missing file is not an error.
func LoadConfig(dir string) (*Config, error) {
	return LoadFile(Path(dir))
}

// LoadFile is LoadConfig for an explicit file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), EnvPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes config.yaml to dir/.llmtxt.
func SaveConfig(dir string, cfg *Config) error {
	cfgDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", DirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(cfgDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.DocRoot) == "" {
		errs = append(errs, "doc_root is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, "db_path is required")
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"lock.timeout", c.Lock.Timeout},
		{"lock.stale_after", c.Lock.StaleAfter},
		{"lock.poll_interval", c.Lock.PollInterval},
		{"backup.recency_window", c.Backup.RecencyWindow},
		{"pipeline.timeout", c.Pipeline.Timeout},
	}
	for _, f := range durations {
		if f.d <= 0 {
			errs = append(errs, f.name+" must be positive")
		}
	}
	if c.History.ListLimit <= 0 {
		errs = append(errs, "history.list_limit must be positive")
	}
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, "pipeline.batch_size must be positive")
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		errs = append(errs, "pipeline.requests_per_second must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Resolve makes relative doc_root and db_path absolute against dir.
func (c *Config) Resolve(dir string) {
	if !filepath.IsAbs(c.DocRoot) {
		c.DocRoot = filepath.Join(dir, c.DocRoot)
	}
	if !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
}

// setFieldsFromEnv walks struct fields with an env tag, nesting prefixes.
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, key); err != nil {
				return err
			}
			continue
		}

		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
