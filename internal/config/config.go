// Package config loads the enrollment tool configuration.
//
// Priority: environment variables > config file > defaults. The defaults
// reproduce the two-trial, three-site setup the tool was first deployed with.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/example/enroll/internal/core/assignment"
	"github.com/example/enroll/internal/core/random"
	"github.com/example/enroll/internal/models"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "enroll.yaml"

// Storage drivers.
const (
	DriverCSV      = "csv"
	DriverXLSX     = "xlsx"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverSheetAPI = "sheetapi"
	DriverMemory   = "memory"
)

var drivers = []string{DriverCSV, DriverXLSX, DriverSQLite, DriverPostgres, DriverS3, DriverSheetAPI, DriverMemory}

// Config represents the enrollment tool configuration.
type Config struct {
	Arms       []string      `yaml:"arms"`
	Institutes []string      `yaml:"institutes"`
	Trials     []TrialConfig `yaml:"trials"`
	BlockSize  int           `yaml:"block_size"`
	Random     RandomConfig  `yaml:"random"`
	Storage    StorageConfig `yaml:"storage"`
	Log        LogConfig     `yaml:"log"`
}

// TrialConfig names one trial and its storage key.
type TrialConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RandomConfig seeds the per-session generator.
type RandomConfig struct {
	Seed      uint64 `yaml:"seed"`
	Generator string `yaml:"generator"` // mt19937 or pcg
}

// StorageConfig selects and configures the roster backend.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	DataDir  string         `yaml:"data_dir"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
	S3       S3Config       `yaml:"s3,omitempty"`
	SheetAPI SheetAPIConfig `yaml:"sheetapi,omitempty"`
}

// SQLiteConfig configures the sqlite driver.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"` // defaults to <data_dir>/enrollment.db
}

// PostgresConfig configures the postgres driver.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// S3Config configures the s3 driver.
type S3Config struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// SheetAPIConfig configures the sheetapi driver.
type SheetAPIConfig struct {
	BaseURL string            `yaml:"base_url,omitempty"`
	Token   string            `yaml:"token,omitempty"`
	Sheets  map[string]string `yaml:"sheets,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
}

// LogConfig configures the operator log.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Arms:       []string{"Arm 1", "Arm 2"},
		Institutes: []string{"세브란스병원", "일산병원", "아주대학교병원"},
		Trials: []TrialConfig{
			{ID: "trial_1", Name: "Trial 1 (COPD)"},
			{ID: "trial_2", Name: "Trial 2 (ILD)"},
		},
		BlockSize: assignment.DefaultBlockSize,
		Random: RandomConfig{
			Seed:      2024,
			Generator: random.GeneratorMT19937,
		},
		Storage: StorageConfig{
			Driver:  DriverCSV,
			DataDir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from path (or ENROLL_CONFIG, or DefaultPath) and
// environment variables. A missing file is only an error when the path was
// given explicitly.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("ENROLL_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = DefaultPath
		}
	}

	if err := loadFromFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("ENROLL_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ENROLL_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("ENROLL_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("ENROLL_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("ENROLL_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("ENROLL_SHEETAPI_URL"); v != "" {
		cfg.Storage.SheetAPI.BaseURL = v
	}
	if v := os.Getenv("ENROLL_SHEETAPI_TOKEN"); v != "" {
		cfg.Storage.SheetAPI.Token = v
	}
	if v := os.Getenv("ENROLL_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ENROLL_SEED %q: %w", v, err)
		}
		cfg.Random.Seed = seed
	}
	if v := os.Getenv("ENROLL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if len(c.Arms) != 2 {
		errs = multierror.Append(errs, fmt.Errorf("arms: exactly 2 arms required, got %d", len(c.Arms)))
	} else if c.Arms[0] == c.Arms[1] {
		errs = multierror.Append(errs, fmt.Errorf("arms: labels must differ, both are %q", c.Arms[0]))
	}
	for i, arm := range c.Arms {
		if strings.TrimSpace(arm) == "" {
			errs = multierror.Append(errs, fmt.Errorf("arms[%d]: empty label", i))
		}
	}

	if len(c.Institutes) == 0 {
		errs = multierror.Append(errs, errors.New("institutes: at least one institute required"))
	}
	seenInst := make(map[string]bool)
	for i, inst := range c.Institutes {
		if strings.TrimSpace(inst) == "" {
			errs = multierror.Append(errs, fmt.Errorf("institutes[%d]: empty name", i))
		}
		if seenInst[inst] {
			errs = multierror.Append(errs, fmt.Errorf("institutes[%d]: duplicate %q", i, inst))
		}
		seenInst[inst] = true
	}

	if len(c.Trials) == 0 {
		errs = multierror.Append(errs, errors.New("trials: at least one trial required"))
	}
	seenTrial := make(map[string]bool)
	for i, tr := range c.Trials {
		switch {
		case tr.ID == "":
			errs = multierror.Append(errs, fmt.Errorf("trials[%d]: id required", i))
		case strings.ContainsAny(tr.ID, `/\ `):
			errs = multierror.Append(errs, fmt.Errorf("trials[%d]: id %q must not contain slashes or spaces", i, tr.ID))
		case seenTrial[tr.ID]:
			errs = multierror.Append(errs, fmt.Errorf("trials[%d]: duplicate id %q", i, tr.ID))
		}
		seenTrial[tr.ID] = true
	}

	if c.BlockSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("block_size: must be positive, got %d", c.BlockSize))
	}

	if _, err := random.New(c.Random.Generator, c.Random.Seed); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("random: %w", err))
	}

	errs = multierror.Append(errs, c.Storage.validate()...)

	return errs.ErrorOrNil()
}

func (s StorageConfig) validate() []error {
	var errs []error
	known := false
	for _, d := range drivers {
		if s.Driver == d {
			known = true
		}
	}
	if !known {
		return append(errs, fmt.Errorf("storage.driver: unknown driver %q (want one of %s)", s.Driver, strings.Join(drivers, ", ")))
	}

	switch s.Driver {
	case DriverPostgres:
		if s.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn: required for postgres driver"))
		}
	case DriverS3:
		if s.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket: required for s3 driver"))
		}
	case DriverSheetAPI:
		if s.SheetAPI.BaseURL == "" {
			errs = append(errs, errors.New("storage.sheetapi.base_url: required for sheetapi driver"))
		}
	}
	return errs
}

// Scheme returns the allocation constants for the assignment engine.
func (c *Config) Scheme() assignment.Scheme {
	arms := make([]string, len(c.Arms))
	copy(arms, c.Arms)
	return assignment.Scheme{Arms: arms, BlockSize: c.BlockSize}
}

// TrialList returns the configured trials in order.
func (c *Config) TrialList() []models.Trial {
	trials := make([]models.Trial, len(c.Trials))
	for i, tr := range c.Trials {
		name := tr.Name
		if name == "" {
			name = tr.ID
		}
		trials[i] = models.Trial{ID: tr.ID, Name: name}
	}
	return trials
}

// SQLitePath returns the effective SQLite database path.
func (c *Config) SQLitePath() string {
	if c.Storage.SQLite.Path != "" {
		return c.Storage.SQLite.Path
	}
	return filepath.Join(c.Storage.DataDir, "enrollment.db")
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
