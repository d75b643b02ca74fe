// Package config provides configuration management for the ifcgeom
// pipeline. It handles loading, validation, and management of settings
// from files and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is the root configuration for a pipeline run.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Geometry GeometryConfig `yaml:"geometry" json:"geometry"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// LoggingConfig controls the leveled logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
}

// GeometryConfig carries the knobs the geometry pipeline exposes at its
// boundary.
type GeometryConfig struct {
	// BatchSize is the number of elements emitted per streaming batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// MaxOpeningsPerHost skips void subtraction entirely for hosts with
	// more openings (complex curtain walls).
	MaxOpeningsPerHost int `yaml:"max_openings_per_host" json:"max_openings_per_host"`
	// MaxCSGOperationsPerHost bounds non-rectangular CSG per host.
	MaxCSGOperationsPerHost int `yaml:"max_csg_operations_per_host" json:"max_csg_operations_per_host"`
	// RTCThreshold is the coordinate magnitude, in model units, at
	// which relative-to-center rebasing engages.
	RTCThreshold float64 `yaml:"rtc_threshold" json:"rtc_threshold"`
	// UnitScaleOverride forces the model-unit-to-meter factor instead
	// of reading it from the file's IfcUnitAssignment. Zero means read
	// from the file.
	UnitScaleOverride float64 `yaml:"unit_scale_override" json:"unit_scale_override"`
	// WorkerPoolSize bounds parallel triangulation and batch
	// processing. Zero means one worker per CPU.
	WorkerPoolSize int `yaml:"worker_pool_size" json:"worker_pool_size"`
	// Sequential forces single-threaded processing regardless of
	// WorkerPoolSize.
	Sequential bool `yaml:"sequential" json:"sequential"`
}

// Workers resolves the effective worker count.
func (g *GeometryConfig) Workers() int {
	if g.Sequential {
		return 1
	}
	if g.WorkerPoolSize > 0 {
		return g.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// StorageConfig selects where model files are read from and results
// written to.
type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"` // local, s3, gcs, azure

	// BasePath is the local filesystem root for the local backend.
	BasePath string `yaml:"base_path" json:"base_path"`

	Bucket string `yaml:"bucket" json:"bucket"`
	Region string `yaml:"region" json:"region"`

	// Endpoint overrides the S3 endpoint for S3-compatible services
	// (MinIO, Spaces).
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-"`

	// CredentialsFile is a GCS credentials file path; empty uses
	// application default credentials.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	AccountName string `yaml:"account_name" json:"account_name"`
	AccountKey  string `yaml:"account_key" json:"-"`
	Container   string `yaml:"container" json:"container"`

	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Geometry: GeometryConfig{
			BatchSize:               25,
			MaxOpeningsPerHost:      15,
			MaxCSGOperationsPerHost: 10,
			RTCThreshold:            10000,
		},
		Storage: StorageConfig{
			Backend:       "local",
			BasePath:      ".",
			RetryAttempts: 3,
		},
		Metrics: MetricsConfig{
			Namespace: "ifcgeom",
		},
	}
}

// Load loads configuration from file or environment.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(path), ".yml") || strings.HasSuffix(strings.ToLower(path), ".yaml") {
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}

	return nil
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if level := os.Getenv("IFCGEOM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if backend := os.Getenv("IFCGEOM_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if bucket := os.Getenv("IFCGEOM_STORAGE_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if region := os.Getenv("IFCGEOM_STORAGE_REGION"); region != "" {
		c.Storage.Region = region
	}
	if endpoint := os.Getenv("IFCGEOM_STORAGE_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("IFCGEOM_ACCESS_KEY_ID"); key != "" {
		c.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("IFCGEOM_SECRET_ACCESS_KEY"); secret != "" {
		c.Storage.SecretAccessKey = secret
	}
	if creds := os.Getenv("IFCGEOM_CREDENTIALS_FILE"); creds != "" {
		c.Storage.CredentialsFile = creds
	}
	if account := os.Getenv("IFCGEOM_AZURE_ACCOUNT"); account != "" {
		c.Storage.AccountName = account
	}
	if key := os.Getenv("IFCGEOM_AZURE_KEY"); key != "" {
		c.Storage.AccountKey = key
	}
	if container := os.Getenv("IFCGEOM_AZURE_CONTAINER"); container != "" {
		c.Storage.Container = container
	}
	if batch := os.Getenv("IFCGEOM_BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil {
			c.Geometry.BatchSize = n
		}
	}
	if workers := os.Getenv("IFCGEOM_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Geometry.WorkerPoolSize = n
		}
	}
	if os.Getenv("IFCGEOM_SEQUENTIAL") == "1" {
		c.Geometry.Sequential = true
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if err := c.Geometry.Validate(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "local", "s3", "gcs", "azure":
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" || c.Storage.Backend == "gcs" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("bucket required for %s backend", c.Storage.Backend)
		}
	}
	if c.Storage.Backend == "azure" {
		if c.Storage.AccountName == "" || c.Storage.Container == "" {
			return fmt.Errorf("account name and container required for azure backend")
		}
	}
	if c.Storage.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be non-negative, got %d", c.Storage.RetryAttempts)
	}

	return nil
}

// Validate checks the geometry knobs for sane ranges.
func (g *GeometryConfig) Validate() error {
	if g.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", g.BatchSize)
	}
	if g.MaxOpeningsPerHost < 0 {
		return fmt.Errorf("max openings per host must be non-negative, got %d", g.MaxOpeningsPerHost)
	}
	if g.MaxCSGOperationsPerHost < 0 {
		return fmt.Errorf("max CSG operations per host must be non-negative, got %d", g.MaxCSGOperationsPerHost)
	}
	if g.RTCThreshold <= 0 {
		return fmt.Errorf("rtc threshold must be positive, got %g", g.RTCThreshold)
	}
	if g.UnitScaleOverride < 0 {
		return fmt.Errorf("unit scale override must be non-negative, got %g", g.UnitScaleOverride)
	}
	if g.WorkerPoolSize < 0 {
		return fmt.Errorf("worker pool size must be non-negative, got %d", g.WorkerPoolSize)
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
