package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
geometry:
  batch_size: 100
  max_openings_per_host: 15
  max_csg_operations_per_host: 10
  rtc_threshold: 10000
storage:
  backend: local
  base_path: /tmp/models
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Geometry.BatchSize != 100 {
		t.Errorf("batch size = %d, want 100", cfg.Geometry.BatchSize)
	}
	if cfg.Storage.BasePath != "/tmp/models" {
		t.Errorf("base path = %q", cfg.Storage.BasePath)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Geometry.BatchSize != 25 {
		t.Errorf("batch size = %d, want default 25", cfg.Geometry.BatchSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IFCGEOM_BATCH_SIZE", "7")
	t.Setenv("IFCGEOM_SEQUENTIAL", "1")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Geometry.BatchSize != 7 {
		t.Errorf("batch size = %d, want 7", cfg.Geometry.BatchSize)
	}
	if !cfg.Geometry.Sequential {
		t.Error("sequential should be set")
	}
	if cfg.Geometry.Workers() != 1 {
		t.Errorf("workers = %d, want 1 in sequential mode", cfg.Geometry.Workers())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero batch size", func(c *Config) { c.Geometry.BatchSize = 0 }},
		{"negative rtc", func(c *Config) { c.Geometry.RTCThreshold = -1 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = "s3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
