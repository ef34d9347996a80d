package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Elevation.ChunkSize != 100 {
		t.Fatalf("chunk size = %d, want 100", cfg.Elevation.ChunkSize)
	}
	if cfg.Elevation.BaseURL != "https://api.open-meteo.com" {
		t.Fatalf("base url = %q", cfg.Elevation.BaseURL)
	}
	if cfg.Analysis.LineOfSightPolicy != "fresnel" {
		t.Fatalf("los policy = %q, want fresnel", cfg.Analysis.LineOfSightPolicy)
	}
	if cfg.Analysis.DefaultFrequencyGHz != 2.4 {
		t.Fatalf("default frequency = %v, want 2.4", cfg.Analysis.DefaultFrequencyGHz)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Kafka.Enabled {
		t.Fatalf("kafka should be disabled by default")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	yaml := `
server:
  http_addr: ":18080"
elevation:
  chunk_size: 50
  timeout: 3s
analysis:
  los_policy: slope
kafka:
  enabled: true
  topic: analyses
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PLANNER_ELEVATION_MAX_RETRIES", "7")
	t.Setenv("PLANNER_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":18080" {
		t.Fatalf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Elevation.ChunkSize != 50 || cfg.Elevation.Timeout != 3*time.Second {
		t.Fatalf("elevation = %+v", cfg.Elevation)
	}
	if cfg.Elevation.MaxRetries != 7 {
		t.Fatalf("max retries = %d, want env override 7", cfg.Elevation.MaxRetries)
	}
	if cfg.Analysis.LineOfSightPolicy != "slope" {
		t.Fatalf("los policy = %q, want slope", cfg.Analysis.LineOfSightPolicy)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %q", cfg.Kafka.Brokers)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk", func(c *Config) { c.Elevation.ChunkSize = 0 }},
		{"negative retries", func(c *Config) { c.Elevation.MaxRetries = -1 }},
		{"zero frequency", func(c *Config) { c.Analysis.DefaultFrequencyGHz = 0 }},
		{"ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate accepted %s", tc.name)
			}
		})
	}
}
