// Package config loads planner-server settings from defaults, an optional
// YAML file and PLANNER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PLANNER_ELEVATION_BASE_URL.
const EnvPrefix = "PLANNER"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Elevation ElevationConfig `mapstructure:"elevation"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Fleet     FleetConfig     `mapstructure:"fleet"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// ElevationConfig points at an Open-Meteo compatible elevation API.
type ElevationConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	ChunkSize  int           `mapstructure:"chunk_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type AnalysisConfig struct {
	LineOfSightPolicy   string  `mapstructure:"los_policy"`
	UnrangedCeilingKm   float64 `mapstructure:"unranged_ceiling_km"`
	DefaultFrequencyGHz float64 `mapstructure:"default_frequency_ghz"`
}

type FleetConfig struct {
	Path string `mapstructure:"path"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_addr", ":50051")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "route-link-planner")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("elevation.base_url", "https://api.open-meteo.com")
	v.SetDefault("elevation.chunk_size", 100)
	v.SetDefault("elevation.timeout", 10*time.Second)
	v.SetDefault("elevation.max_retries", 3)

	v.SetDefault("analysis.los_policy", "fresnel")
	v.SetDefault("analysis.unranged_ceiling_km", 1000.0)
	v.SetDefault("analysis.default_frequency_ghz", 2.4)

	v.SetDefault("fleet.path", filepath.Join("configs", "fleet.yaml"))

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "route-analyses")
}

// Load reads configuration. An empty path searches ./configs/planner.yaml;
// a missing file there is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("planner")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Env overrides arrive as one comma-separated string.
	cfg.Kafka.Brokers = splitList(strings.Join(cfg.Kafka.Brokers, ","))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PathFromEnv returns PLANNER_CONFIG_PATH, or "" when unset.
func PathFromEnv() string {
	return os.Getenv(EnvPrefix + "_CONFIG_PATH")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Elevation.ChunkSize <= 0 {
		return fmt.Errorf("elevation.chunk_size must be positive, got %d", c.Elevation.ChunkSize)
	}
	if c.Elevation.MaxRetries < 0 {
		return fmt.Errorf("elevation.max_retries must not be negative, got %d", c.Elevation.MaxRetries)
	}
	if c.Analysis.DefaultFrequencyGHz <= 0 {
		return fmt.Errorf("analysis.default_frequency_ghz must be positive, got %v", c.Analysis.DefaultFrequencyGHz)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka.enabled requires brokers and topic")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
