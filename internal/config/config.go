package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/quality"
)

// Config is the complete application configuration. Precedence is
// defaults, then the YAML file, then DQ_* environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" ignored:"true"`
}

// ServerConfig contains the dashboard HTTP server configuration.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration for the
// dashboard API.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig describes the run directory layout. All subdirectories
// hang off DataDir.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	RuleSetsFile string `yaml:"rule_sets_file" envconfig:"RULE_SETS_FILE"`
}

// Raw returns the directory holding the input CSVs.
func (p PathsConfig) Raw() string { return filepath.Join(p.DataDir, "raw") }

// Processed returns the directory for corrected and enriched CSVs.
func (p PathsConfig) Processed() string { return filepath.Join(p.DataDir, "processed") }

// Quality returns the directory for run reports and workbooks.
func (p PathsConfig) Quality() string { return filepath.Join(p.DataDir, "quality") }

// Logs returns the directory for log and audit files.
func (p PathsConfig) Logs() string { return filepath.Join(p.DataDir, "logs") }

// AuditFile returns the append-only audit log path.
func (p PathsConfig) AuditFile() string { return filepath.Join(p.Logs(), "audit.log") }

// EnsureDirectories creates the run directory tree.
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.Raw(), p.Processed(), p.Quality(), p.Logs()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pipeerrors.New(pipeerrors.CodeConfig, "config.EnsureDirectories",
				fmt.Errorf("cannot create %s: %w", dir, err))
		}
	}
	return nil
}

// PipelineConfig groups the correction, enrichment and alerting
// behavior. These are nested structures configured through YAML only.
type PipelineConfig struct {
	Correction quality.CorrectionOptions `yaml:"correction"`
	Enrichment EnrichmentConfig          `yaml:"enrichment"`
	Thresholds quality.AlertThresholds   `yaml:"thresholds"`
}

// EnrichmentConfig is the YAML shape of the enrichment stage options.
type EnrichmentConfig struct {
	CategoryRules    []quality.CategoryRule         `yaml:"category_rules"`
	CategoryFallback string                         `yaml:"category_fallback"`
	Geocode          map[string]quality.Coordinates `yaml:"geocode"`
}

// Options converts the configuration into enrichment stage options.
func (e EnrichmentConfig) Options() quality.EnrichmentOptions {
	return quality.EnrichmentOptions{
		CategoryRules:    e.CategoryRules,
		CategoryFallback: e.CategoryFallback,
	}
}

// Geocoder returns the static city lookup built from configuration.
func (e EnrichmentConfig) Geocoder() quality.Geocoder {
	return quality.StaticGeocoder(e.Geocode)
}

// Load builds the configuration from defaults, an optional YAML file
// and DQ_* environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pipeerrors.New(pipeerrors.CodeConfig, "config.Load",
				fmt.Errorf("cannot read %s: %w", path, err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, pipeerrors.New(pipeerrors.CodeConfig, "config.Load",
				fmt.Errorf("cannot parse %s: %w", path, err))
		}
	}

	if err := envconfig.Process("DQ", cfg); err != nil {
		return nil, pipeerrors.New(pipeerrors.CodeConfig, "config.Load",
			fmt.Errorf("environment override failed: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return pipeerrors.New(pipeerrors.CodeConfig, "config.Validate", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// findConfigFile probes the usual config file locations.
func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
		},
		Pipeline: PipelineConfig{
			Correction: quality.DefaultCorrectionOptions(),
			Enrichment: EnrichmentConfig{
				CategoryRules:    quality.DefaultEnrichmentOptions().CategoryRules,
				CategoryFallback: quality.DefaultEnrichmentOptions().CategoryFallback,
				Geocode: map[string]quality.Coordinates{
					"São Paulo":      {Latitude: -23.5505, Longitude: -46.6333},
					"Rio de Janeiro": {Latitude: -22.9068, Longitude: -43.1729},
					"Belo Horizonte": {Latitude: -19.9167, Longitude: -43.9345},
				},
			},
			Thresholds: quality.DefaultAlertThresholds(),
		},
	}
}
