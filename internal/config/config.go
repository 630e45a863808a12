package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "campaignpulse/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. CAMPAIGN_ANALYSIS_CLUSTERS.
const EnvPrefix = "CAMPAIGN"

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig holds the knobs of the cleaning and analysis engines
type AnalysisConfig struct {
	Clusters          int     `yaml:"clusters" envconfig:"CLUSTERS" validate:"gte=1,lte=100"`
	Seed              uint64  `yaml:"seed" envconfig:"SEED"`
	MaxIterations     int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" validate:"gte=1"`
	Tolerance         float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	SignificanceLevel float64 `yaml:"significance_level" envconfig:"SIGNIFICANCE_LEVEL" validate:"gt=0,lt=1"`
	ReferenceDate     string  `yaml:"reference_date" envconfig:"REFERENCE_DATE" validate:"omitempty,datetime=2006-01-02"`
	ChunkSize         int     `yaml:"chunk_size" envconfig:"CHUNK_SIZE" validate:"gte=1"`
	Parallel          bool    `yaml:"parallel" envconfig:"PARALLEL"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
	InputFile string `yaml:"input_file" envconfig:"INPUT_FILE"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the reference date format
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfigError("config validation failed", err).
				WithContext("fields", strings.Join(fields, ", "))
		}
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// Reference returns the instant recency is measured from. An unset
// reference date falls back to now.
func (a AnalysisConfig) Reference(now time.Time) (time.Time, error) {
	if a.ReferenceDate == "" {
		return now, nil
	}
	t, err := time.Parse(time.DateOnly, a.ReferenceDate)
	if err != nil {
		return time.Time{}, apperrors.NewConfigError("invalid reference date", err).
			WithContext("reference_date", a.ReferenceDate)
	}
	return t, nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Clusters:          DefaultClusters,
			Seed:              DefaultSeed,
			MaxIterations:     DefaultMaxIterations,
			Tolerance:         DefaultTolerance,
			SignificanceLevel: DefaultSignificanceLevel,
			ChunkSize:         DefaultChunkSize,
			Parallel:          true,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/campaignpulse.log",
		},
		Paths: PathsConfig{
			BaseDir: ".",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
	}
}
