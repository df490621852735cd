package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
	"github.com/eugenenazirov/pack-fulfillment/internal/storage"
)

const (
	defaultPort             = "8080"
	defaultRateLimitRPS     = 25.0
	defaultRateLimitBurst   = 50
	defaultLogLevel         = "info"
	defaultDatabasePath     = "./packs.db"
	defaultBatchConcurrency = 4
	defaultMaxBatchSize     = 100
	defaultEnvFile          = ".env"

	// StorageMemory keeps pack sizes in process memory.
	StorageMemory = "memory"
	// StorageSQLite persists pack sizes in a SQLite database.
	StorageSQLite = "sqlite"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	InitialPackSizes     []int
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
	StorageDriver        string
	DatabasePath         string
	MaxHorizon           int
	CalculationTimeout   time.Duration
	BatchConcurrency     int
	MaxBatchSize         int
	MetricsEnabled       bool
	CORSAllowedOrigins   []string
}

// yamlConfig represents the YAML configuration file structure. Pointer fields
// distinguish "absent" from an explicit zero value.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	PackSizes            []int          `yaml:"pack_sizes"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	LogLevel             string         `yaml:"log_level"`
	RateLimit            yamlRateLimit  `yaml:"rate_limit"`
	Storage              yamlStorage    `yaml:"storage"`
	Calculator           yamlCalculator `yaml:"calculator"`
	Metrics              yamlMetrics    `yaml:"metrics"`
	CORS                 yamlCORS       `yaml:"cors"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlStorage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type yamlCalculator struct {
	MaxHorizon       *int   `yaml:"max_horizon"`
	Timeout          string `yaml:"timeout"`
	BatchConcurrency *int   `yaml:"batch_concurrency"`
	MaxBatchSize     *int   `yaml:"max_batch_size"`
}

type yamlMetrics struct {
	Enabled *bool `yaml:"enabled"`
}

type yamlCORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        string
	Port           *string
	PackSizesStr   *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
	StorageDriver  *string
	DatabasePath   *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envFile := defaultEnvFile
	if overrides != nil && overrides.EnvFile != "" {
		envFile = overrides.EnvFile
	}
	if err := loadDotEnv(envFile, overrides != nil && overrides.EnvFile != ""); err != nil {
		return Config{}, err
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// YAML overrides environment variables
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		InitialPackSizes:     storage.DefaultPackSizes(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		StorageDriver:        StorageMemory,
		DatabasePath:         defaultDatabasePath,
		MaxHorizon:           calculator.DefaultMaxHorizon,
		CalculationTimeout:   5 * time.Second,
		BatchConcurrency:     defaultBatchConcurrency,
		MaxBatchSize:         defaultMaxBatchSize,
		MetricsEnabled:       true,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// loadDotEnv populates the process environment from a dotenv file without
// overriding variables that are already set. A missing file is only an error
// when it was requested explicitly.
func loadDotEnv(path string, required bool) error {
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if len(yamlCfg.PackSizes) > 0 {
		cfg.InitialPackSizes = yamlCfg.PackSizes
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"calculator.timeout", yamlCfg.Calculator.Timeout, &cfg.CalculationTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.Storage.Driver != "" {
		cfg.StorageDriver = yamlCfg.Storage.Driver
	}

	if yamlCfg.Storage.Path != "" {
		cfg.DatabasePath = yamlCfg.Storage.Path
	}

	if yamlCfg.Calculator.MaxHorizon != nil {
		cfg.MaxHorizon = *yamlCfg.Calculator.MaxHorizon
	}

	if yamlCfg.Calculator.BatchConcurrency != nil {
		cfg.BatchConcurrency = *yamlCfg.Calculator.BatchConcurrency
	}

	if yamlCfg.Calculator.MaxBatchSize != nil {
		cfg.MaxBatchSize = *yamlCfg.Calculator.MaxBatchSize
	}

	if yamlCfg.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *yamlCfg.Metrics.Enabled
	}

	if len(yamlCfg.CORS.AllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = yamlCfg.CORS.AllowedOrigins
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if rawSizes := env("PACK_SIZES"); rawSizes != "" {
		sizes, err := parsePackSizes(rawSizes)
		if err != nil {
			return fmt.Errorf("PACK_SIZES: %w", err)
		}
		cfg.InitialPackSizes = sizes
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if driver := env("STORAGE_DRIVER"); driver != "" {
		cfg.StorageDriver = driver
	}

	if path := env("DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}

	if horizon := env("MAX_HORIZON"); horizon != "" {
		value, err := strconv.Atoi(horizon)
		if err != nil {
			return fmt.Errorf("MAX_HORIZON: %w", err)
		}
		cfg.MaxHorizon = value
	}

	if timeout := env("CALCULATION_TIMEOUT"); timeout != "" {
		value, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("CALCULATION_TIMEOUT: %w", err)
		}
		cfg.CalculationTimeout = value
	}

	if workers := env("BATCH_CONCURRENCY"); workers != "" {
		value, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("BATCH_CONCURRENCY: %w", err)
		}
		cfg.BatchConcurrency = value
	}

	if enabled := env("METRICS_ENABLED"); enabled != "" {
		value, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = value
	}

	if origins := env("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.PackSizesStr != nil && *overrides.PackSizesStr != "" {
		sizes, err := parsePackSizes(*overrides.PackSizesStr)
		if err != nil {
			return fmt.Errorf("parse pack sizes: %w", err)
		}
		cfg.InitialPackSizes = sizes
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.StorageDriver != nil && *overrides.StorageDriver != "" {
		cfg.StorageDriver = *overrides.StorageDriver
	}

	if overrides.DatabasePath != nil && *overrides.DatabasePath != "" {
		cfg.DatabasePath = *overrides.DatabasePath
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if len(cfg.InitialPackSizes) == 0 {
		return fmt.Errorf("pack sizes cannot be empty")
	}
	switch cfg.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if cfg.DatabasePath == "" {
			return fmt.Errorf("database path is required for the sqlite storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.MaxHorizon <= 0 {
		return fmt.Errorf("max horizon must be > 0")
	}
	if cfg.CalculationTimeout <= 0 {
		return fmt.Errorf("calculation timeout must be > 0")
	}
	if cfg.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be > 0")
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be > 0")
	}
	return nil
}

// parsePackSizes parses a comma-separated string of pack sizes into a slice of integers.
// It validates that all values are positive integers.
func parsePackSizes(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		if value <= 0 {
			return nil, fmt.Errorf("pack size must be positive, got %d", value)
		}
		sizes = append(sizes, value)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no pack sizes provided")
	}
	return sizes, nil
}

// ParsePackSizes exposes the comma-separated pack size parser to command-line tools.
func ParsePackSizes(raw string) ([]int, error) {
	return parsePackSizes(raw)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
