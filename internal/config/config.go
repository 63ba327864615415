package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxBodyBytes   = 1 << 20
	defaultIndent         = "  "
	defaultLogLevel       = "info"

	// EnvPrefix is prepended to every environment variable the loader reads.
	EnvPrefix = "JSONUTIL_"
)

// ErrInvalidConfig is returned when the merged configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxBodyBytes         int64

	Engine       string
	Indent       string
	CSVSeparator rune
	LogLevel     string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	MaxBodyBytes         *int64        `yaml:"max_body_bytes"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	JSON                 yamlJSON      `yaml:"json"`
	Log                  yamlLog       `yaml:"log"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// yamlJSON represents the serialization section in YAML.
type yamlJSON struct {
	Engine       string  `yaml:"engine"`
	Indent       *string `yaml:"indent"`
	CSVSeparator string  `yaml:"csv_separator"`
}

type yamlLog struct {
	Level string `yaml:"level"`
}

// envConfig lists the variables read from the environment, each prefixed with EnvPrefix.
type envConfig struct {
	Port                 *string        `env:"PORT"`
	ShutdownGracePeriod  *time.Duration `env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    *time.Duration `env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         *time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout          *time.Duration `env:"IDLE_TIMEOUT"`
	EnableRequestLogging *bool          `env:"ENABLE_REQUEST_LOGGING"`
	MaxBodyBytes         *int64         `env:"MAX_BODY_BYTES"`
	RateLimitRPS         *float64       `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       *int           `env:"RATE_LIMIT_BURST"`
	Engine               *string        `env:"ENGINE"`
	Indent               *string        `env:"INDENT"`
	CSVSeparator         *string        `env:"CSV_SEPARATOR"`
	LogLevel             *string        `env:"LOG_LEVEL"`
}

// CLIOverrides holds command-line flag overrides. Nil fields were not given.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	Engine         *string
	Indent         *string
	LogLevel       *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply environment variables (override YAML)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
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
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxBodyBytes:         defaultMaxBodyBytes,
		Engine:               jsonutil.EngineBinding,
		Indent:               defaultIndent,
		CSVSeparator:         ',',
		LogLevel:             defaultLogLevel,
	}
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

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *yamlCfg.MaxBodyBytes
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.JSON.Engine != "" {
		cfg.Engine = yamlCfg.JSON.Engine
	}
	if yamlCfg.JSON.Indent != nil {
		cfg.Indent = *yamlCfg.JSON.Indent
	}
	if yamlCfg.JSON.CSVSeparator != "" {
		sep, err := parseSeparator(yamlCfg.JSON.CSVSeparator)
		if err != nil {
			return fmt.Errorf("csv_separator: %w", err)
		}
		cfg.CSVSeparator = sep
	}
	if yamlCfg.Log.Level != "" {
		cfg.LogLevel = yamlCfg.Log.Level
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if e.Port != nil && strings.TrimSpace(*e.Port) != "" {
		cfg.Port = strings.TrimSpace(*e.Port)
	}
	setIf(&cfg.ShutdownGracePeriod, e.ShutdownGracePeriod)
	setIf(&cfg.ReadHeaderTimeout, e.ReadHeaderTimeout)
	setIf(&cfg.WriteTimeout, e.WriteTimeout)
	setIf(&cfg.IdleTimeout, e.IdleTimeout)
	setIf(&cfg.EnableRequestLogging, e.EnableRequestLogging)
	setIf(&cfg.MaxBodyBytes, e.MaxBodyBytes)
	setIf(&cfg.RateLimitRPS, e.RateLimitRPS)
	setIf(&cfg.RateLimitBurst, e.RateLimitBurst)
	setIf(&cfg.Engine, e.Engine)
	setIf(&cfg.Indent, e.Indent)
	setIf(&cfg.LogLevel, e.LogLevel)

	if e.CSVSeparator != nil {
		sep, err := parseSeparator(*e.CSVSeparator)
		if err != nil {
			return fmt.Errorf("%sCSV_SEPARATOR: %w", EnvPrefix, err)
		}
		cfg.CSVSeparator = sep
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	setIf(&cfg.RateLimitRPS, overrides.RateLimitRPS)
	setIf(&cfg.RateLimitBurst, overrides.RateLimitBurst)
	if overrides.Engine != nil && *overrides.Engine != "" {
		cfg.Engine = *overrides.Engine
	}
	setIf(&cfg.Indent, overrides.Indent)
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("%w: rate limit rps must be >= 0", ErrInvalidConfig)
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("%w: rate limit burst must be >= 0", ErrInvalidConfig)
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max body bytes must be > 0", ErrInvalidConfig)
	}
	if _, err := jsonutil.EngineByName(cfg.Engine); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if strings.TrimLeft(cfg.Indent, " \t") != "" {
		return fmt.Errorf("%w: indent %q must contain only spaces or tabs", ErrInvalidConfig, cfg.Indent)
	}
	if cfg.CSVSeparator == 0 || cfg.CSVSeparator == '"' || cfg.CSVSeparator == '\r' || cfg.CSVSeparator == '\n' || !utf8.ValidRune(cfg.CSVSeparator) {
		return fmt.Errorf("%w: csv separator %q is not usable", ErrInvalidConfig, cfg.CSVSeparator)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
	}
	return nil
}

// parseSeparator accepts a single character, or "tab" and "\t" for a tab.
func parseSeparator(raw string) (rune, error) {
	switch raw {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(raw) != 1 {
		return 0, fmt.Errorf("want a single character, got %q", raw)
	}
	r, _ := utf8.DecodeRuneInString(raw)
	return r, nil
}
