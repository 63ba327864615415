package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"PORT", "")
	t.Setenv(EnvPrefix+"ENGINE", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Engine != "binding" {
		t.Fatalf("expected binding engine, got %s", cfg.Engine)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.CSVSeparator != ',' || cfg.Indent != "  " || cfg.LogLevel != "info" {
		t.Fatalf("unexpected serialization defaults: %+v", cfg)
	}
	if cfg.MaxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("unexpected max body bytes: %d", cfg.MaxBodyBytes)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(EnvPrefix+"PORT", " 9000 ")
	t.Setenv(EnvPrefix+"ENGINE", "fast")
	t.Setenv(EnvPrefix+"WRITE_TIMEOUT", "3s")
	t.Setenv(EnvPrefix+"RATE_LIMIT_BURST", "7")
	t.Setenv(EnvPrefix+"ENABLE_REQUEST_LOGGING", "false")
	t.Setenv(EnvPrefix+"CSV_SEPARATOR", "tab")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.Engine != "fast" {
		t.Fatalf("expected fast engine, got %s", cfg.Engine)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.WriteTimeout)
	}
	if cfg.RateLimitBurst != 7 {
		t.Fatalf("unexpected burst: %d", cfg.RateLimitBurst)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled")
	}
	if cfg.CSVSeparator != '\t' {
		t.Fatalf("unexpected separator: %q", cfg.CSVSeparator)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeYAML(t, `
port: "7000"
write_timeout: 20s
enable_request_logging: false
max_body_bytes: 2048
rate_limit:
  rps: 0
  burst: 3
json:
  engine: lenient
  indent: "    "
  csv_separator: ";"
log:
  level: debug
`)
	t.Setenv(EnvPrefix+"PORT", "7100")
	t.Setenv(EnvPrefix+"ENGINE", "")
	t.Setenv(EnvPrefix+"RATE_LIMIT_BURST", "4")

	engine := "fast"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Engine: &engine})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7100" {
		t.Fatalf("environment should override YAML port, got %s", cfg.Port)
	}
	if cfg.Engine != "fast" {
		t.Fatalf("CLI should override YAML engine, got %s", cfg.Engine)
	}
	if cfg.RateLimitBurst != 4 {
		t.Fatalf("environment should override YAML burst, got %d", cfg.RateLimitBurst)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("YAML should be able to disable rate limiting, got %v", cfg.RateLimitRPS)
	}
	if cfg.WriteTimeout != 20*time.Second {
		t.Fatalf("unexpected write timeout: %s", cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled by YAML")
	}
	if cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected max body bytes: %d", cfg.MaxBodyBytes)
	}
	if cfg.Indent != "    " || cfg.CSVSeparator != ';' || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected json settings: %+v", cfg)
	}
}

func TestLoadYAMLOmittedFieldsKeepDefaults(t *testing.T) {
	path := writeYAML(t, "port: \"7000\"\n")

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("omitted enable_request_logging should keep the default")
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("omitted rate limit should keep defaults, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad duration", yaml: "write_timeout: soon\n"},
		{name: "bad separator", yaml: "json:\n  csv_separator: ab\n"},
		{name: "unknown engine", yaml: "json:\n  engine: gson\n"},
		{name: "negative rps", yaml: "rate_limit:\n  rps: -1\n"},
		{name: "indent not whitespace", yaml: "json:\n  indent: xx\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
		{name: "zero body", yaml: "max_body_bytes: 0\n"},
		{name: "bad env number", yaml: "port: \"1\"\n", env: map[string]string{EnvPrefix + "RATE_LIMIT_BURST": "many"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(&CLIOverrides{ConfigFile: writeYAML(t, tc.yaml)}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadValidationSentinel(t *testing.T) {
	rps := -2.0
	_, err := Load(&CLIOverrides{RateLimitRPS: &rps})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParseSeparator(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for raw, want := range map[string]rune{",": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'} {
			got, err := parseSeparator(raw)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", raw, err)
			}
			if got != want {
				t.Fatalf("parseSeparator(%q) = %q, want %q", raw, got, want)
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := parseSeparator(""); err == nil {
			t.Fatalf("expected error for empty separator")
		}
		if _, err := parseSeparator(";;"); err == nil {
			t.Fatalf("expected error for two characters")
		}
	})
}
