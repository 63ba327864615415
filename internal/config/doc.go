// Package config loads runtime configuration from multiple sources (YAML files,
// JSONUTIL_ prefixed environment variables, CLI flags) with precedence: CLI
// flags > Environment variables > YAML config > Defaults. It exposes strongly
// typed settings for the HTTP service and the serialization facades.
package config
