// Package config provides configuration management for checkpoint services.
package config

import (
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Schema   SchemaConfig
	Engine   EngineConfig
}

// ServerConfig holds configuration for the gRPC validation API.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MetricsAddr    string // empty disables the metrics endpoint
}

// DatabaseConfig locates the lookup store used by unique/exists rules.
// An empty URL runs without a lookup provider.
type DatabaseConfig struct {
	URL string
}

// SchemaConfig locates the YAML schema file.
type SchemaConfig struct {
	File string
}

// EngineConfig holds validator defaults.
type EngineConfig struct {
	FailFast         bool
	StopOnFirstError bool
	Nested           bool
	StrictLookups    bool
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
			MetricsAddr:    ":9090",
		},
		Schema: SchemaConfig{File: "schemas.yaml"},
		Engine: EngineConfig{FailFast: true},
	}
}
