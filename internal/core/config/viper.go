package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyServerHost           = "server.host"
	KeyServerPort           = "server.port"
	KeyServerMaxConnections = "server.max_connections"
	KeyServerRequestTimeout = "server.request_timeout"
	KeyServerMetricsAddr    = "server.metrics_addr"
	KeyDatabaseURL          = "database.url"
	KeySchemaFile           = "schema.file"
	KeyEngineFailFast       = "engine.fail_fast"
	KeyEngineStopOnFirst    = "engine.stop_on_first_error"
	KeyEngineNested         = "engine.nested"
	KeyEngineStrictLookups  = "engine.strict_lookups"
)

// EnvPrefix prefixes environment variables: server.port is CP_SERVER_PORT.
const EnvPrefix = "CP"

// LoadConfig loads configuration using viper.
// overrides > environment > config file > defaults precedence. overrides
// carries explicitly set CLI flags keyed by configuration key.
func LoadConfig(configPath string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyServerHost, d.Server.Host)
	v.SetDefault(KeyServerPort, d.Server.Port)
	v.SetDefault(KeyServerMaxConnections, d.Server.MaxConnections)
	v.SetDefault(KeyServerRequestTimeout, d.Server.RequestTimeout.String())
	v.SetDefault(KeyServerMetricsAddr, d.Server.MetricsAddr)
	v.SetDefault(KeyDatabaseURL, d.Database.URL)
	v.SetDefault(KeySchemaFile, d.Schema.File)
	v.SetDefault(KeyEngineFailFast, d.Engine.FailFast)
	v.SetDefault(KeyEngineStopOnFirst, d.Engine.StopOnFirstError)
	v.SetDefault(KeyEngineNested, d.Engine.Nested)
	v.SetDefault(KeyEngineStrictLookups, d.Engine.StrictLookups)

	// Bind environment variables with CP_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Credentials stay out of config files
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString(KeyServerHost),
			Port:           v.GetInt(KeyServerPort),
			MaxConnections: v.GetInt(KeyServerMaxConnections),
			RequestTimeout: v.GetDuration(KeyServerRequestTimeout),
			MetricsAddr:    v.GetString(KeyServerMetricsAddr),
		},
		Database: DatabaseConfig{URL: v.GetString(KeyDatabaseURL)},
		Schema:   SchemaConfig{File: v.GetString(KeySchemaFile)},
		Engine: EngineConfig{
			FailFast:         v.GetBool(KeyEngineFailFast),
			StopOnFirstError: v.GetBool(KeyEngineStopOnFirst),
			Nested:           v.GetBool(KeyEngineNested),
			StrictLookups:    v.GetBool(KeyEngineStrictLookups),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive connection and timeout values.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Schema.File == "" {
		return fmt.Errorf("schema file must be set")
	}
	return nil
}

// validateNoSecretsInConfig rejects database URLs carrying a password in
// the config file; they belong in CP_DATABASE_URL.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if !v.InConfig(KeyDatabaseURL) {
		return nil
	}
	u, err := url.Parse(v.GetString(KeyDatabaseURL))
	if err != nil {
		return fmt.Errorf("invalid database URL in config file: %w", err)
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return fmt.Errorf("database passwords not allowed in config files (use CP_DATABASE_URL environment variable)")
	}
	return nil
}
