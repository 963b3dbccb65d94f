package config

import (
	"context"
	"fmt"
	"os"

	"nday-analyzer/src/analysis/core"
	"nday-analyzer/src/helpers"
	"nday-analyzer/src/models"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDBConnectionString = "NDAY_DB_DSN"
	EnvRedisAddr          = "NDAY_REDIS_ADDR"
)

// DefaultLookaheadPresets are the day counts offered to presentation layers.
var DefaultLookaheadPresets = []int{1, 3, 5, 7, 14, 30, 90, 180, 365}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file at configPath, applies defaults and
// environment overrides, then validates. An empty path yields the defaults.
func NewConfig(configPath string) (*Config, error) {
	var modelConfig models.MConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, helpers.NewConfigurationError(err, "failed to read config file '%s'", configPath)
		}
		if err := yaml.Unmarshal(data, &modelConfig); err != nil {
			return nil, helpers.NewConfigurationError(err, "failed to parse config from YAML")
		}
	}

	config := &Config{MConfig: &modelConfig}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c.MConfig); err != nil {
		return helpers.NewConfigurationError(err, "failed to apply defaults")
	}

	if len(c.Sources) == 0 {
		c.Sources = []models.MSourceConfig{{Name: "yahoo"}}
	}
	for i := range c.Sources {
		if err := defaults.Set(&c.Sources[i]); err != nil {
			return helpers.NewConfigurationError(err, "failed to apply defaults to source %d", i)
		}
	}

	if len(c.Analysis.LookaheadPresets) == 0 {
		c.Analysis.LookaheadPresets = append([]int(nil), DefaultLookaheadPresets...)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	if dsn := os.Getenv(EnvDBConnectionString); dsn != "" {
		c.Storage.DBConnectionString = dsn
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.Cache.RedisAddr = addr
	}
}

// -----------------------------------------------------------------------------

// Validate checks the `validate:` tags, then the rules that span fields.
func (c *Config) Validate() error {
	if err := helpers.ValidateStruct(context.Background(), c.MConfig); err != nil {
		return helpers.NewConfigurationError(err, "config validation failed")
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return helpers.NewConfigurationError(nil, "database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return helpers.NewConfigurationError(nil, "db_connection_string (or %s) is required for postgres", EnvDBConnectionString)
		}
	}

	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return helpers.NewConfigurationError(nil, "redis_addr is required for the redis cache backend")
	}

	if c.GrpcPort > 0 && c.GrpcPort == c.Port {
		return helpers.NewConfigurationError(nil, "grpc_port must differ from port (%d)", c.Port)
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, src := range c.Sources {
		if _, dup := seen[src.Name]; dup {
			return helpers.NewConfigurationError(nil, "duplicate source name '%s'", src.Name)
		}
		seen[src.Name] = struct{}{}
	}

	a := c.Analysis
	if a.DropThresholdMin <= 0 || a.DropThresholdMin > a.DropThresholdMax || a.DropThresholdMax > 100 {
		return helpers.NewConfigurationError(nil, "invalid drop threshold range [%v, %v]", a.DropThresholdMin, a.DropThresholdMax)
	}
	if a.DropThresholdStep <= 0 {
		return helpers.NewConfigurationError(nil, "drop_threshold_step must be positive")
	}
	for _, days := range a.LookaheadPresets {
		if days <= 0 {
			return helpers.NewConfigurationError(nil, "lookahead preset %d must be positive", days)
		}
	}
	if err := core.ValidateParams(a.Defaults); err != nil {
		return helpers.NewConfigurationError(err, "invalid analysis defaults")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
