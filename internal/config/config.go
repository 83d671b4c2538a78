// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// RedisConfig holds the Redis connection settings. When SentinelAddrs
// is set the client connects through Sentinel using MasterName.
type RedisConfig struct {
	Address       string   `mapstructure:"address"`
	MasterName    string   `mapstructure:"masterName"`
	SentinelAddrs []string `mapstructure:"sentinelAddrs"`
	PoolSize      int      `mapstructure:"poolSize"`
	MinIdleConns  int      `mapstructure:"minIdleConns"`
	UseTLS        bool     `mapstructure:"useTls"`
}

// LogConfig holds the logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the full server configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Log    LogConfig    `mapstructure:"log"`
}

// Load reads configuration from an optional YAML file and TACTICS_*
// environment variables, falling back to defaults. path may be empty,
// in which case only defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.masterName", "")
	v.SetDefault("redis.sentinelAddrs", []string{})
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.useTls", false)

	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
