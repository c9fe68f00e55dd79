// Package config loads the application configuration with precedence
// environment > file > defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Host            string       `mapstructure:"host" validate:"required"`
	Port            int          `mapstructure:"port" validate:"gte=1,lte=65535"`
	RootDir         string       `mapstructure:"root_dir" validate:"required"`
	LogLevel        string       `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	ChunkSizeKB     int          `mapstructure:"chunk_size_kb" validate:"gte=1,lte=8192"`
	ReadOnly        bool         `mapstructure:"read_only"`
	DisableDotFiles bool         `mapstructure:"disable_dot_files"`
	OpsToken        string       `mapstructure:"ops_token"`
	Source          SourceConfig `mapstructure:"source"`
}

// SourceConfig selects where streamed file bodies come from.
type SourceConfig struct {
	Type     string `mapstructure:"type" validate:"oneof=local s3"`
	Bucket   string `mapstructure:"bucket" validate:"required_if=Type s3"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads configuration from the given file (or ./fsgate.yaml when path
// is empty), applies FSGATE_* environment overrides and validates the
// result. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8090)
	v.SetDefault("root_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("chunk_size_kb", 64)
	v.SetDefault("read_only", false)
	v.SetDefault("disable_dot_files", true)
	v.SetDefault("ops_token", "")
	v.SetDefault("source.type", "local")
	// Every key needs a default: AutomaticEnv only surfaces variables for
	// keys viper already knows about.
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.region", "")
	v.SetDefault("source.endpoint", "")

	v.SetEnvPrefix("FSGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("fsgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
