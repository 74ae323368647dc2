// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"loanledger/pkg/constants"
)

// Configuration holds all configuration for loanledger.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Sweep   SweepConfig   `yaml:"sweep,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend,omitempty"` // file, redis, postgres, memory
	File     FileStorage    `yaml:"file,omitempty"`
	Redis    RedisStorage   `yaml:"redis,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// FileStorage configures the JSON file backend.
type FileStorage struct {
	Path string `yaml:"path,omitempty"`
}

// RedisStorage configures the redis backend.
type RedisStorage struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// ServerConfig holds HTTP API configuration options.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Address string `yaml:"address,omitempty"`
}

// SweepConfig holds the scheduled delinquency sweep options.
type SweepConfig struct {
	Enabled     bool   `yaml:"enabled,omitempty"`
	Schedule    string `yaml:"schedule,omitempty"` // cron spec, e.g. @daily
	HorizonDays int    `yaml:"horizonDays,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills in defaults for any option left unset.
func (conf *Configuration) ApplyDefaults() {
	if conf.Storage.Backend == "" {
		conf.Storage.Backend = constants.StorageBackendFile
	}
	if conf.Storage.File.Path == "" {
		conf.Storage.File.Path = constants.DefaultDataFile
	}
	if conf.Server.Address == "" {
		conf.Server.Address = constants.DefaultServerAddress
	}
	if conf.Sweep.Schedule == "" {
		conf.Sweep.Schedule = constants.DefaultSweepSchedule
	}
	if conf.Sweep.HorizonDays <= 0 {
		conf.Sweep.HorizonDays = constants.DefaultSweepHorizonDays
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
}

// ValidateConfiguration checks the configuration for problems and returns
// any warnings; a non-nil error means the configuration is unusable.
func (conf *Configuration) ValidateConfiguration() ([]string, error) {
	var warnings []string

	switch conf.Storage.Backend {
	case constants.StorageBackendFile, "memory":
	case constants.StorageBackendRedis:
		if conf.Storage.Redis.Addr == "" {
			return warnings, fmt.Errorf("storage backend redis requires storage.redis.addr")
		}
	case constants.StorageBackendPostgres:
		if conf.Storage.Postgres.DSN == "" {
			return warnings, fmt.Errorf("storage backend postgres requires storage.postgres.dsn")
		}
	default:
		return warnings, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}

	switch conf.Output.Format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
	default:
		return warnings, fmt.Errorf("invalid output format %q; use %s or %s",
			conf.Output.Format, constants.OutputFormatPretty, constants.OutputFormatCSV)
	}

	if conf.Storage.Backend == "memory" {
		warnings = append(warnings, "memory storage backend loses all data on exit")
	}
	if conf.Sweep.Enabled && !conf.Server.Enabled {
		warnings = append(warnings, "sweep.enabled has no effect without server.enabled; the CLI run exits after printing")
	}

	return warnings, nil
}
