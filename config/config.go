// Package config loads the dagcheck service configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file,
// and environment variables (DATABASE_URL, DAGCHECK_ADDR, DAGCHECK_LOG_LEVEL).
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/meikuraledutech/dagcheck"
	"github.com/meikuraledutech/dagcheck/logging"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvAddr        = "DAGCHECK_ADDR"
	EnvLogLevel    = "DAGCHECK_LOG_LEVEL"
)

// Config is the root of config.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	CORS       CORSConfig       `yaml:"cors"`
	Validation dagcheck.Options `yaml:"validation"`
	History    HistoryConfig    `yaml:"history"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	BodyLimit    int           `yaml:"body_limit"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// HistoryConfig controls recording of validation verdicts.
// History is on whenever a database URL is set; Enabled turns on the
// in-memory store when there is none.
type HistoryConfig struct {
	Enabled      bool `yaml:"enabled"`
	DefaultLimit int  `yaml:"default_limit"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:      ":8000",
			BodyLimit:    4 * 1024 * 1024,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowCredentials: true,
		},
		History: HistoryConfig{DefaultLimit: 50},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// HistoryEnabled reports whether validations should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.Database.URL != "" || c.History.Enabled
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logging.Info("Config", "No config file found at %s, using defaults", path)
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			logging.Info("Config", "Loaded configuration from %s", path)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabaseURL); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var err error
	if c.Server.Address == "" {
		err = multierr.Append(err, errors.New("server.address must not be empty"))
	}
	if c.Server.BodyLimit <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.body_limit must be positive, got %d", c.Server.BodyLimit))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		err = multierr.Append(err, errors.New("server timeouts must not be negative"))
	}
	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowOrigins, "*") {
		err = multierr.Append(err, errors.New("cors.allow_credentials cannot be combined with a wildcard origin"))
	}
	if c.History.DefaultLimit <= 0 {
		err = multierr.Append(err, fmt.Errorf("history.default_limit must be positive, got %d", c.History.DefaultLimit))
	}
	if _, lerr := logging.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}
	return err
}
