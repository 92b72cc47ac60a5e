package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the loja service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Search     SearchConfig     `yaml:"search"`
	Pagination PaginationConfig `yaml:"pagination"`
	Sync       SyncConfig       `yaml:"sync"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// DatabaseConfig locates the primary store
type DatabaseConfig struct {
	Path string `yaml:"path" default:"~/loja/data/loja.db" validate:"required"`
}

// SearchConfig locates the search index
type SearchConfig struct {
	Path string `yaml:"path" default:"~/loja/data/search.db" validate:"required"`
}

// PaginationConfig bounds page sizes accepted from clients
type PaginationConfig struct {
	DefaultSize int `yaml:"default_size" default:"20" validate:"gt=0"`
	MaxSize     int `yaml:"max_size" default:"2000" validate:"gtefield=DefaultSize"`
}

// SyncConfig tunes how index mirroring is retried and reconciled
type SyncConfig struct {
	Interval      time.Duration `yaml:"interval" default:"30s" validate:"gt=0"`
	BatchSize     int           `yaml:"batch_size" default:"100" validate:"gt=0"`
	RetryAttempts uint          `yaml:"retry_attempts" default:"3" validate:"gt=0"`
	RetryDelay    time.Duration `yaml:"retry_delay" default:"100ms"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level    string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Encoding string `yaml:"encoding" default:"json" validate:"oneof=json console"`
	Disable  bool   `yaml:"disable"`
}

// Environment variables that override values from the config file.
const (
	EnvDBPath    = "LOJA_DB_PATH"
	EnvIndexPath = "LOJA_INDEX_PATH"
	EnvPort      = "LOJA_PORT"
	EnvLogLevel  = "LOJA_LOG_LEVEL"
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		// defaults only fails on malformed tags, which is a programming error
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return c
}

// Load reads configuration from path, applying .env, environment overrides and defaults.
// An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvIndexPath); v != "" {
		c.Search.Path = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration against its declared rules
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), rule))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(failed, ", "))
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
