// Package config loads fleetdash settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/fleetdash/pkg/client"
	"github.com/Sternrassler/fleetdash/pkg/fleet"
	"github.com/Sternrassler/fleetdash/pkg/listquery"
	"github.com/Sternrassler/fleetdash/pkg/logging"
	"github.com/Sternrassler/fleetdash/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file.
const (
	EnvAPIURL   = "FLEETDASH_API_URL"
	EnvTeam     = "FLEETDASH_TEAM"
	EnvToken    = "FLEETDASH_TOKEN"
	EnvRedisURL = "REDIS_URL"
	EnvLogLevel = "LOG_LEVEL"

	// EnvConfigPath names the config file when --config is not given.
	EnvConfigPath = "FLEETDASH_CONFIG"
)

// DefaultUserAgent identifies fleetdash to the API.
const DefaultUserAgent = "fleetdash/0.1.0"

// Config is the complete runtime configuration.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	Team       string        `yaml:"team"`
	Token      string        `yaml:"token"`
	UserAgent  string        `yaml:"user_agent"`
	RedisURL   string        `yaml:"redis_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	Log         LogConfig               `yaml:"log"`
	Entities    map[string]EntityConfig `yaml:"entities"`
	Export      ExportConfig            `yaml:"export"`
	MetricsAddr string                  `yaml:"metrics_addr"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
	// File receives logs while the terminal browser owns the screen.
	File string `yaml:"file"`
}

// EntityConfig overrides one list's defaults.
type EntityConfig struct {
	PageSize int    `yaml:"page_size"`
	Mode     string `yaml:"mode"`
}

// ExportConfig tunes the batch exporter.
type ExportConfig struct {
	Concurrency int `yaml:"concurrency"`
	PageSize    int `yaml:"page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	export := pagination.DefaultConfig()
	return &Config{
		APIURL:     "http://localhost:3000/api",
		UserAgent:  DefaultUserAgent,
		Timeout:    15 * time.Second,
		MaxRetries: 0,
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
		Export: ExportConfig{
			Concurrency: export.MaxConcurrency,
			PageSize:    export.PageSize,
		},
		MetricsAddr: ":9090",
	}
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv(EnvAPIURL, c.APIURL)
	c.Team = getEnv(EnvTeam, c.Team)
	c.Token = getEnv(EnvToken, c.Token)
	c.RedisURL = getEnv(EnvRedisURL, c.RedisURL)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url is required"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0 (got %s)", c.Timeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must be >= 0 (got %d)", c.MaxRetries))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	for name, e := range c.Entities {
		if !isResource(name) {
			errs = append(errs, fmt.Errorf("entities: unknown list %q", name))
			continue
		}
		if e.PageSize < 0 {
			errs = append(errs, fmt.Errorf("entities.%s.page_size must be >= 0 (got %d)", name, e.PageSize))
		}
		if _, err := listquery.ParseMode(e.Mode); err != nil {
			errs = append(errs, fmt.Errorf("entities.%s.mode: %w", name, err))
		}
	}
	if c.Export.Concurrency < 0 || c.Export.PageSize < 0 {
		errs = append(errs, errors.New("export values must be >= 0"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogLevel returns the validated log level.
func (c *Config) LogLevel() logging.LogLevel {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// ClientConfig builds the API client configuration. redisClient may be nil.
func (c *Config) ClientConfig(redisClient *redis.Client) client.Config {
	cc := client.DefaultConfig(c.APIURL, c.UserAgent)
	cc.Token = c.Token
	cc.Redis = redisClient
	cc.MaxRetries = c.MaxRetries
	if c.Timeout > 0 {
		cc.Timeout = c.Timeout
	}
	return cc
}

// ListOverrides converts the entities section for fleet.NewStores.
func (c *Config) ListOverrides() map[string]fleet.ListOverride {
	out := make(map[string]fleet.ListOverride, len(c.Entities))
	for name, e := range c.Entities {
		out[name] = fleet.ListOverride{PageSize: e.PageSize, Mode: e.Mode}
	}
	return out
}

// PaginationConfig returns the exporter settings.
func (c *Config) PaginationConfig() pagination.Config {
	pc := pagination.DefaultConfig()
	if c.Export.Concurrency > 0 {
		pc.MaxConcurrency = c.Export.Concurrency
	}
	if c.Export.PageSize > 0 {
		pc.PageSize = c.Export.PageSize
	}
	if c.Timeout > 0 {
		pc.Timeout = c.Timeout
	}
	return pc
}

// RedisOptions parses RedisURL. It accepts a redis:// URL or a bare
// host:port. It returns nil when Redis is not configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if !strings.Contains(c.RedisURL, "://") {
		return &redis.Options{Addr: c.RedisURL}, nil
	}
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

func isResource(name string) bool {
	for _, r := range fleet.Resources {
		if r == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
