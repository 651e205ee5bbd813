package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/internal/config"
	"github.com/Sternrassler/fleetdash/pkg/client"
	"github.com/Sternrassler/fleetdash/pkg/fleet"
	"github.com/Sternrassler/fleetdash/pkg/logging"
)

// app holds the wired dependencies of one command run.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	redis  *redis.Client
	api    *client.Client
	stores *fleet.Stores
	closer []func() error
}

// setup loads the configuration and wires an app logging to stderr.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newApp(cmd, cfg, nil)
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagConfig, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString(FlagLogLevel); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("%s flag: %w", FlagLogLevel, err)
		}
		cfg.Log.Level = level
	}
	if pretty, _ := cmd.Flags().GetBool(FlagPretty); pretty {
		cfg.Log.Pretty = true
	}
	if team, _ := cmd.Flags().GetString(FlagTeam); team != "" {
		cfg.Team = team
	}
	return cfg, nil
}

// newApp wires the API client and list stores. logOutput overrides the log
// destination.
func newApp(cmd *cobra.Command, cfg *config.Config, logOutput io.Writer) (*app, error) {
	if logOutput == nil {
		logOutput = cmd.ErrOrStderr()
	}
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel(),
		Pretty: cfg.Log.Pretty,
		Output: logOutput,
	})

	a := &app{
		cfg:    cfg,
		logger: logging.NewLogger("cli"),
	}

	var err error
	a.redis, err = a.connectRedis(cmd.Context())
	if err != nil {
		return nil, err
	}

	a.api, err = client.New(cfg.ClientConfig(a.redis))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.closer = append(a.closer, a.api.Close)

	listLogger := logging.NewLogger("listquery")
	a.stores, err = fleet.NewStores(fleet.HTTPFetchers(a.api), cfg.ListOverrides(), &listLogger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create stores: %w", err)
	}

	return a, nil
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// client then runs without cache and shared rate limit state.
func (a *app) connectRedis(ctx context.Context) (*redis.Client, error) {
	opts, err := a.cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	if opts == nil {
		return nil, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		a.logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unavailable - running without cache")
		rc.Close()
		return nil, nil
	}

	a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	a.closer = append(a.closer, rc.Close)
	return rc, nil
}

// team returns the configured scope or an error when none is set.
func (a *app) team() (string, error) {
	if a.cfg.Team == "" {
		return "", fmt.Errorf("no team: set --%s, %s or team in the config file", FlagTeam, config.EnvTeam)
	}
	return a.cfg.Team, nil
}

// table resolves the entity argument and applies filter flags.
func (a *app) table(cmd *cobra.Command, entity string) (fleet.Table, error) {
	tbl, err := a.stores.Table(entity)
	if err != nil {
		return nil, err
	}
	if err := applyFilterFlags(cmd, tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}

func (a *app) logStats() {
	for _, s := range a.api.Stats().Snapshot() {
		a.logger.Debug().
			Str("resource", s.Resource).
			Int("requests", s.Requests).
			Float64("avg_latency_ms", s.AvgLatencyMs).
			Msg("Request stats")
	}
}

// Close releases connections in reverse order.
func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil {
			a.logger.Debug().Err(err).Msg("Close failed")
		}
	}
	a.closer = nil
}

// openLogFile returns the log destination for full-screen commands.
func openLogFile(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
