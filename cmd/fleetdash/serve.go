package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/fleetdash/pkg/metrics"
)

const (
	FlagAddr         = "addr"
	FlagRefreshEvery = "refresh-every"
)

const shutdownTimeout = 10 * time.Second

// GetServeMetricsCmd returns the command exposing Prometheus metrics while
// optionally refreshing every list on an interval.
func GetServeMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve /metrics, /health and /ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := cmd.Flags().GetString(FlagAddr)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagAddr, err)
			}
			every, err := cmd.Flags().GetDuration(FlagRefreshEvery)
			if err != nil {
				return fmt.Errorf("%s flag: %w", FlagRefreshEvery, err)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.MetricsAddr
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var ready metrics.ReadyFunc
			if a.redis != nil {
				ready = func(ctx context.Context) error {
					return a.redis.Ping(ctx).Err()
				}
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           metrics.NewMux(ready),
				ReadHeaderTimeout: 5 * time.Second,
			}

			if every > 0 {
				team, err := a.team()
				if err != nil {
					return err
				}
				refreshDone := make(chan struct{})
				go func() {
					defer close(refreshDone)
					a.refreshLoop(ctx, team, every)
				}()
				defer func() {
					stop()
					<-refreshDone
				}()
			}

			serveErr := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", addr).Msg("Serving metrics")
				serveErr <- srv.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String(FlagAddr, "", "(optional) listen address, defaults to metrics_addr from config")
	cmd.Flags().Duration(FlagRefreshEvery, 0, "(optional) refresh every list on this interval, 0 disables")

	return cmd
}

// refreshLoop reloads all lists until ctx is done. Failures are logged and
// retried on the next tick.
func (a *app) refreshLoop(ctx context.Context, team string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if err := a.stores.RefreshAll(ctx, team); err != nil && ctx.Err() == nil {
			a.logger.Warn().Err(err).Str("team", team).Msg("Refresh failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
