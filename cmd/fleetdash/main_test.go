package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/fleetdash/internal/config"
	"github.com/Sternrassler/fleetdash/internal/testutil"
	"github.com/Sternrassler/fleetdash/pkg/fleet"
)

func newTestAPI(t *testing.T) *testutil.MockAPI {
	t.Helper()

	api := testutil.NewMockAPI()
	t.Cleanup(api.Close)

	trips := make([]any, 0, 30)
	for i := 1; i <= 30; i++ {
		status := "scheduled"
		if i%2 == 0 {
			status = "completed"
		}
		trips = append(trips, fleet.Trip{
			ID:          fmt.Sprintf("t-%02d", i),
			RouteID:     "r-1",
			Status:      status,
			ScheduledAt: time.Date(2026, 3, i, 8, 0, 0, 0, time.UTC),
		})
	}
	api.SetDataset(fleet.ResourceTrips, testutil.Dataset{
		Items: trips,
		Match: func(item any, query map[string]string) bool {
			status := query[fleet.KeyStatus]
			return status == "" || item.(fleet.Trip).Status == status
		},
	})

	t.Setenv(config.EnvAPIURL, api.URL()+"/api")
	t.Setenv(config.EnvTeam, "acme")
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvConfigPath, "")

	return api
}

func execute(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--" + FlagLogLevel + "=disabled"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"list", "export", "browse", "serve-metrics", "invalidate"})

	for _, flag := range []string{FlagConfig, FlagLogLevel, FlagPretty, FlagTeam} {
		require.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestList_Page(t *testing.T) {
	newTestAPI(t)

	out, err := execute(context.Background(), "list", "trips", "--page", "2", "--page-size", "5")
	require.NoError(t, err)

	require.Contains(t, out, "t-06")
	require.Contains(t, out, "t-10")
	require.NotContains(t, out, "t-05")
	require.NotContains(t, out, "t-11")
	require.Contains(t, out, "5 of 30 records, page 2/6")
	for _, col := range fleet.TripColumns {
		require.Contains(t, out, col)
	}
}

func TestList_StatusFilter(t *testing.T) {
	api := newTestAPI(t)

	out, err := execute(context.Background(), "list", "trips", "--status", "completed", "--page-size", "100")
	require.NoError(t, err)

	require.Contains(t, out, "15 of 15 records, page 1/1, filters: status=completed")
	require.Contains(t, out, "t-02")
	require.NotContains(t, out, "t-01")
	require.Equal(t, "completed", api.GetLastQuery()[fleet.KeyStatus])
}

func TestList_ConfigOverride(t *testing.T) {
	newTestAPI(t)

	path := filepath.Join(t.TempDir(), "fleetdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entities:
  trips:
    page_size: 3
    mode: page
`), 0o600))

	out, err := execute(context.Background(), "list", "trips", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "3 of 30 records, page 1/10")
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown entity", args: []string{"list", "cargo"}, want: "cargo"},
		{name: "unknown filter", args: []string{"list", "trips", "--filter", "color=red"}, want: "color"},
		{name: "no status filter", args: []string{"list", "route-points", "--status", "x"}, want: "no status filter"},
		{name: "bad page", args: []string{"list", "trips", "--page", "0"}, want: FlagPage},
		{name: "missing entity", args: []string{"list"}, want: "accepts 1 arg"},
		{name: "bad log level", args: []string{"list", "trips", "--log-level", "loud"}, want: FlagLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestAPI(t)

			_, err := execute(context.Background(), tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestList_NoTeam(t *testing.T) {
	newTestAPI(t)
	t.Setenv(config.EnvTeam, "")

	_, err := execute(context.Background(), "list", "trips")
	require.ErrorContains(t, err, "no team")
}

func TestList_TeamFlag(t *testing.T) {
	api := newTestAPI(t)
	t.Setenv(config.EnvTeam, "")

	_, err := execute(context.Background(), "list", "trips", "--team", "other")
	require.NoError(t, err)
	require.Equal(t, 1, api.GetRequestCount())
}

func TestExport_JSONLines(t *testing.T) {
	newTestAPI(t)

	out, err := execute(context.Background(), "export", "trips", "--status", "completed", "--page-size", "4", "--concurrency", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 15)
	for i, line := range lines {
		var trip fleet.Trip
		require.NoError(t, json.Unmarshal([]byte(line), &trip))
		require.Equal(t, "completed", trip.Status)
		require.Equal(t, fmt.Sprintf("t-%02d", (i+1)*2), trip.ID)
	}
}

func TestExport_File(t *testing.T) {
	newTestAPI(t)
	path := filepath.Join(t.TempDir(), "trips.jsonl")

	out, err := execute(context.Background(), "export", "trips", "-o", path)
	require.NoError(t, err)
	require.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 30, strings.Count(string(data), "\n"))
}

func TestServeMetrics_RefreshUntilCancelled(t *testing.T) {
	api := newTestAPI(t)
	for _, resource := range fleet.Resources {
		if resource != fleet.ResourceTrips {
			api.SetDataset(resource, testutil.Dataset{})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := execute(ctx, "serve-metrics", "--addr", "127.0.0.1:0", "--refresh-every", "20ms")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return api.GetRequestCount() >= 2*len(fleet.Resources)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve-metrics did not stop")
	}
}

func TestInvalidate_RequiresRedis(t *testing.T) {
	newTestAPI(t)

	_, err := execute(context.Background(), "invalidate", "trips")
	require.ErrorContains(t, err, "no cache")
}

func TestRenderTable_Empty(t *testing.T) {
	out := renderTable(fleet.ClientColumns, fleet.Snapshot{})
	require.Contains(t, out, "0 of 0 records, page 1/1")
	require.Contains(t, out, "Name")
}
