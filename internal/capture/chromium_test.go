package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"festdir/internal/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:9999"
	cfg.Snapshot.Page = "/?month=2025-10"

	opts, err := OptionsFromConfig(cfg, "")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9999/?month=2025-10", opts.URL)
	require.Equal(t, config.DefaultSnapshotPath, opts.OutputPath)
	require.Equal(t, 30*time.Second, opts.Timeout)

	opts, err = OptionsFromConfig(cfg, "/tmp/out.png")
	require.NoError(t, err)
	require.Equal(t, "/tmp/out.png", opts.OutputPath)

	_, err = OptionsFromConfig(nil, "")
	require.Error(t, err)
}

func TestNormalizeDefaults(t *testing.T) {
	opts := Options{URL: "http://127.0.0.1:8080/", OutputPath: "x.png"}
	require.NoError(t, opts.normalize())
	require.Equal(t, config.DefaultSnapshotW, opts.Width)
	require.Equal(t, config.DefaultSnapshotH, opts.Height)
	require.Equal(t, time.Duration(config.DefaultSnapshotSecs)*time.Second, opts.Timeout)
}

func TestCalendarPNGRequiresTarget(t *testing.T) {
	require.ErrorContains(t, CalendarPNG(context.Background(), Options{OutputPath: "x.png"}), "URL is required")
	require.ErrorContains(t, CalendarPNG(context.Background(), Options{URL: "http://x"}), "OutputPath is required")
}
