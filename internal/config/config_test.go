package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "festdir.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "festdir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: "0.0.0.0:9090"
week_start: Monday
festivals_url: "https://example.com/data/festivals.json"
log_level: DEBUG
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9090", cfg.Listen)
	require.Equal(t, "monday", cfg.WeekStart)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, DefaultTimezone, cfg.Timezone)
	require.Equal(t, DefaultRefresh, cfg.RefreshCron)
	require.Equal(t, DefaultSnapshotW, cfg.Snapshot.Width)
	require.Equal(t, "/", cfg.Snapshot.Page)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"bad timezone": "timezone: Mars/Olympus\n",
		"bad level":    "log_level: loud\n",
		"bad listen":   "listen: nowhere\n",
		"bad format":   "log_format: xml\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "festdir.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			require.Contains(t, err.Error(), "config: invalid")
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "festdir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "festdir.yaml")
	cfg := DefaultConfig()
	cfg.VenuesURL = ""
	cfg.Snapshot.Page = "/?month=2025-10"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/?month=2025-10", loaded.Snapshot.Page)
	require.Empty(t, loaded.VenuesURL)
}

func TestSaveErrors(t *testing.T) {
	require.Error(t, Save("", DefaultConfig()))
	require.Error(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil))
	_, err := Load("")
	require.Error(t, err)
}
