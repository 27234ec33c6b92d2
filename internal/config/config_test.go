package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	require.Equal(t, DefaultMaxResultRows, cfg.MaxResultRows)
	require.Equal(t, DefaultTripTable, cfg.TripTable)
	require.Equal(t, DefaultAddr, cfg.Addr)
	require.Empty(t, cfg.SmallCSV)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BIKESHARE_MAX_RESULT_ROWS", "42")
	t.Setenv("BIKESHARE_TRIP_TABLE", "divvy_data")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	require.Equal(t, 42, cfg.MaxResultRows)
	require.Equal(t, "divvy_data", cfg.TripTable)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bikeshare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\npreview_rows: 3\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 3, cfg.PreviewRows)
}

func TestLoad_RejectsNonPositiveRowCap(t *testing.T) {
	t.Setenv("BIKESHARE_MAX_RESULT_ROWS", "0")

	_, err := Load(New(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "max_result_rows")
}
