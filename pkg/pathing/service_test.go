package pathing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultDirs(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvConfigDir, "")
	require.Equal(t, "/var/lib/amshan_reader", GetDataDir())
	require.Equal(t, "/etc/amshan_reader", GetConfigDir())
	require.Equal(t, "/var/lib/amshan_reader/amshan-meter.db", GetMeterDbPath())
}

func TestEnsureDirsWithOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(EnvConfigDir, filepath.Join(root, "etc"))

	require.NoError(t, EnsureDirs())
	for _, dir := range []string{"data", "etc"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}
