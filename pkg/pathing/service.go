package pathing

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables overriding the default directories.
const (
	EnvDataDir   = "AMSHAN_DATA_DIR"
	EnvConfigDir = "AMSHAN_CONFIG_DIR"
)

// EnsureDirs creates the data and config directories. Called by the commands
// on startup.
func EnsureDirs() error {
	for _, dir := range []string{GetDataDir(), GetConfigDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func GetMeterDbPath() string {
	return filepath.Join(GetDataDir(), "amshan-meter.db")
}

func GetDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return "/var/lib/amshan_reader"
}

func GetConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return "/etc/amshan_reader"
}
