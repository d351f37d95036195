package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "hein-assist"

// AppPaths holds the per-user locations used by the client
type AppPaths struct {
	ConfigDir string // holds config.yaml and .env
	DataDir   string // holds the durable store
}

// DetectAppPaths resolves the config and data directories for the current OS
func DetectAppPaths() (AppPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var configBase, dataBase string
	switch runtime.GOOS {
	case "darwin":
		configBase = filepath.Join(home, "Library/Application Support")
		dataBase = configBase
	case "windows":
		configBase = os.Getenv("APPDATA")
		dataBase = os.Getenv("LOCALAPPDATA")
		if configBase == "" {
			configBase = filepath.Join(home, "AppData", "Roaming")
		}
		if dataBase == "" {
			dataBase = filepath.Join(home, "AppData", "Local")
		}
	default:
		configBase = os.Getenv("XDG_CONFIG_HOME")
		if configBase == "" {
			configBase = filepath.Join(home, ".config")
		}
		dataBase = os.Getenv("XDG_DATA_HOME")
		if dataBase == "" {
			dataBase = filepath.Join(home, ".local", "share")
		}
	}

	return AppPaths{
		ConfigDir: filepath.Join(configBase, appDirName),
		DataDir:   filepath.Join(dataBase, appDirName),
	}, nil
}

// ConfigFile returns the default YAML config path
func (p AppPaths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// EnvFile returns the default .env path
func (p AppPaths) EnvFile() string {
	return filepath.Join(p.ConfigDir, ".env")
}

// StorePath returns the default store location for a driver name
func (p AppPaths) StorePath(driver string) string {
	switch driver {
	case "pebble":
		return filepath.Join(p.DataDir, "pebble")
	default:
		return filepath.Join(p.DataDir, "hein.db")
	}
}
