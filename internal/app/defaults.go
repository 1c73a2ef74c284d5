package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - MIXSHARE_CONFIG_PATH: config file location (default: ~/.config/mixshare.toml)
//   - MIXSHARE_HOME: base directory for mixshare data (default: ~/.local/share/mixshare)
//   - MIXSHARE_LOG_LEVEL: minimum level written to the log (default: info)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"log_level":   getLogLevel(),
	}, nil
}

// getConfigPath returns the config file path, checking MIXSHARE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/mixshare.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("MIXSHARE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "mixshare.toml"), nil
}

// getBaseDir returns the base directory for mixshare data, checking MIXSHARE_HOME env var first,
// then falling back to the XDG default ~/.local/share/mixshare.
func getBaseDir() (string, error) {
	if path := os.Getenv("MIXSHARE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "mixshare"), nil
}

func getLogLevel() string {
	if level := os.Getenv("MIXSHARE_LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}
