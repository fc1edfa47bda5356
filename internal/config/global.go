package config

import (
	"os"
	"path/filepath"
)

// GlobalConfigDir returns the directory for global sitetrack configuration.
// It uses $XDG_CONFIG_HOME/sitetrack if set, otherwise ~/.config/sitetrack.
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitetrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sitetrack")
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

// LoadGlobal loads the global config file.
// If the file does not exist, it returns a zero-value Config and nil error.
func LoadGlobal() (*Config, error) {
	return loadFile(GlobalConfigPath())
}
