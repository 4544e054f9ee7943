package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultSettingsDir is used when no settings file has been loaded
const DefaultSettingsDir = "./.scout"

// BaseSettingsDir returns the directory holding the active settings file
func BaseSettingsDir() string {
	// config.path overrides the lookup, mostly for tests
	if configPath := viper.GetString("config.path"); configPath != "" {
		return configPath
	}

	currentConfig := viper.ConfigFileUsed()
	if currentConfig == "" {
		return DefaultSettingsDir
	}
	return filepath.Dir(currentConfig)
}

func BuildSettingsPath(target string) string {
	return filepath.Join(BaseSettingsDir(), target)
}

// DefaultSettingsFile is where `scout` writes a fresh settings file
func DefaultSettingsFile() string {
	return filepath.Join(DefaultSettingsDir, "settings.yaml")
}
