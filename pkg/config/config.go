package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Backend BackendConfig `mapstructure:"backend"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Display DisplayConfig `mapstructure:"display"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// BackendConfig describes how to reach the search assistant backend
type BackendConfig struct {
	URL        string        `mapstructure:"url"`
	Transport  string        `mapstructure:"transport"` // http or websocket
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"`
}

// ChatConfig holds the defaults applied to every submission
type ChatConfig struct {
	PersonaID    int      `mapstructure:"persona_id"`
	PromptID     int      `mapstructure:"prompt_id"`
	Sources      []string `mapstructure:"sources"`
	DocumentSets []string `mapstructure:"document_sets"`
	TimeRange    string   `mapstructure:"time_range"`
}

// DisplayConfig controls how transcripts are rendered in the terminal
type DisplayConfig struct {
	ShowDocuments bool   `mapstructure:"show_documents"`
	Highlight     bool   `mapstructure:"highlight"`
	Style         string `mapstructure:"style"`
	MaxDocuments  int    `mapstructure:"max_documents"`
}

const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.scout")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "scout"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	bindEnvironmentVariables()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(loaded); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}
	if err := validate(loaded); err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("backend.url", "http://localhost:8080")
	viper.SetDefault("backend.transport", TransportHTTP)
	viper.SetDefault("backend.api_key", "")
	viper.SetDefault("backend.timeout", "60s")

	viper.SetDefault("chat.persona_id", 0)
	viper.SetDefault("chat.prompt_id", 0)
	viper.SetDefault("chat.sources", []string{})
	viper.SetDefault("chat.document_sets", []string{})
	viper.SetDefault("chat.time_range", "")

	viper.SetDefault("display.show_documents", true)
	viper.SetDefault("display.highlight", true)
	viper.SetDefault("display.style", "monokai")
	viper.SetDefault("display.max_documents", 5)

	viper.SetDefault("logging.log_file", "./.scout/system.log")
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables binds SCOUT_ prefixed variables to viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("backend.url", "SCOUT_BACKEND_URL")
	viper.BindEnv("backend.transport", "SCOUT_BACKEND_TRANSPORT")
	viper.BindEnv("backend.api_key", "SCOUT_API_KEY")
	viper.BindEnv("backend.timeout", "SCOUT_BACKEND_TIMEOUT")
	viper.BindEnv("chat.persona_id", "SCOUT_PERSONA_ID")
	viper.BindEnv("chat.time_range", "SCOUT_TIME_RANGE")
	viper.BindEnv("display.style", "SCOUT_STYLE")
	viper.BindEnv("logging.log_file", "SCOUT_LOG_FILE")
	viper.BindEnv("logging.level", "SCOUT_LOG_LEVEL")
	viper.BindEnv("logging.preserve", "SCOUT_LOG_PRESERVE")
}

// processDurations converts string durations to time.Duration
func processDurations(c *Config) error {
	if c.Backend.TimeoutStr != "" {
		d, err := time.ParseDuration(c.Backend.TimeoutStr)
		if err != nil {
			return fmt.Errorf("invalid backend.timeout: %w", err)
		}
		c.Backend.Timeout = d
	} else if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 60 * time.Second
	}
	return nil
}

func validate(c *Config) error {
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url must be configured")
	}

	switch strings.ToLower(c.Backend.Transport) {
	case TransportHTTP, TransportWebSocket:
		c.Backend.Transport = strings.ToLower(c.Backend.Transport)
	case "ws":
		c.Backend.Transport = TransportWebSocket
	default:
		return fmt.Errorf("unknown backend.transport %q", c.Backend.Transport)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// InitializeDefaults writes a settings file with the default values when none
// exists yet.
func InitializeDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.transport", TransportHTTP)
	v.SetDefault("backend.timeout", "60s")
	v.SetDefault("chat.persona_id", 0)
	v.SetDefault("chat.time_range", "")
	v.SetDefault("display.show_documents", true)
	v.SetDefault("display.highlight", true)
	v.SetDefault("display.style", "monokai")
	v.SetDefault("logging.log_file", "./.scout/system.log")
	v.SetDefault("logging.level", "info")

	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write default configuration: %w", err)
	}
	return nil
}
