package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client settings
type Config struct {
	ServerURL    string `yaml:"server_url" json:"server_url"`       // API server base, e.g. https://blog.example.com
	APIBasePath  string `yaml:"api_base_path" json:"api_base_path"` // REST prefix, default /api
	RealtimePath string `yaml:"realtime_path" json:"realtime_path"` // websocket endpoint, default /ws

	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" json:"http_timeout_seconds"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	// VaultPassphrase seals persisted tokens at rest. Env only, never
	// written to the config file.
	VaultPassphrase string `yaml:"-" json:"-"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	// A .env next to the working directory may carry INKWELL_* vars
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".inkwell", "logs", "inkwell.log")
	}

	timeout, _ := strconv.Atoi(getEnv("INKWELL_HTTP_TIMEOUT", "30"))
	if timeout <= 0 {
		timeout = 30
	}

	return &Config{
		ServerURL:          getEnv("INKWELL_SERVER_URL", "http://localhost:8080"),
		APIBasePath:        getEnv("INKWELL_API_BASE", "/api"),
		RealtimePath:       getEnv("INKWELL_REALTIME_PATH", "/ws"),
		HTTPTimeoutSeconds: timeout,
		LogLevel:           getEnv("INKWELL_LOG_LEVEL", "INFO"),
		LogFile:            getEnv("INKWELL_LOG_FILE", logPath),
		LogConsole:         getEnv("INKWELL_LOG_CONSOLE", "false") == "true",
		VaultPassphrase:    os.Getenv("INKWELL_VAULT_PASSPHRASE"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTPTimeout returns the request timeout as a duration
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Load loads config from ~/.inkwell/config.yaml
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".inkwell", "config.yaml")

	// Check if exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Return defaults if no config
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.inkwell/config.yaml
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".inkwell")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
