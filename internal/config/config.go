// Package config loads tmux-mcp configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (TMUX_MCP_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .tmux-mcp.yaml in current directory
//  2. ~/.config/tmux-mcp/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tmux-mcp configuration.
type Config struct {
	// Server settings
	Transport string `yaml:"transport"` // stdio, sse, streamable-http
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`

	// Monitor settings (Go duration strings, e.g. "1s")
	PollInterval       string `yaml:"poll_interval"`
	ProcessingInterval string `yaml:"processing_interval"`
	Deadline           string `yaml:"deadline"`
	StabilityThreshold int    `yaml:"stability_threshold"`
	ScanWindow         int    `yaml:"scan_window"`
	MaxCaptureFailures int    `yaml:"max_capture_failures"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogFile  string `yaml:"log_file"`  // empty = stderr

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	PollIntervalDuration       time.Duration `yaml:"-"`
	ProcessingIntervalDuration time.Duration `yaml:"-"`
	DeadlineDuration           time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Transport:          "stdio",
		Host:               "127.0.0.1",
		Port:               8888,
		PollInterval:       "1s",
		ProcessingInterval: "500ms",
		Deadline:           "5m",
		StabilityThreshold: 5,
		ScanWindow:         8,
		MaxCaptureFailures: 3,
		LogLevel:           "info",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	var err error
	cfg.PollIntervalDuration, err = time.ParseDuration(cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", cfg.PollInterval, err)
	}
	cfg.ProcessingIntervalDuration, err = time.ParseDuration(cfg.ProcessingInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid processing interval %q: %w", cfg.ProcessingInterval, err)
	}
	cfg.DeadlineDuration, err = time.ParseDuration(cfg.Deadline)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: %w", cfg.Deadline, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".tmux-mcp.yaml"); err == nil {
		return ".tmux-mcp.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "tmux-mcp", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Transport != "" {
		cfg.Transport = file.Transport
	}
	if file.Host != "" {
		cfg.Host = file.Host
	}
	if file.Port > 0 {
		cfg.Port = file.Port
	}
	if file.PollInterval != "" {
		cfg.PollInterval = file.PollInterval
	}
	if file.ProcessingInterval != "" {
		cfg.ProcessingInterval = file.ProcessingInterval
	}
	if file.Deadline != "" {
		cfg.Deadline = file.Deadline
	}
	if file.StabilityThreshold > 0 {
		cfg.StabilityThreshold = file.StabilityThreshold
	}
	if file.ScanWindow > 0 {
		cfg.ScanWindow = file.ScanWindow
	}
	if file.MaxCaptureFailures > 0 {
		cfg.MaxCaptureFailures = file.MaxCaptureFailures
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("TMUX_MCP_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("TMUX_MCP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TMUX_MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("TMUX_MCP_POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := os.Getenv("TMUX_MCP_PROCESSING_INTERVAL"); v != "" {
		cfg.ProcessingInterval = v
	}
	if v := os.Getenv("TMUX_MCP_DEADLINE"); v != "" {
		cfg.Deadline = v
	}
	if v := os.Getenv("TMUX_MCP_STABILITY_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StabilityThreshold = n
		}
	}
	if v := os.Getenv("TMUX_MCP_SCAN_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanWindow = n
		}
	}
	if v := os.Getenv("TMUX_MCP_MAX_CAPTURE_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxCaptureFailures = n
		}
	}
	if v := os.Getenv("TMUX_MCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TMUX_MCP_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}
