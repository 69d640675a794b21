package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/logger"
	"gopkg.in/yaml.v3"
)

const appName = "rechenschnell"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// WebConfig holds settings for the browser front-end.
type WebConfig struct {
	Addr        string `json:"addr" yaml:"addr"`
	OpenBrowser bool   `json:"open_browser" yaml:"open_browser"`
	// MaxConnections caps concurrently accepted TCP connections. 0 disables the cap.
	MaxConnections int `json:"max_connections" yaml:"max_connections"`
	// MessagesPerSecond and Burst shape the per-client WebSocket token bucket.
	MessagesPerSecond float64 `json:"messages_per_second" yaml:"messages_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
	// SessionIdleSeconds is how long an untouched session survives.
	SessionIdleSeconds int `json:"session_idle_seconds" yaml:"session_idle_seconds"`
	MaxSessions        int `json:"max_sessions" yaml:"max_sessions"`
}

// EngineConfig holds settings applied to every calculator engine.
type EngineConfig struct {
	// MaxExpressionLength caps the expression length in characters. 0 disables the cap.
	MaxExpressionLength int `json:"max_expression_length" yaml:"max_expression_length"`
}

// TUIConfig holds settings for the terminal front-end.
type TUIConfig struct {
	ShowHelp         bool `json:"show_help" yaml:"show_help"`
	DisableClipboard bool `json:"disable_clipboard" yaml:"disable_clipboard"`
}

// Config represents application configuration
type Config struct {
	LogLevel string       `json:"log_level" yaml:"log_level"` // debug, info, warn, error, none
	LogPath  string       `json:"log_path,omitempty" yaml:"log_path,omitempty"`
	Web      WebConfig    `json:"web" yaml:"web"`
	Engine   EngineConfig `json:"engine" yaml:"engine"`
	TUI      TUIConfig    `json:"tui" yaml:"tui"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", appName)
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", appName)
	default:
		return defaultConfigDir()
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogPath:  filepath.Join(defaultStateDir(), appName+".log"),
		Web: WebConfig{
			Addr:               "localhost:8937",
			MaxConnections:     256,
			MessagesPerSecond:  50,
			Burst:              100,
			SessionIdleSeconds: 30 * 60,
			MaxSessions:        1000,
		},
		Engine: EngineConfig{
			MaxExpressionLength: 512,
		},
		TUI: TUIConfig{
			ShowHelp: true,
		},
	}
}

// Load loads configuration from path. Values missing from the file keep their
// defaults and a missing file yields the defaults. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	defaults := DefaultConfig()
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogPath == "" {
		config.LogPath = defaults.LogPath
	}
	if config.Web.Addr == "" {
		config.Web.Addr = defaults.Web.Addr
	}

	return config, nil
}

// ApplyEnv lets RECHENSCHNELL_LOG_LEVEL and RECHENSCHNELL_LOG_PATH override
// the file values.
func (c *Config) ApplyEnv() {
	if envLevel := strings.TrimSpace(os.Getenv(logger.EnvLevel)); envLevel != "" {
		c.LogLevel = envLevel
	}
	if envPath := strings.TrimSpace(os.Getenv(logger.EnvPath)); envPath != "" {
		c.LogPath = envPath
	}
}

// Validate reports the first nonsensical value.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "none", "off":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Web.MaxConnections < 0 {
		return fmt.Errorf("%w: web.max_connections must not be negative", ErrInvalidConfig)
	}
	if c.Web.MessagesPerSecond <= 0 {
		return fmt.Errorf("%w: web.messages_per_second must be positive", ErrInvalidConfig)
	}
	if c.Web.Burst < 1 {
		return fmt.Errorf("%w: web.burst must be at least 1", ErrInvalidConfig)
	}
	if c.Web.SessionIdleSeconds < 1 {
		return fmt.Errorf("%w: web.session_idle_seconds must be at least 1", ErrInvalidConfig)
	}
	if c.Web.MaxSessions < 1 {
		return fmt.Errorf("%w: web.max_sessions must be at least 1", ErrInvalidConfig)
	}
	if c.Engine.MaxExpressionLength < 0 {
		return fmt.Errorf("%w: engine.max_expression_length must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Save writes the config as JSON (or YAML, by extension). The file is written
// next to its destination and renamed into place.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// EngineOptions converts the engine settings into calculator options.
func (e EngineConfig) EngineOptions() []calc.Option {
	if e.MaxExpressionLength <= 0 {
		return nil
	}
	return []calc.Option{calc.WithMaxLength(e.MaxExpressionLength)}
}
