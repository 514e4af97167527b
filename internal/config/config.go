package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/nbsense/internal/logging"
)

// Default values.
const (
	DefaultLanguage     = "fsharp"
	DefaultTheme        = "neat"
	DefaultMarkerClass  = "br-errormarker"
	DefaultLogoSelector = ".container img"
	DefaultLogoURL      = "/static/custom/ifsharp_logo.png"
	DefaultUsername     = "nbsense"
	DefaultLogLevel     = "info"
	DefaultHookTimeout  = 2000
)

// Config is the complete nbsense configuration.
type Config struct {
	Notebook     NotebookConfig     `toml:"notebook" yaml:"notebook"`
	Kernel       KernelConfig       `toml:"kernel" yaml:"kernel"`
	Intellisense IntellisenseConfig `toml:"intellisense" yaml:"intellisense"`
	Hooks        HooksConfig        `toml:"hooks" yaml:"hooks"`
	Log          LogConfig          `toml:"log" yaml:"log"`
}

// NotebookConfig covers document and editor presentation.
type NotebookConfig struct {
	Language     string `toml:"language" yaml:"language"`
	Theme        string `toml:"theme" yaml:"theme"`
	MarkerClass  string `toml:"marker_class" yaml:"marker_class"`
	LogoSelector string `toml:"logo_selector" yaml:"logo_selector"`
	LogoURL      string `toml:"logo_url" yaml:"logo_url"`
}

// KernelConfig covers the kernel connection.
type KernelConfig struct {
	// URL is the notebook server base URL or a full channels websocket URL.
	URL      string `toml:"url" yaml:"url"`
	Token    string `toml:"token" yaml:"token"`
	Username string `toml:"username" yaml:"username"`

	// Legacy delivers bare reply content to the legacy callback slots.
	Legacy bool `toml:"legacy" yaml:"legacy"`
}

// IntellisenseConfig covers request handling.
type IntellisenseConfig struct {
	// StaleGuard drops replies to superseded requests.
	StaleGuard bool `toml:"stale_guard" yaml:"stale_guard"`
}

// HooksConfig covers user scripts.
type HooksConfig struct {
	// MethodsScript is a Lua file defining on_method. Empty disables it.
	MethodsScript string `toml:"methods_script" yaml:"methods_script"`

	// TimeoutMS bounds one hook call in milliseconds.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
}

// LogConfig covers logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Notebook: NotebookConfig{
			Language:     DefaultLanguage,
			Theme:        DefaultTheme,
			MarkerClass:  DefaultMarkerClass,
			LogoSelector: DefaultLogoSelector,
			LogoURL:      DefaultLogoURL,
		},
		Kernel: KernelConfig{
			Username: DefaultUsername,
		},
		Intellisense: IntellisenseConfig{
			StaleGuard: true,
		},
		Hooks: HooksConfig{
			TimeoutMS: DefaultHookTimeout,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// HookTimeout returns the hook timeout as a duration.
func (c Config) HookTimeout() time.Duration {
	return time.Duration(c.Hooks.TimeoutMS) * time.Millisecond
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// Validate checks every setting and returns the first problem found.
func (c Config) Validate() error {
	required := []struct {
		path  string
		value string
	}{
		{"notebook.language", c.Notebook.Language},
		{"notebook.theme", c.Notebook.Theme},
		{"notebook.marker_class", c.Notebook.MarkerClass},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Path: r.path, Message: "must not be empty"}
		}
	}

	if strings.ContainsAny(c.Notebook.MarkerClass, " \t\n") {
		return &ValidationError{Path: "notebook.marker_class", Message: "must be a single class name"}
	}

	if c.Kernel.URL != "" {
		u, err := url.Parse(c.Kernel.URL)
		if err != nil {
			return &ValidationError{Path: "kernel.url", Message: err.Error()}
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return &ValidationError{Path: "kernel.url", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
		}
	}

	if c.Hooks.TimeoutMS < 0 {
		return &ValidationError{Path: "hooks.timeout_ms", Message: "must not be negative"}
	}

	if !validLevels[strings.ToLower(c.Log.Level)] {
		return &ValidationError{Path: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	return nil
}
