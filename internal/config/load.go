package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NBSENSE_"

// Format is a config file format.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load builds a configuration from defaults, the file at path and the
// environment. An empty path or a missing file skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(cfg, format, path, data)
}

// Decode overlays data onto cfg. Keys absent from data keep their values.
func Decode(cfg *Config, format Format, source string, data []byte) error {
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(cfg); errors.Is(err, io.EOF) {
			return nil
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return nil
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

type envSetter func(cfg *Config, value string) error

func setString(field func(*Config) *string) envSetter {
	return func(cfg *Config, value string) error {
		*field(cfg) = value
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(cfg *Config, value string) error {
		b, ok := parseBool(value)
		if !ok {
			return fmt.Errorf("not a boolean: %q", value)
		}
		*field(cfg) = b
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(cfg *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("not an integer: %q", value)
		}
		*field(cfg) = n
		return nil
	}
}

// envMapping maps environment variables to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "LANGUAGE":        setString(func(c *Config) *string { return &c.Notebook.Language }),
	EnvPrefix + "THEME":           setString(func(c *Config) *string { return &c.Notebook.Theme }),
	EnvPrefix + "MARKER_CLASS":    setString(func(c *Config) *string { return &c.Notebook.MarkerClass }),
	EnvPrefix + "LOGO_SELECTOR":   setString(func(c *Config) *string { return &c.Notebook.LogoSelector }),
	EnvPrefix + "LOGO_URL":        setString(func(c *Config) *string { return &c.Notebook.LogoURL }),
	EnvPrefix + "KERNEL_URL":      setString(func(c *Config) *string { return &c.Kernel.URL }),
	EnvPrefix + "KERNEL_TOKEN":    setString(func(c *Config) *string { return &c.Kernel.Token }),
	EnvPrefix + "KERNEL_USERNAME": setString(func(c *Config) *string { return &c.Kernel.Username }),
	EnvPrefix + "KERNEL_LEGACY":   setBool(func(c *Config) *bool { return &c.Kernel.Legacy }),
	EnvPrefix + "STALE_GUARD":     setBool(func(c *Config) *bool { return &c.Intellisense.StaleGuard }),
	EnvPrefix + "METHODS_SCRIPT":  setString(func(c *Config) *string { return &c.Hooks.MethodsScript }),
	EnvPrefix + "HOOK_TIMEOUT_MS": setInt(func(c *Config) *int { return &c.Hooks.TimeoutMS }),
	EnvPrefix + "LOG_LEVEL":       setString(func(c *Config) *string { return &c.Log.Level }),
}

// EnvVars returns the recognized environment variable names.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	return names
}

// ApplyEnv overlays environment overrides onto cfg. Empty values are
// treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for name, set := range envMapping {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			return &ParseError{Path: name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	default:
		return false, false
	}
}
