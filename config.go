// FILE: lixenwraith/logpipe/config.go
package logpipe

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"

	"github.com/lixenwraith/logpipe/formatter"
)

// Config holds all pipeline configuration values.
// A running pipeline never observes changes; reconfiguration is Stop then Start with a new Config.
type Config struct {
	// Basic settings
	EnableLogging        bool  `toml:"enable_logging"`         // Global on/off switch
	EnableThreadedWriter bool  `toml:"enable_threaded_writer"` // Queue records and write them from the flush loop
	FlushIntervalMs      int64 `toml:"flush_interval_ms"`      // Flush loop wait between drains
	StopTimeoutMs        int64 `toml:"stop_timeout_ms"`        // Grace period for the flush loop on Stop

	// Output and backup
	OutputPath      string `toml:"output_path"`
	BackupEnabled   bool   `toml:"backup_enabled"`
	BackupDirectory string `toml:"backup_directory"`
	CompressBackups bool   `toml:"compress_backups"`
	MaxBackups      int64  `toml:"max_backups"` // 0 keeps every backup

	// Formatting
	TimeFormat         string `toml:"time_format"` // Go time layout, rendered in local time
	EnableStacktrace   bool   `toml:"enable_stacktrace"`
	StripStacktrace    bool   `toml:"strip_stacktrace"`
	CachedClock        bool   `toml:"cached_clock"`        // Millisecond-resolution cached timestamps
	EscapeNonPrintable bool   `toml:"escape_nonprintable"` // Hex-escape control runes other than line breaks

	// Subscribers
	UseCallback              bool `toml:"use_callback"`
	DispatchCallbackOnSubmit bool `toml:"dispatch_callback_on_submit"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	EnableLogging:        true,
	EnableThreadedWriter: true,
	FlushIntervalMs:      30,
	StopTimeoutMs:        1000,

	OutputPath:      "./log.txt",
	BackupEnabled:   true,
	BackupDirectory: "./logs",
	CompressBackups: true,
	MaxBackups:      0,

	TimeFormat:         formatter.DefaultTimeFormat,
	EnableStacktrace:   true,
	StripStacktrace:    true,
	CachedClock:        false,
	EscapeNonPrintable: false,

	UseCallback:              true,
	DispatchCallbackOnSubmit: true,

	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// Keys live under the [logpipe] table; a missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct("logpipe.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "logpipe.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml tag
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig copies values found in the loader into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmtErrorf("output_path cannot be empty")
	}

	if strings.TrimSpace(c.TimeFormat) == "" {
		return fmtErrorf("time_format cannot be empty")
	}

	if err := formatter.ValidateLayout(c.TimeFormat); err != nil {
		return fmtErrorf("invalid time_format '%s': %w", c.TimeFormat, err)
	}

	if c.BackupEnabled && strings.TrimSpace(c.BackupDirectory) == "" {
		return fmtErrorf("backup_directory cannot be empty when backup is enabled")
	}

	if c.FlushIntervalMs <= 0 {
		return fmtErrorf("flush_interval_ms must be positive: %d", c.FlushIntervalMs)
	}

	if c.StopTimeoutMs <= 0 {
		return fmtErrorf("stop_timeout_ms must be positive: %d", c.StopTimeoutMs)
	}

	if c.MaxBackups < 0 {
		return fmtErrorf("max_backups cannot be negative: %d", c.MaxBackups)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// flushInterval returns the flush loop period
func (c *Config) flushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// stopTimeout returns the shutdown grace period
func (c *Config) stopTimeout() time.Duration {
	if c.StopTimeoutMs <= 0 {
		return defaultStopTimeout
	}
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}
