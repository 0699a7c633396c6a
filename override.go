// FILE: lixenwraith/logpipe/override.go
package logpipe

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the configuration.
// Each override should be in the format "key=value". All overrides are checked
// and every failure is reported; the config is only modified when all succeed.
//
// Example:
//
//	cfg := logpipe.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "output_path=/var/log/app/app.txt",
//	    "enable_threaded_writer=false",
//	    "compress_backups=true",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	staged := c.Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(staged, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	*c = *staged
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("logpipe: multiple configuration errors:")
	for i, err := range errors {
		errMsg := strings.TrimPrefix(err.Error(), "logpipe: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	parseBool := func(dst *bool) error {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		*dst = boolVal
		return nil
	}
	parseInt := func(dst *int64) error {
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		*dst = intVal
		return nil
	}

	switch key {
	// Basic settings
	case "enable_logging":
		return parseBool(&cfg.EnableLogging)
	case "enable_threaded_writer":
		return parseBool(&cfg.EnableThreadedWriter)
	case "flush_interval_ms":
		return parseInt(&cfg.FlushIntervalMs)
	case "stop_timeout_ms":
		return parseInt(&cfg.StopTimeoutMs)

	// Output and backup
	case "output_path":
		cfg.OutputPath = value
	case "backup_enabled":
		return parseBool(&cfg.BackupEnabled)
	case "backup_directory":
		cfg.BackupDirectory = value
	case "compress_backups":
		return parseBool(&cfg.CompressBackups)
	case "max_backups":
		return parseInt(&cfg.MaxBackups)

	// Formatting
	case "time_format":
		cfg.TimeFormat = value
	case "enable_stacktrace":
		return parseBool(&cfg.EnableStacktrace)
	case "strip_stacktrace":
		return parseBool(&cfg.StripStacktrace)
	case "cached_clock":
		return parseBool(&cfg.CachedClock)
	case "escape_nonprintable":
		return parseBool(&cfg.EscapeNonPrintable)

	// Subscribers
	case "use_callback":
		return parseBool(&cfg.UseCallback)
	case "dispatch_callback_on_submit":
		return parseBool(&cfg.DispatchCallbackOnSubmit)

	case "internal_errors_to_stderr":
		return parseBool(&cfg.InternalErrorsToStderr)

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}
