// FILE: lixenwraith/logpipe/config_test.go
package logpipe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/logpipe/formatter"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.True(t, cfg.EnableLogging)
	assert.True(t, cfg.EnableThreadedWriter)
	assert.Equal(t, int64(30), cfg.FlushIntervalMs)
	assert.Equal(t, int64(1000), cfg.StopTimeoutMs)
	assert.Equal(t, "./log.txt", cfg.OutputPath)
	assert.True(t, cfg.BackupEnabled)
	assert.Equal(t, "./logs", cfg.BackupDirectory)
	assert.True(t, cfg.CompressBackups)
	assert.Equal(t, int64(0), cfg.MaxBackups)
	assert.Equal(t, formatter.DefaultTimeFormat, cfg.TimeFormat)
	assert.True(t, cfg.EnableStacktrace)
	assert.True(t, cfg.StripStacktrace)
	assert.True(t, cfg.UseCallback)
	assert.True(t, cfg.DispatchCallbackOnSubmit)
	assert.False(t, cfg.EscapeNonPrintable)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Millisecond, cfg.flushInterval())
	assert.Equal(t, time.Second, cfg.stopTimeout())
}

func TestConfigClone(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg1.OutputPath = "/custom/path.txt"

	cfg2 := cfg1.Clone()
	assert.Equal(t, cfg1.OutputPath, cfg2.OutputPath)

	// Modify original
	cfg1.OutputPath = "/other.txt"

	// Verify clone unchanged
	assert.Equal(t, "/custom/path.txt", cfg2.OutputPath)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
	}{
		{
			name:      "valid config",
			modify:    func(c *Config) {},
			wantError: "",
		},
		{
			name:      "empty output path",
			modify:    func(c *Config) { c.OutputPath = "  " },
			wantError: "output_path cannot be empty",
		},
		{
			name:      "empty time format",
			modify:    func(c *Config) { c.TimeFormat = "" },
			wantError: "time_format cannot be empty",
		},
		{
			name:      "time format without fields",
			modify:    func(c *Config) { c.TimeFormat = "yyyy-MM-dd" },
			wantError: "invalid time_format",
		},
		{
			name:      "missing backup directory",
			modify:    func(c *Config) { c.BackupDirectory = "" },
			wantError: "backup_directory cannot be empty",
		},
		{
			name: "backup directory unused when disabled",
			modify: func(c *Config) {
				c.BackupEnabled = false
				c.BackupDirectory = ""
			},
			wantError: "",
		},
		{
			name:      "zero flush interval",
			modify:    func(c *Config) { c.FlushIntervalMs = 0 },
			wantError: "flush_interval_ms must be positive",
		},
		{
			name:      "negative stop timeout",
			modify:    func(c *Config) { c.StopTimeoutMs = -1 },
			wantError: "stop_timeout_ms must be positive",
		},
		{
			name:      "negative max backups",
			modify:    func(c *Config) { c.MaxBackups = -3 },
			wantError: "max_backups cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}

func TestApplyOverride(t *testing.T) {
	t.Run("all keys", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride(
			"enable_logging=false",
			"enable_threaded_writer=false",
			"flush_interval_ms=45",
			"stop_timeout_ms=2500",
			"output_path=/tmp/x/out.txt",
			"backup_enabled=false",
			"backup_directory=/tmp/x/bk",
			"compress_backups=false",
			"max_backups=7",
			"time_format=2006-01-02",
			"enable_stacktrace=false",
			"strip_stacktrace=false",
			"cached_clock=true",
			"escape_nonprintable=true",
			"use_callback=false",
			"dispatch_callback_on_submit=false",
			"internal_errors_to_stderr=false",
		)
		require.NoError(t, err)

		assert.False(t, cfg.EnableLogging)
		assert.False(t, cfg.EnableThreadedWriter)
		assert.Equal(t, int64(45), cfg.FlushIntervalMs)
		assert.Equal(t, int64(2500), cfg.StopTimeoutMs)
		assert.Equal(t, "/tmp/x/out.txt", cfg.OutputPath)
		assert.False(t, cfg.BackupEnabled)
		assert.Equal(t, "/tmp/x/bk", cfg.BackupDirectory)
		assert.False(t, cfg.CompressBackups)
		assert.Equal(t, int64(7), cfg.MaxBackups)
		assert.Equal(t, "2006-01-02", cfg.TimeFormat)
		assert.False(t, cfg.EnableStacktrace)
		assert.False(t, cfg.StripStacktrace)
		assert.True(t, cfg.CachedClock)
		assert.True(t, cfg.EscapeNonPrintable)
		assert.False(t, cfg.UseCallback)
		assert.False(t, cfg.DispatchCallbackOnSubmit)
		assert.False(t, cfg.InternalErrorsToStderr)
	})

	t.Run("all or nothing", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride("flush_interval_ms=99", "unknown_key=1", "use_callback=maybe")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple configuration errors")
		assert.Contains(t, err.Error(), "unknown configuration key 'unknown_key'")
		assert.Contains(t, err.Error(), "invalid boolean value for use_callback")
		assert.Equal(t, int64(30), cfg.FlushIntervalMs, "no override applied on failure")
	})

	t.Run("single error", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.ApplyOverride("max_backups=many")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid integer value for max_backups")
	})

	t.Run("malformed pair", func(t *testing.T) {
		err := DefaultConfig().ApplyOverride("no_equals_sign")
		assert.Error(t, err)
	})
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"output_path":       "/tmp/app.txt",
		"flush_interval_ms": 12,
		"compress_backups":  false,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app.txt", cfg.OutputPath)
	assert.Equal(t, int64(12), cfg.FlushIntervalMs)
	assert.False(t, cfg.CompressBackups)

	_, err = NewConfigFromDefaults(map[string]any{"flush_interval_ms": "fast"})
	assert.Error(t, err)

	_, err = NewConfigFromDefaults(map[string]any{"bogus": true})
	assert.Error(t, err)

	_, err = NewConfigFromDefaults(map[string]any{"flush_interval_ms": 0})
	assert.Error(t, err, "result is validated")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("values under the logpipe table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logpipe.toml")
		content := `
[logpipe]
output_path = "/var/log/svc/out.txt"
enable_threaded_writer = false
flush_interval_ms = 75
max_backups = 4
time_format = "2006-01-02T15:04:05"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/log/svc/out.txt", cfg.OutputPath)
		assert.False(t, cfg.EnableThreadedWriter)
		assert.Equal(t, int64(75), cfg.FlushIntervalMs)
		assert.Equal(t, int64(4), cfg.MaxBackups)
		assert.Equal(t, "2006-01-02T15:04:05", cfg.TimeFormat)

		// Unset keys keep their defaults
		assert.True(t, cfg.CompressBackups)
		assert.Equal(t, "./logs", cfg.BackupDirectory)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[logpipe]\nflush_interval_ms = -5\n"), 0644))

		_, err := NewConfigFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flush_interval_ms must be positive")
	})
}
