// FILE: lixenwraith/logpipe/builder.go
package logpipe

import (
	"io"
	"time"
)

// Builder provides a fluent API for building pipeline configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new, stopped Pipeline with the specified configuration.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}

	p := NewPipeline(b.opts...)

	// ApplyConfig handles validation
	if err := p.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return p, nil
}

// Enabled turns record acceptance on or off.
func (b *Builder) Enabled(enable bool) *Builder {
	b.cfg.EnableLogging = enable
	return b
}

// Threaded selects the background flush loop (true) or synchronous writes (false).
func (b *Builder) Threaded(enable bool) *Builder {
	b.cfg.EnableThreadedWriter = enable
	return b
}

// FlushInterval sets the flush loop period.
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.FlushIntervalMs = d.Milliseconds()
	return b
}

// StopTimeout sets how long Stop waits for the flush loop.
func (b *Builder) StopTimeout(d time.Duration) *Builder {
	b.cfg.StopTimeoutMs = d.Milliseconds()
	return b
}

// OutputPath sets the output file.
func (b *Builder) OutputPath(path string) *Builder {
	b.cfg.OutputPath = path
	return b
}

// Backup enables backups of the previous output file into dir.
func (b *Builder) Backup(dir string) *Builder {
	b.cfg.BackupEnabled = true
	b.cfg.BackupDirectory = dir
	return b
}

// NoBackup deletes the previous output file on start instead of preserving it.
func (b *Builder) NoBackup() *Builder {
	b.cfg.BackupEnabled = false
	return b
}

// CompressBackups selects zip archives (true) or plain .txt copies (false).
func (b *Builder) CompressBackups(enable bool) *Builder {
	b.cfg.CompressBackups = enable
	return b
}

// MaxBackups bounds the number of kept backups, 0 keeps all.
func (b *Builder) MaxBackups(n int64) *Builder {
	b.cfg.MaxBackups = n
	return b
}

// TimeFormat sets the timestamp layout.
func (b *Builder) TimeFormat(layout string) *Builder {
	b.cfg.TimeFormat = layout
	return b
}

// Stacktrace enables rendering of record origins.
func (b *Builder) Stacktrace(enable bool) *Builder {
	b.cfg.EnableStacktrace = enable
	return b
}

// StripStacktrace reduces origins to "file:line".
func (b *Builder) StripStacktrace(enable bool) *Builder {
	b.cfg.StripStacktrace = enable
	return b
}

// CachedClock timestamps records from a millisecond-resolution cached clock.
func (b *Builder) CachedClock(enable bool) *Builder {
	b.cfg.CachedClock = enable
	return b
}

// EscapeNonPrintable hex-escapes control runes other than line breaks in written lines.
func (b *Builder) EscapeNonPrintable(enable bool) *Builder {
	b.cfg.EscapeNonPrintable = enable
	return b
}

// Callbacks enables subscriber notification; onSubmit dispatches on the submitting goroutine.
func (b *Builder) Callbacks(enable, onSubmit bool) *Builder {
	b.cfg.UseCallback = enable
	b.cfg.DispatchCallbackOnSubmit = onSubmit
	return b
}

// InternalErrors toggles pipeline diagnostics.
func (b *Builder) InternalErrors(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Source attaches src while the pipeline runs.
func (b *Builder) Source(src Source) *Builder {
	b.opts = append(b.opts, WithSource(src))
	return b
}

// DiagnosticWriter redirects pipeline diagnostics.
func (b *Builder) DiagnosticWriter(w io.Writer) *Builder {
	b.opts = append(b.opts, WithDiagnosticWriter(w))
	return b
}

// Override applies "key=value" overrides; the first failure is reported by Build.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.cfg.ApplyOverride(overrides...); err != nil {
		b.err = err
	}
	return b
}

// Example usage:
// p, err := logpipe.NewBuilder().
//
//	OutputPath("/var/log/app/log.txt").
//	Backup("/var/log/app/backups").
//	MaxBackups(10).
//	FlushInterval(50 * time.Millisecond).
//	Build()
//
// if err == nil && p.Start() == nil {
//
//	 defer p.Stop()
//	 p.Info("pipeline started")
//
// }
