// FILE: lixenwraith/logpipe/default.go
package logpipe

import (
	"time"
)

// Global instance for package-level functions
var defaultPipeline = NewPipeline()

// Default returns the process-wide pipeline used by the package-level functions
func Default() *Pipeline {
	return defaultPipeline
}

// Init configures the process-wide pipeline, replaces its sources and starts it.
// Fails with ErrAlreadyRunning if it is already running.
func Init(cfg *Config, sources ...Source) error {
	if err := defaultPipeline.ApplyConfig(cfg); err != nil {
		return err
	}
	if err := defaultPipeline.replaceSources(sources); err != nil {
		return err
	}
	return defaultPipeline.Start()
}

// InitWithDefaults starts the process-wide pipeline from built-in defaults and optional overrides
func InitWithDefaults(overrides ...string) error {
	cfg := DefaultConfig()
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return err
	}
	return Init(cfg)
}

// Shutdown stops the process-wide pipeline, flushing pending records
func Shutdown(timeout ...time.Duration) error {
	return defaultPipeline.Stop(timeout...)
}

// FlushAll flushes every record the process-wide pipeline has accepted
func FlushAll() error {
	return defaultPipeline.FlushAll()
}

// Submit sends a record to the process-wide pipeline
func Submit(message string, origin any, severity Severity) {
	defaultPipeline.Submit(message, origin, severity)
}

// Write sends a record without origin to the process-wide pipeline
func Write(message string, severity Severity) {
	defaultPipeline.Write(message, severity)
}

// Info logs an informational record originating at the caller
func Info(message string) {
	defaultPipeline.log(1, SeverityInfo, message)
}

// Warning logs a warning originating at the caller
func Warning(message string) {
	defaultPipeline.log(1, SeverityWarning, message)
}

// Error logs an error originating at the caller
func Error(message string) {
	defaultPipeline.log(1, SeverityError, message)
}

// Exception logs err at exception severity, nil errors are ignored
func Exception(err error) {
	if err == nil {
		return
	}
	defaultPipeline.log(1, SeverityException, err.Error())
}

// Assert logs message at assert severity when condition is false
func Assert(condition bool, message string) {
	if condition {
		return
	}
	defaultPipeline.log(1, SeverityAssert, message)
}

// Subscribe registers a subscriber on the process-wide pipeline
func Subscribe(fn Subscriber) (unsubscribe func()) {
	return defaultPipeline.Subscribe(fn)
}
