// FILE: lixenwraith/logpipe/compat/gnet.go
package compat

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/logpipe"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger and forwards every call to the attached pipeline
type GnetAdapter struct {
	handlerSlot
	origin       string
	flush        func() error
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a gnet-compatible source; attach it with logpipe.WithSource
func NewGnetAdapter(opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		origin: "gnet",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetOrigin sets the origin attached to every record, "gnet" by default
func WithGnetOrigin(origin string) GnetOption {
	return func(a *GnetAdapter) {
		a.origin = origin
	}
}

// WithFlusher sets the function Fatalf calls before the fatal handler, typically Pipeline.FlushAll
func WithFlusher(flush func() error) GnetOption {
	return func(a *GnetAdapter) {
		a.flush = flush
	}
}

// Debugf logs at info severity; the pipeline has no debug level
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.emit(fmt.Sprintf(format, args...), a.origin, logpipe.SeverityInfo)
}

// Infof logs at info severity
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.emit(fmt.Sprintf(format, args...), a.origin, logpipe.SeverityInfo)
}

// Warnf logs at warning severity
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.emit(fmt.Sprintf(format, args...), a.origin, logpipe.SeverityWarning)
}

// Errorf logs at error severity
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.emit(fmt.Sprintf(format, args...), a.origin, logpipe.SeverityError)
}

// Fatalf logs at exception severity, flushes and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.emit(msg, a.origin, logpipe.SeverityException)

	// Ensure the record is on disk before exit
	if a.flush != nil {
		_ = a.flush()
	}

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
