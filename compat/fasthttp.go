// FILE: lixenwraith/logpipe/compat/fasthttp.go
package compat

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/logpipe"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter implements fasthttp's Logger and forwards every message to the attached pipeline
type FastHTTPAdapter struct {
	handlerSlot
	origin           string
	severityDetector func(string) logpipe.Severity // Function to detect severity from message
}

// NewFastHTTPAdapter creates a fasthttp-compatible source; attach it with logpipe.WithSource
func NewFastHTTPAdapter(opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		origin:           "fasthttp",
		severityDetector: DetectSeverity,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithSeverityDetector sets a custom function to detect severity from message content
func WithSeverityDetector(detector func(string) logpipe.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.severityDetector = detector
	}
}

// WithFastHTTPOrigin sets the origin attached to every record, "fasthttp" by default
func WithFastHTTPOrigin(origin string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.origin = origin
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	severity := logpipe.SeverityInfo
	if a.severityDetector != nil {
		severity = a.severityDetector(msg)
	}

	a.emit(msg, a.origin, severity)
}
