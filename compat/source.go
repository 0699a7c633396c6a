// FILE: lixenwraith/logpipe/compat/source.go
package compat

import (
	"strings"
	"sync/atomic"

	"github.com/lixenwraith/logpipe"
)

// handlerSlot holds the capture handler of the pipeline an adapter is attached to.
// Messages emitted while detached are discarded.
type handlerSlot struct {
	h atomic.Pointer[logpipe.Handler]
}

// Attach implements logpipe.Source
func (s *handlerSlot) Attach(h logpipe.Handler) func() {
	hp := &h
	s.h.Store(hp)
	return func() {
		s.h.CompareAndSwap(hp, nil)
	}
}

// Attached reports whether a pipeline is currently receiving this adapter's messages
func (s *handlerSlot) Attached() bool {
	return s.h.Load() != nil
}

func (s *handlerSlot) emit(message, origin string, severity logpipe.Severity) {
	if hp := s.h.Load(); hp != nil {
		(*hp)(message, origin, severity)
	}
}

// DetectSeverity guesses a severity from message content, Info when nothing matches
func DetectSeverity(msg string) logpipe.Severity {
	msgLower := strings.ToLower(msg)

	if strings.Contains(msgLower, "panic") ||
		strings.Contains(msgLower, "fatal") {
		return logpipe.SeverityException
	}

	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") {
		return logpipe.SeverityError
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return logpipe.SeverityWarning
	}

	return logpipe.SeverityInfo
}
