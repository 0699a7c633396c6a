// FILE: lixenwraith/logpipe/compat/stdlog.go
package compat

import (
	"io"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/lixenwraith/logpipe"
)

// stdlogSite matches the "file.go:NN: " prefix produced by log.Llongfile or log.Lshortfile
var stdlogSite = regexp.MustCompile(`^(.+?\.(?:go|s):\d+): `)

// StdLogSource redirects a standard library *log.Logger into the pipeline while attached.
// The logger's output, flags and prefix are restored on detach.
type StdLogSource struct {
	handlerSlot
	logger *log.Logger

	mu        sync.Mutex
	oldOutput io.Writer
	oldFlags  int
	oldPrefix string
}

// NewStdLogSource captures l, or the standard logger when l is nil
func NewStdLogSource(l *log.Logger) *StdLogSource {
	if l == nil {
		l = log.Default()
	}
	return &StdLogSource{logger: l}
}

// Attach implements logpipe.Source
func (s *StdLogSource) Attach(h logpipe.Handler) func() {
	s.mu.Lock()
	s.oldOutput = s.logger.Writer()
	s.oldFlags = s.logger.Flags()
	s.oldPrefix = s.logger.Prefix()
	detach := s.handlerSlot.Attach(h)

	// Timestamps come from the pipeline; keep only the call site
	s.logger.SetFlags(log.Llongfile)
	s.logger.SetPrefix("")
	s.logger.SetOutput(s)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.logger.SetOutput(s.oldOutput)
		s.logger.SetFlags(s.oldFlags)
		s.logger.SetPrefix(s.oldPrefix)
		detach()
	}
}

// Write receives one formatted entry per call from the log package
func (s *StdLogSource) Write(b []byte) (int, error) {
	text := strings.TrimRight(string(b), "\r\n")

	var origin string
	if m := stdlogSite.FindStringSubmatch(text); m != nil {
		origin = m[1]
		text = text[len(m[0]):]
	}

	s.emit(text, origin, DetectSeverity(text))
	return len(b), nil
}
