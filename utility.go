// FILE: lixenwraith/logpipe/utility.go
package logpipe

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// Sentinel errors
var (
	ErrSinkClosed     = errors.New("logpipe: sink closed")
	ErrNotRunning     = errors.New("logpipe: pipeline not running")
	ErrAlreadyRunning = errors.New("logpipe: pipeline already running")
	ErrStopTimeout    = errors.New("logpipe: flush loop did not stop within grace period")
)

// CallerOrigin returns a call-site origin of the form
// "pkg.Outer -> pkg.Inner (at /path/file.go:42)".
// skip counts frames above the caller of CallerOrigin, depth bounds the function chain.
func CallerOrigin(skip int, depth int) string {
	if depth <= 0 {
		depth = 1
	}
	if depth > 10 {
		depth = 10
	}
	pc := make([]uintptr, depth)
	n := runtime.Callers(skip+2, pc) // +2 skips runtime.Callers and CallerOrigin
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pc[:n])

	var chain []string
	var site string
	for {
		frame, more := frames.Next()
		if site == "" {
			site = fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		chain = append(chain, funcName(frame.Function))
		if !more {
			break
		}
	}

	// Reverse for caller -> callee order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return fmt.Sprintf("%s (at %s)", strings.Join(chain, " -> "), site)
}

// funcName shortens a fully qualified function name to pkg.Func
func funcName(full string) string {
	name := filepath.Base(full)
	parts := strings.Split(name, ".")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "func") && len(last) > 4 {
		for _, r := range last[4:] {
			if !unicode.IsDigit(r) {
				return name
			}
		}
		return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
	}
	return name
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "logpipe: ") {
		format = "logpipe: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return errors.Join(err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}
