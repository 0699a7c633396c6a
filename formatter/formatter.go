// Package formatter renders log records into single printable lines
package formatter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/logpipe/sanitizer"
)

// DefaultTimeFormat is the layout used when none is configured (DD/MM/YYYY HH:MM:SS)
const DefaultTimeFormat = "02/01/2006 15:04:05"

// sourceMarkers are the file-extension markers searched by StripOrigin, in priority order
var sourceMarkers = []string{".go:", ".s:"}

// originDumper renders opaque origin values on a single line
var originDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                5,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Formatter maps record fields to output lines.
// Configure it before first use; Format is safe for concurrent callers.
type Formatter struct {
	timeFormat string
	stacktrace bool
	strip      bool
	escape     bool
	sanitizers sync.Pool
}

// New creates a formatter with stacktrace inclusion and stripping enabled
func New() *Formatter {
	f := &Formatter{
		timeFormat: DefaultTimeFormat,
		stacktrace: true,
		strip:      true,
	}
	f.sanitizers.New = func() any {
		if f.escape {
			return sanitizer.New().Policy(sanitizer.PolicyTxt)
		}
		return sanitizer.New().Policy(sanitizer.PolicyLine)
	}
	return f
}

// TimeFormat sets the Go time layout used for the timestamp
func (f *Formatter) TimeFormat(layout string) *Formatter {
	if layout != "" {
		f.timeFormat = layout
	}
	return f
}

// Stacktrace sets whether the origin is included in output
func (f *Formatter) Stacktrace(enable bool) *Formatter {
	f.stacktrace = enable
	return f
}

// StripStacktrace sets whether an included origin is reduced to file:line
func (f *Formatter) StripStacktrace(enable bool) *Formatter {
	f.strip = enable
	return f
}

// EscapeNonPrintable sets whether non-printable runes other than line breaks
// are written as hex escapes ("<07>") instead of verbatim
func (f *Formatter) EscapeNonPrintable(enable bool) *Formatter {
	f.escape = enable
	return f
}

// Format renders one record as "<time> [<severity>] (<origin>): <message>\n",
// or "<time> [<severity>] <message>\n" when origin is absent or stacktraces are disabled.
// Line breaks anywhere in the result are removed before the terminating newline.
func (f *Formatter) Format(timestamp time.Time, severity string, origin any, message string) string {
	var sb strings.Builder
	sb.Grow(len(f.timeFormat) + len(severity) + len(message) + 8)

	sb.WriteString(timestamp.Local().Format(f.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(severity)
	sb.WriteString("] ")

	if f.stacktrace {
		if o, ok := Origin(origin); ok {
			if f.strip {
				o = StripOrigin(o)
			}
			sb.WriteByte('(')
			sb.WriteString(o)
			sb.WriteString("): ")
		}
	}
	sb.WriteString(message)

	san := f.sanitizers.Get().(*sanitizer.Sanitizer)
	line := san.Sanitize(sb.String())
	f.sanitizers.Put(san)

	return line + "\n"
}

// Origin converts an origin value to text. Nil and empty strings report absent.
func Origin(v any) (string, bool) {
	switch o := v.(type) {
	case nil:
		return "", false
	case string:
		return o, o != ""
	case []byte:
		return string(o), len(o) > 0
	case error:
		return o.Error(), true
	case fmt.Stringer:
		return safeString(o), true
	default:
		return originDumper.Sprintf("%+v", v), true
	}
}

// safeString guards against Stringer implementations on nil receivers
func safeString(s fmt.Stringer) (str string) {
	defer func() {
		if r := recover(); r != nil {
			str = originDumper.Sprintf("%+v", s)
		}
	}()
	return s.String()
}

// StripOrigin reduces a stacktrace-bearing origin to its first "file.go:line" fragment.
// The ".go:" marker is searched first, then ".s:". Without a marker followed by
// line digits the origin is returned unchanged.
func StripOrigin(origin string) string {
	lower := strings.ToLower(origin)
	for _, marker := range sourceMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}

		digitsStart := idx + len(marker)
		digitsEnd := digitsStart
		for digitsEnd < len(origin) && origin[digitsEnd] >= '0' && origin[digitsEnd] <= '9' {
			digitsEnd++
		}
		if digitsEnd == digitsStart {
			return origin
		}

		// File name starts after the last separator preceding the marker
		nameStart := strings.LastIndexAny(origin[:idx], "/\\ \t\n(") + 1
		if nameStart >= idx {
			return origin
		}
		return origin[nameStart:digitsEnd]
	}
	return origin
}

// ErrInvalidLayout reports a time layout that renders no time information
var ErrInvalidLayout = errors.New("formatter: time layout renders no time fields")

// ValidateLayout checks that a layout contains at least one time field
func ValidateLayout(layout string) error {
	probe := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if probe.Format(layout) == layout {
		return ErrInvalidLayout
	}
	return nil
}
