// FILE: lixenwraith/logpipe/constant.go
package logpipe

import (
	"strings"
	"time"
)

// Severity classifies a record
type Severity int

// Severity constants
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityException
	SeverityAssert
)

var severityNames = [...]string{
	SeverityInfo:      "Info",
	SeverityWarning:   "Warning",
	SeverityError:     "Error",
	SeverityException: "Exception",
	SeverityAssert:    "Assert",
}

// String returns the name written between brackets in the output line
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "Unknown"
	}
	return severityNames[s]
}

// ParseSeverity converts a severity name to its constant
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "exception":
		return SeverityException, nil
	case "assert":
		return SeverityAssert, nil
	default:
		return SeverityInfo, fmtErrorf("invalid severity string: '%s' (use info, warning, error, exception, assert)", name)
	}
}

// Flush loop states
const (
	loopStopped int32 = iota
	loopRunning
	loopStopping
)

// Backup naming
const (
	backupTimeLayout = "02012006_150405" // DDMMYYYY_HHMMSS
	backupZipExt     = ".zip"
	backupTxtExt     = ".txt"
)

// Default grace period for the flush loop to exit
const defaultStopTimeout = time.Second
