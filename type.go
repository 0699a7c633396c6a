// FILE: lixenwraith/logpipe/type.go
package logpipe

import (
	"time"
)

// Record represents a single log event. Never mutated after creation.
type Record struct {
	Message  string
	Origin   any // Optional call-site or stacktrace descriptor, nil when absent
	Severity Severity
	Time     time.Time
}

// Handler is the capture callback delivered to log-event sources
type Handler func(message, origin string, severity Severity)

// Source is a host log-event source the pipeline attaches its capture handler to.
// Attach is called on Start and the returned detach function on Stop.
type Source interface {
	Attach(h Handler) (detach func())
}

// Subscriber receives every formatted line together with its severity
type Subscriber func(line string, severity Severity)

// Stats is a point-in-time snapshot of pipeline counters
type Stats struct {
	Submitted   uint64
	Written     uint64
	Dropped     uint64
	Batches     uint64
	WriteErrors uint64
	Backups     uint64
	Queued      int
	FileSize    int64
	Running     bool
	Disabled    bool
	StartTime   time.Time
}
