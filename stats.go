// FILE: lixenwraith/logpipe/stats.go
package logpipe

import (
	"fmt"
	"time"
)

// Stats returns a snapshot of the pipeline counters.
// Counters accumulate across restarts of the same Pipeline.
func (p *Pipeline) Stats() Stats {
	st := Stats{
		Submitted:   p.state.Submitted.Load(),
		Written:     p.state.Written.Load(),
		Dropped:     p.state.Dropped.Load(),
		Batches:     p.state.Batches.Load(),
		WriteErrors: p.state.WriteErrors.Load(),
		Backups:     p.state.Backups.Load(),
		Running:     p.state.Running.Load(),
		Disabled:    p.state.Disabled.Load(),
	}
	if t, ok := p.state.StartTime.Load().(time.Time); ok {
		st.StartTime = t
	}
	if s := p.session.Load(); s != nil {
		st.Queued = s.queue.Len()
		st.FileSize = s.sink.Size()
	}
	return st
}

// Uptime returns the time since the last Start, zero when never started
func (st Stats) Uptime() time.Duration {
	if st.StartTime.IsZero() {
		return 0
	}
	return time.Since(st.StartTime)
}

// String renders the snapshot as space-separated key=value pairs
func (st Stats) String() string {
	s := fmt.Sprintf("submitted=%d written=%d dropped=%d batches=%d write_errors=%d backups=%d queued=%d file_size=%d",
		st.Submitted, st.Written, st.Dropped, st.Batches, st.WriteErrors, st.Backups, st.Queued, st.FileSize)
	if st.Running {
		s += fmt.Sprintf(" uptime_hours=%.2f", st.Uptime().Hours())
	}
	if st.Disabled {
		s += " disabled=true"
	}
	return s
}
