// FILE: lixenwraith/logpipe/state.go
package logpipe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/lixenwraith/logpipe/formatter"
)

// State encapsulates the runtime state of the pipeline
type State struct {
	Running  atomic.Bool
	Disabled atomic.Bool // Set after an unrecoverable sink error, cleared on Start

	StartTime atomic.Value // stores time.Time
	LastError atomic.Value // stores errorBox

	// Counters, persistent across restarts of one Pipeline instance
	Submitted   atomic.Uint64
	Written     atomic.Uint64
	Dropped     atomic.Uint64
	Batches     atomic.Uint64
	WriteErrors atomic.Uint64
	Backups     atomic.Uint64
}

// errorBox gives atomic.Value a single concrete type
type errorBox struct {
	err error
}

// session holds everything owned by one Start..Stop run
type session struct {
	cfg       *Config
	queue     *EventQueue
	sink      *SinkWriter
	formatter *formatter.Formatter
	loop      *flushLoop // nil in synchronous mode
	timeCache *timecache.TimeCache
	detach    []func()
}

// now returns the record timestamp for this session
func (s *session) now() time.Time {
	if s.timeCache != nil {
		return s.timeCache.CachedTime()
	}
	return time.Now()
}

// format renders a record with this session's formatter
func (s *session) format(r Record) string {
	return s.formatter.Format(r.Time, r.Severity.String(), r.Origin, r.Message)
}

// subscriberSet is a copy-on-write list of subscribers; readers never lock
type subscriberSet struct {
	mu       sync.Mutex
	nextID   uint64
	byID     map[uint64]Subscriber
	order    []uint64
	snapshot atomic.Pointer[[]Subscriber]
}

// add registers fn and returns its id
func (ss *subscriberSet) add(fn Subscriber) uint64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.byID == nil {
		ss.byID = make(map[uint64]Subscriber)
	}
	ss.nextID++
	id := ss.nextID
	ss.byID[id] = fn
	ss.order = append(ss.order, id)
	ss.publishLocked()
	return id
}

// remove unregisters the subscriber with the given id
func (ss *subscriberSet) remove(id uint64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, ok := ss.byID[id]; !ok {
		return
	}
	delete(ss.byID, id)
	for i, oid := range ss.order {
		if oid == id {
			ss.order = append(ss.order[:i:i], ss.order[i+1:]...)
			break
		}
	}
	ss.publishLocked()
}

// publishLocked rebuilds the read snapshot in subscription order
func (ss *subscriberSet) publishLocked() {
	list := make([]Subscriber, 0, len(ss.order))
	for _, id := range ss.order {
		list = append(list, ss.byID[id])
	}
	ss.snapshot.Store(&list)
}

// load returns the current subscribers
func (ss *subscriberSet) load() []Subscriber {
	if list := ss.snapshot.Load(); list != nil {
		return *list
	}
	return nil
}
