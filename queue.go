// FILE: lixenwraith/logpipe/queue.go
package logpipe

import (
	"sync"
)

// EventQueue is an unbounded multi-producer single-consumer FIFO of records.
// Push holds the lock only for an append; DrainAll swaps the backing slice out.
type EventQueue struct {
	mu      sync.Mutex
	records []Record
}

// NewEventQueue creates an empty queue
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push appends a record. It never fails and never waits on the consumer.
func (q *EventQueue) Push(r Record) {
	q.mu.Lock()
	q.records = append(q.records, r)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued record in arrival order, nil when empty.
// Records pushed concurrently with a drain are left for the next drain.
func (q *EventQueue) DrainAll() []Record {
	q.mu.Lock()
	drained := q.records
	q.records = nil
	q.mu.Unlock()
	return drained
}

// Len returns the number of queued records
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// reset discards every queued record and returns how many were discarded
func (q *EventQueue) reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.records)
	q.records = nil
	return n
}
