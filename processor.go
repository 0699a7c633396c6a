// FILE: lixenwraith/logpipe/processor.go
package logpipe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// flushRequest asks the flush loop for an immediate drain; the outcome is sent on reply
type flushRequest struct {
	reply chan error
}

// flushLoop is the control block of one background writer goroutine
type flushLoop struct {
	state    atomic.Int32
	stop     chan struct{}
	done     chan struct{}
	requests chan flushRequest
	ctx      context.Context
	cancel   context.CancelFunc
	finalErr error // written before done is closed

	writeMu     sync.Mutex   // held from drain to flush so batches reach the file in drain order
	dispatching atomic.Int32 // >0 while the loop goroutine runs writer-side subscribers
}

func newFlushLoop() *flushLoop {
	ctx, cancel := context.WithCancel(context.Background())
	return &flushLoop{
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		requests: make(chan flushRequest),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// request submits a flush request and waits for its outcome
func (l *flushLoop) request() error {
	req := flushRequest{reply: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-l.done:
		return ErrNotRunning
	}
	select {
	case err := <-req.reply:
		return err
	case <-l.done:
		return ErrNotRunning
	}
}

// shutdown signals the loop and waits up to timeout for it to finish its final drain.
// Returns false when the loop did not exit in time.
func (l *flushLoop) shutdown(timeout time.Duration) bool {
	if l.state.CompareAndSwap(loopRunning, loopStopping) {
		close(l.stop)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.done:
		return true
	case <-timer.C:
		return false
	}
}

// processRecords is the flush loop body: drain, write, flush, notify, repeat
func (p *Pipeline) processRecords(s *session) {
	l := s.loop
	defer close(l.done)
	defer l.state.Store(loopStopped)

	ticker := time.NewTicker(s.cfg.flushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			l.finalErr = p.flushQueued(l.ctx, s)
			return

		case req := <-l.requests:
			req.reply <- p.flushQueued(l.ctx, s)

		case <-ticker.C:
			if err := p.flushQueued(l.ctx, s); err != nil {
				p.internalLog("error - flush cycle failed: %v\n", err)
			}
		}
	}
}

// flushQueued drains the queue, writes the batch and runs writer-side subscribers.
// Subscribers run after writeMu is released so they may flush again.
func (p *Pipeline) flushQueued(ctx context.Context, s *session) error {
	l := s.loop
	l.writeMu.Lock()
	delivered, err := p.writeBatch(ctx, s, s.queue.DrainAll())
	l.writeMu.Unlock()

	if s.cfg.UseCallback && !s.cfg.DispatchCallbackOnSubmit && len(delivered) > 0 {
		l.dispatching.Add(1)
		defer l.dispatching.Add(-1)
		p.notifyAll(delivered)
	}
	return err
}

// delivery is a line that reached the disk
type delivery struct {
	line     string
	severity Severity
}

// writeBatch formats and appends records in order, then flushes the sink once.
// Returns the lines made durable, in order. A cancelled ctx abandons the rest of the batch.
func (p *Pipeline) writeBatch(ctx context.Context, s *session, records []Record) ([]delivery, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var finalErr error
	delivered := make([]delivery, 0, len(records))

	for i, rec := range records {
		if ctx.Err() != nil {
			p.state.Dropped.Add(uint64(len(records) - i))
			finalErr = combineErrors(finalErr, fmtErrorf("batch abandoned with %d records unwritten", len(records)-i))
			break
		}

		line := s.format(rec)
		if err := s.sink.Append(line); err != nil {
			p.state.WriteErrors.Add(1)
			p.state.Dropped.Add(1)
			finalErr = combineErrors(finalErr, err)
			if isUnrecoverable(err) {
				p.disable(s, err)
				p.state.Dropped.Add(uint64(len(records) - i - 1))
				break
			}
			continue
		}
		delivered = append(delivered, delivery{line: line, severity: rec.Severity})
	}

	if len(delivered) == 0 {
		p.recordError(finalErr)
		return nil, finalErr
	}

	if err := s.sink.FlushToDisk(); err != nil {
		p.state.WriteErrors.Add(1)
		p.state.Dropped.Add(uint64(len(delivered)))
		if isUnrecoverable(err) {
			p.disable(s, err)
		}
		finalErr = combineErrors(finalErr, err)
		p.recordError(finalErr)
		return nil, finalErr
	}

	p.state.Written.Add(uint64(len(delivered)))
	p.state.Batches.Add(1)

	p.recordError(finalErr)
	return delivered, finalErr
}
