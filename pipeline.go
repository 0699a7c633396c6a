// FILE: lixenwraith/logpipe/pipeline.go
package logpipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/lixenwraith/logpipe/formatter"
)

// Pipeline accepts records from any goroutine and writes them to a single output file
type Pipeline struct {
	currentConfig atomic.Value // stores *Config
	state         State
	session       atomic.Pointer[session]

	lifecycleMu sync.Mutex   // serializes Start, Stop and ApplyConfig
	gate        sync.RWMutex // Submit holds read, session swaps hold write

	subscribers subscriberSet
	sources     []Source
	diagMu      sync.Mutex
	diag        io.Writer
}

// Option configures a Pipeline at construction
type Option func(*Pipeline)

// WithSource attaches src while the pipeline is running
func WithSource(src Source) Option {
	return func(p *Pipeline) {
		if src != nil {
			p.sources = append(p.sources, src)
		}
	}
}

// WithDiagnosticWriter redirects internal diagnostics, stderr by default
func WithDiagnosticWriter(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.diag = w
		}
	}
}

// NewPipeline creates a stopped pipeline with the default configuration
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{diag: os.Stderr}
	p.currentConfig.Store(DefaultConfig())
	p.state.StartTime.Store(time.Time{})
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplyConfig validates cfg and stores a copy for the next Start.
// The configuration of a running pipeline is immutable.
func (p *Pipeline) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.session.Load() != nil {
		return ErrAlreadyRunning
	}
	p.currentConfig.Store(cfg.Clone())
	return nil
}

// ApplyConfigString applies "key=value" overrides on top of the current configuration
func (p *Pipeline) ApplyConfigString(overrides ...string) error {
	cfg := p.getConfig().Clone()
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return err
	}
	return p.ApplyConfig(cfg)
}

// AddSource registers src for attachment on the next Start
func (p *Pipeline) AddSource(src Source) error {
	if src == nil {
		return fmtErrorf("source cannot be nil")
	}

	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.session.Load() != nil {
		return ErrAlreadyRunning
	}
	p.sources = append(p.sources, src)
	return nil
}

// replaceSources swaps the whole source list while stopped
func (p *Pipeline) replaceSources(sources []Source) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.session.Load() != nil {
		return ErrAlreadyRunning
	}
	p.sources = p.sources[:0]
	for _, src := range sources {
		if src != nil {
			p.sources = append(p.sources, src)
		}
	}
	return nil
}

// GetConfig returns a copy of the current configuration
func (p *Pipeline) GetConfig() *Config {
	return p.getConfig().Clone()
}

// Start rotates the previous output file, opens a fresh one and begins accepting records.
// In threaded mode it also launches the flush loop. Calling Start on a running pipeline is a no-op.
func (p *Pipeline) Start() error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.session.Load() != nil {
		return nil
	}

	cfg := p.getConfig()
	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	rotator := NewRotator(cfg)
	backup, err := rotator.Rotate(time.Now())
	if err != nil {
		return fmtErrorf("startup rotation failed: %w", err)
	}
	if backup != "" {
		p.state.Backups.Add(1)
		if _, err := rotator.Prune(); err != nil {
			p.internalLog("warning - failed to prune old backups: %v\n", err)
		}
	}

	sink, err := OpenSink(cfg.OutputPath)
	if err != nil {
		return err
	}

	s := &session{
		cfg:   cfg,
		queue: NewEventQueue(),
		sink:  sink,
		formatter: formatter.New().
			TimeFormat(cfg.TimeFormat).
			Stacktrace(cfg.EnableStacktrace).
			StripStacktrace(cfg.StripStacktrace).
			EscapeNonPrintable(cfg.EscapeNonPrintable),
	}
	if cfg.CachedClock {
		s.timeCache = timecache.NewWithResolution(time.Millisecond)
	}

	p.state.Disabled.Store(false)
	p.state.StartTime.Store(time.Now())

	if cfg.EnableThreadedWriter {
		s.loop = newFlushLoop()
		s.loop.state.Store(loopRunning)
		go p.processRecords(s)
	}

	p.gate.Lock()
	p.session.Store(s)
	p.state.Running.Store(true)
	p.gate.Unlock()

	for _, src := range p.sources {
		if detach := src.Attach(p.Capture); detach != nil {
			s.detach = append(s.detach, detach)
		}
	}

	return nil
}

// Stop detaches sources, drains and flushes every accepted record, and closes the output file.
// The flush loop gets the configured stop timeout (or the first argument) to finish;
// past that it is abandoned, the file is closed under it and an error wrapping ErrStopTimeout is returned.
// Returns nil if already stopped.
func (p *Pipeline) Stop(timeout ...time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	s := p.session.Load()
	if s == nil {
		return nil
	}

	// Sources first so nothing new arrives from them during the drain
	for _, detach := range s.detach {
		detach()
	}

	// Wait out in-flight submits, then refuse new ones
	p.gate.Lock()
	p.session.Store(nil)
	p.state.Running.Store(false)
	p.gate.Unlock()

	effectiveTimeout := s.cfg.stopTimeout()
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	var finalErr error
	if s.loop != nil {
		if s.loop.shutdown(effectiveTimeout) {
			finalErr = s.loop.finalErr
		} else {
			p.internalLog("warning - flush loop did not stop within %v, abandoning it\n", effectiveTimeout)
			finalErr = fmt.Errorf("%w (%v)", ErrStopTimeout, effectiveTimeout)
		}
		s.loop.cancel()
	}

	if s.timeCache != nil {
		s.timeCache.Stop()
	}

	if err := s.sink.Close(); err != nil {
		finalErr = combineErrors(finalErr, err)
	}

	// Anything still queued was accepted but never written
	if n := s.queue.reset(); n > 0 {
		p.state.Dropped.Add(uint64(n))
	}

	return finalErr
}

// Running reports whether the pipeline accepts records
func (p *Pipeline) Running() bool {
	return p.state.Running.Load()
}

// Disabled reports whether an unrecoverable sink error has stopped all writes until the next Start
func (p *Pipeline) Disabled() bool {
	return p.state.Disabled.Load()
}

// LastError returns the most recent runtime write error, nil if none occurred
func (p *Pipeline) LastError() error {
	if v, ok := p.state.LastError.Load().(errorBox); ok {
		return v.err
	}
	return nil
}

// Submit accepts a record. It never blocks on I/O in threaded mode and never panics.
// A nil or empty-string origin is rendered as absent.
func (p *Pipeline) Submit(message string, origin any, severity Severity) {
	p.gate.RLock()
	s := p.session.Load()
	if s == nil || !s.cfg.EnableLogging {
		p.gate.RUnlock()
		return
	}
	if p.state.Disabled.Load() {
		p.gate.RUnlock()
		p.state.Dropped.Add(1)
		return
	}

	rec := Record{
		Message:  message,
		Origin:   origin,
		Severity: severity,
		Time:     s.now(),
	}
	p.state.Submitted.Add(1)

	if s.loop != nil {
		s.queue.Push(rec)
		p.gate.RUnlock()

		if s.cfg.UseCallback && s.cfg.DispatchCallbackOnSubmit {
			p.notify(s.format(rec), severity)
		}
		return
	}

	// Synchronous mode: the caller is the writer. Subscribers run after
	// the gate is released so they may call back into the pipeline.
	delivered, err := p.writeBatch(context.Background(), s, []Record{rec})
	p.gate.RUnlock()
	if err != nil {
		p.internalLog("error - synchronous write failed: %v\n", err)
	}

	if s.cfg.UseCallback {
		if s.cfg.DispatchCallbackOnSubmit {
			p.notify(s.format(rec), severity)
		} else {
			p.notifyAll(delivered)
		}
	}
}

// Write submits a record at the given severity without an origin
func (p *Pipeline) Write(message string, severity Severity) {
	p.Submit(message, nil, severity)
}

// Info submits an informational record originating at the caller
func (p *Pipeline) Info(message string) {
	p.log(1, SeverityInfo, message)
}

// Warning submits a warning originating at the caller
func (p *Pipeline) Warning(message string) {
	p.log(1, SeverityWarning, message)
}

// Error submits an error originating at the caller
func (p *Pipeline) Error(message string) {
	p.log(1, SeverityError, message)
}

// Exception submits err at exception severity, nil errors are ignored
func (p *Pipeline) Exception(err error) {
	if err == nil {
		return
	}
	p.log(1, SeverityException, err.Error())
}

// Assert submits message at assert severity when condition is false
func (p *Pipeline) Assert(condition bool, message string) {
	if condition {
		return
	}
	p.log(1, SeverityAssert, message)
}

// log submits message with the call site skip frames above it as origin.
// The call site is only resolved when origins are rendered.
func (p *Pipeline) log(skip int, severity Severity, message string) {
	var origin any
	if s := p.session.Load(); s != nil && s.cfg.EnableLogging && s.cfg.EnableStacktrace {
		origin = CallerOrigin(skip+1, 1)
	}
	p.Submit(message, origin, severity)
}

// Capture is the Handler given to attached sources
func (p *Pipeline) Capture(message, origin string, severity Severity) {
	defer func() {
		if r := recover(); r != nil {
			p.internalLog("error - panic while capturing record: %v\n", r)
		}
	}()
	p.Submit(message, origin, severity)
}

// FlushAll writes and flushes every record accepted so far.
// In threaded mode the request is served by the flush loop and this call waits for it.
// While the loop is busy running writer-side subscribers the flush is done on the
// calling goroutine instead, so a subscriber may call FlushAll.
// Idempotent: with nothing pending it succeeds without writing.
func (p *Pipeline) FlushAll() error {
	s := p.session.Load()
	if s == nil {
		return ErrNotRunning
	}
	if s.loop != nil {
		if s.loop.dispatching.Load() > 0 {
			return p.flushQueued(s.loop.ctx, s)
		}
		return s.loop.request()
	}
	if err := s.sink.FlushToDisk(); err != nil {
		p.recordError(err)
		return err
	}
	return nil
}

// Subscribe registers fn to receive every formatted line with its severity.
// The returned function unsubscribes; it is safe to call more than once.
func (p *Pipeline) Subscribe(fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := p.subscribers.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() { p.subscribers.remove(id) })
	}
}

// notifyAll delivers written lines in order
func (p *Pipeline) notifyAll(delivered []delivery) {
	for _, d := range delivered {
		p.notify(d.line, d.severity)
	}
}

// notify fans a line out to the current subscribers; a panicking subscriber is logged and skipped
func (p *Pipeline) notify(line string, severity Severity) {
	for _, fn := range p.subscribers.load() {
		p.callSubscriber(fn, line, severity)
	}
}

func (p *Pipeline) callSubscriber(fn Subscriber, line string, severity Severity) {
	defer func() {
		if r := recover(); r != nil {
			p.internalLog("warning - subscriber panicked: %v\n", r)
		}
	}()
	fn(line, severity)
}

// disable marks the pipeline unusable after an unrecoverable sink error.
// Errors from an abandoned flush loop are ignored once its session is gone.
func (p *Pipeline) disable(s *session, err error) {
	if p.session.Load() != s {
		return
	}
	if p.state.Disabled.CompareAndSwap(false, true) {
		p.internalLog("error - output file unusable, further records are dropped: %v\n", err)
	}
}

// recordError keeps the most recent runtime write error
func (p *Pipeline) recordError(err error) {
	if err != nil {
		p.state.LastError.Store(errorBox{err: err})
	}
}

// getConfig returns the current configuration (thread-safe)
func (p *Pipeline) getConfig() *Config {
	return p.currentConfig.Load().(*Config)
}

// internalLog writes pipeline diagnostics to the diagnostic writer when enabled
func (p *Pipeline) internalLog(format string, args ...any) {
	cfg := p.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "logpipe: " prefix
	if !strings.HasPrefix(format, "logpipe: ") {
		format = "logpipe: " + format
	}

	p.diagMu.Lock()
	fmt.Fprintf(p.diag, format, args...)
	p.diagMu.Unlock()
}
