// FILE: lixenwraith/logpipe/sink.go
package logpipe

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// SinkWriter owns the open output file and its buffer.
// The pipeline gives it a single writer; the mutex only protects the handle
// against a Stop that abandons a flush loop still mid-write.
type SinkWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	buf    *bufio.Writer
	size   int64
	closed bool
}

// OpenSink creates (or truncates) the file at path and wraps it in a buffered writer
func OpenSink(path string) (*SinkWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmtErrorf("failed to create output directory '%s': %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open/create output file '%s': %w", path, err)
	}

	return &SinkWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriterSize(file, 64*1024),
	}, nil
}

// Path returns the output file path
func (s *SinkWriter) Path() string {
	return s.path
}

// Size returns the number of bytes appended since open
func (s *SinkWriter) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Append adds raw text to the buffer
func (s *SinkWriter) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	n, err := s.buf.WriteString(line)
	s.size += int64(n)
	if err != nil {
		// bufio errors are sticky; drop the failed buffer so later appends can retry
		s.buf.Reset(s.file)
		return fmtErrorf("failed to append to '%s': %w", s.path, err)
	}
	return nil
}

// FlushToDisk pushes buffered bytes to the file and syncs it to durable storage
func (s *SinkWriter) FlushToDisk() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	return s.flushLocked()
}

// Close flushes and releases the file handle. Safe to call multiple times.
func (s *SinkWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushLocked()
	if err := s.file.Close(); err != nil {
		flushErr = combineErrors(flushErr, fmtErrorf("failed to close output file '%s': %w", s.path, err))
	}
	return flushErr
}

// flushLocked assumes mu is held
func (s *SinkWriter) flushLocked() error {
	if err := s.buf.Flush(); err != nil {
		s.buf.Reset(s.file)
		return fmtErrorf("failed to flush output file '%s': %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmtErrorf("failed to sync output file '%s': %w", s.path, err)
	}
	return nil
}

// isUnrecoverable reports write errors after which the sink can never accept data again
func isUnrecoverable(err error) bool {
	return errors.Is(err, ErrSinkClosed) || errors.Is(err, os.ErrClosed)
}
