// FILE: lixenwraith/logpipe/compat/builder.go
package compat

import (
	"fmt"
	"log"

	"github.com/lixenwraith/logpipe"
)

// Builder creates adapters for gnet, fasthttp and the standard log package
// and registers them as sources of one pipeline.
// It can use an existing *logpipe.Pipeline or create a new one from a *logpipe.Config.
// Adapters must be built before the pipeline is started.
type Builder struct {
	pipeline *logpipe.Pipeline
	cfg      *logpipe.Config
	err      error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithPipeline specifies an existing, stopped pipeline for the adapters
// If this is set WithConfig is ignored
func (b *Builder) WithPipeline(p *logpipe.Pipeline) *Builder {
	if p == nil {
		b.err = fmt.Errorf("logpipe/compat: provided pipeline cannot be nil")
		return b
	}
	b.pipeline = p
	return b
}

// WithConfig provides a configuration for a new pipeline instance
// This is used only if an existing pipeline is NOT provided via WithPipeline
func (b *Builder) WithConfig(cfg *logpipe.Config) *Builder {
	b.cfg = cfg
	return b
}

// getPipeline resolves the pipeline to be used, creating one if necessary
func (b *Builder) getPipeline() (*logpipe.Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.pipeline != nil {
		return b.pipeline, nil
	}

	p := logpipe.NewPipeline()
	cfg := b.cfg
	if cfg == nil {
		cfg = logpipe.DefaultConfig()
	}

	if err := p.ApplyConfig(cfg); err != nil {
		return nil, err
	}

	// Cache the newly created pipeline for subsequent builds with this builder
	b.pipeline = p
	return p, nil
}

// BuildGnet creates a gnet adapter attached to the pipeline.
// Fatalf flushes the pipeline before invoking the fatal handler.
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	p, err := b.getPipeline()
	if err != nil {
		return nil, err
	}
	adapter := NewGnetAdapter(append([]GnetOption{WithFlusher(p.FlushAll)}, opts...)...)
	if err := p.AddSource(adapter); err != nil {
		return nil, err
	}
	return adapter, nil
}

// BuildFastHTTP creates a fasthttp adapter attached to the pipeline
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	p, err := b.getPipeline()
	if err != nil {
		return nil, err
	}
	adapter := NewFastHTTPAdapter(opts...)
	if err := p.AddSource(adapter); err != nil {
		return nil, err
	}
	return adapter, nil
}

// BuildStdLog captures l (the standard logger when nil) into the pipeline
func (b *Builder) BuildStdLog(l *log.Logger) (*StdLogSource, error) {
	p, err := b.getPipeline()
	if err != nil {
		return nil, err
	}
	src := NewStdLogSource(l)
	if err := p.AddSource(src); err != nil {
		return nil, err
	}
	return src, nil
}

// GetPipeline returns the underlying pipeline
// If a pipeline has not been provided or created yet, it will be initialized
func (b *Builder) GetPipeline() (*logpipe.Pipeline, error) {
	return b.getPipeline()
}

// --- Example Usage ---
//
//	// 1. Create and configure the application's pipeline
//	p, err := logpipe.NewBuilder().OutputPath("/var/log/app/log.txt").Build()
//	if err != nil { /* handle error */ }
//
//	// 2. Build the required adapters before starting
//	builder := compat.NewBuilder().WithPipeline(p)
//	gnetLogger, err := builder.BuildGnet()
//	fasthttpLogger, err := builder.BuildFastHTTP()
//
//	// 3. Start the pipeline, which attaches every adapter
//	if err := p.Start(); err != nil { /* handle error */ }
//	defer p.Stop()
//
//	// 4. Configure your servers with the adapters
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
