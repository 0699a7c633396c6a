// FILE: example/fasthttp/main.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/compat"
)

func main() {
	p := logpipe.NewPipeline()
	err := p.ApplyConfigString(
		"output_path=/var/log/fasthttp/log.txt",
		"backup_directory=/var/log/fasthttp/backups",
		"flush_interval_ms=50",
		"strip_stacktrace=false",
	)
	if err != nil {
		panic(err)
	}

	// Create fasthttp adapter with custom severity detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		compat.WithSeverityDetector(customSeverityDetector),
	)
	if err := p.AddSource(fasthttpAdapter); err != nil {
		panic(err)
	}

	if err := p.Start(); err != nil {
		panic(err)
	}
	defer p.Stop()

	// Mirror errors to the console
	unsubscribe := p.Subscribe(func(line string, severity logpipe.Severity) {
		if severity >= logpipe.SeverityError {
			fmt.Print(line)
		}
	})
	defer unsubscribe()

	// Configure fasthttp server
	server := &fasthttp.Server{
		Handler: requestHandler,
		Logger:  fasthttpAdapter,

		// Other server settings
		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	// Start server
	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		p.Exception(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
}

func customSeverityDetector(msg string) logpipe.Severity {
	// fasthttp connection-level messages
	if strings.Contains(msg, "connection cannot be served") {
		return logpipe.SeverityWarning
	}
	if strings.Contains(msg, "error when serving connection") {
		return logpipe.SeverityError
	}

	// Use default detection
	return compat.DetectSeverity(msg)
}
