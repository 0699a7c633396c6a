// FILE: example/gnet/main.go
package main

import (
	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
	pipeline *logpipe.Pipeline
}

func (es *echoServer) OnBoot(eng gnet.Engine) gnet.Action {
	es.pipeline.Info("echo server booted")
	return gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	p, err := logpipe.NewBuilder().
		OutputPath("/var/log/gnet/log.txt").
		Backup("/var/log/gnet/backups").
		MaxBackups(5).
		Build()
	if err != nil {
		panic(err)
	}

	// Adapters must be registered before Start
	gnetAdapter, err := compat.NewBuilder().WithPipeline(p).BuildGnet()
	if err != nil {
		panic(err)
	}

	if err := p.Start(); err != nil {
		panic(err)
	}
	defer p.Stop()

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{pipeline: p},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		p.Exception(err)
	}
}
