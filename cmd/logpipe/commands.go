package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/compat"
)

// loadConfig resolves the configuration from the global flags
func loadConfig(cmd *cli.Command) (*logpipe.Config, error) {
	cfg := logpipe.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := logpipe.NewConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := cmd.StringSlice("set")
	if out := cmd.String("output"); out != "" {
		overrides = append(overrides, "output_path="+out)
	}
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startPipeline builds and starts a pipeline from the global flags
func startPipeline(cmd *cli.Command, opts ...logpipe.Option) (*logpipe.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	p := logpipe.NewPipeline(opts...)
	if err := p.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "write each stdin line as a record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "severity",
				Aliases: []string{"l"},
				Usage:   "fixed severity (info, warning, error, exception, assert); detected from content when empty",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "origin attached to every record",
			},
			&cli.BoolFlag{
				Name:  "echo",
				Usage: "print every written line to stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			detect := compat.DetectSeverity
			if name := cmd.String("severity"); name != "" {
				sev, err := logpipe.ParseSeverity(name)
				if err != nil {
					return err
				}
				detect = func(string) logpipe.Severity { return sev }
			}

			p, err := startPipeline(cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("echo") {
				unsubscribe := p.Subscribe(func(line string, _ logpipe.Severity) {
					fmt.Fprint(os.Stdout, line)
				})
				defer unsubscribe()
			}

			origin := cmd.String("origin")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := scanner.Text()
				p.Submit(line, origin, detect(line))
			}

			stopErr := p.Stop()
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			return stopErr
		},
	}
}

func createStressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "submit records concurrently and report pipeline counters",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "number of submitting goroutines",
				Value:   32,
			},
			&cli.IntFlag{
				Name:    "records",
				Aliases: []string{"n"},
				Usage:   "records per worker",
				Value:   1000,
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "maximum message size in bytes",
				Value: 256,
			},
			&cli.DurationFlag{
				Name:  "flush-every",
				Usage: "call FlushAll on this period while submitting, 0 disables",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			workers := int(cmd.Int("workers"))
			records := int(cmd.Int("records"))
			size := int(cmd.Int("size"))
			if workers <= 0 || records <= 0 || size <= 0 {
				return fmt.Errorf("workers, records and size must be positive")
			}

			p, err := startPipeline(cmd)
			if err != nil {
				return err
			}

			done := make(chan struct{})
			if every := cmd.Duration("flush-every"); every > 0 {
				go func() {
					ticker := time.NewTicker(every)
					defer ticker.Stop()
					for {
						select {
						case <-done:
							return
						case <-ticker.C:
							if err := p.FlushAll(); err != nil {
								fmt.Fprintln(os.Stderr, "flush:", err)
							}
						}
					}
				}()
			}

			start := time.Now()
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					rng := rand.New(rand.NewSource(int64(id) + start.UnixNano()))
					for i := 0; i < records; i++ {
						msg := fmt.Sprintf("worker=%d seq=%d %s", id, i, randomText(rng, rng.Intn(size)+1))
						p.Submit(msg, nil, logpipe.Severity(rng.Intn(int(logpipe.SeverityAssert)+1)))
					}
				}(w)
			}
			wg.Wait()
			close(done)

			stopErr := p.Stop()
			elapsed := time.Since(start)
			st := p.Stats()

			fmt.Printf("submitted %d records from %d workers in %v (%.0f records/s)\n",
				st.Submitted, workers, elapsed, float64(st.Submitted)/elapsed.Seconds())
			fmt.Println(st.String())
			return stopErr
		},
	}
}

func randomText(rng *rand.Rand, n int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(chars[rng.Intn(len(chars))])
	}
	return sb.String()
}
