// logpipe feeds text into a log pipeline from the command line.
//
// Usage:
//
//	logpipe [global options] <command> [command options]
//
// Commands:
//
//	run      read lines from stdin and write each as a record
//	stress   submit records from many goroutines and report counters
//
// Examples:
//
//	tail -f app.out | logpipe --config logpipe.toml run
//	logpipe -o ./logs/stress.txt stress --workers 64 --records 10000
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Version may be set with -ldflags "-X main.Version=..."
var Version = "0.1.0-dev"

func main() {
	if err := createApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "logpipe:", err)
		os.Exit(1)
	}
}

// createApp builds the CLI command tree
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "logpipe",
		Usage:   "asynchronous file logging pipeline",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file with a [logpipe] section",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file path, overrides the configuration",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "configuration override as key=value, repeatable",
			},
		},
		Commands: []*cli.Command{
			createRunCommand(),
			createStressCommand(),
		},
	}
}
