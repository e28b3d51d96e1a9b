// Package main provides the mpimg CLI entrypoint.
//
// Usage:
//
//	mpimg <fetch|idle|idleloop|history|version> [options]
//
// Exit codes:
//   - 0: artwork written, or idleloop stopped by signal
//   - 1: fetch, resolve or protocol failure
//   - 2: connection or transport failure
//   - 3: output sink failure
//   - 4: invalid configuration
//   - 130: fetch or idle interrupted by signal
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/cli/cmd"
	"github.com/arnolievens/mpimg/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "mpimg",
		Usage:          "Fetch the album artwork of the playing MPD song",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.FetchCommand(),
			cmd.IdleCommand(),
			cmd.IdleLoopCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(reportExit(os.Stderr, err))
}

// reportExit prints the message carried by err and returns its exit code.
// cli.Exit("", N) prints nothing.
func reportExit(w io.Writer, err error) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		return code
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
