// Package cmd provides the mpimg commands.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/artwork"
	"github.com/arnolievens/mpimg/types"
)

// FormatFlag selects output format for version and the run summary.
var FormatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "Output format: json, table, yaml",
}

// fetchFlags returns the flags shared by fetch, idle and idleloop.
func fetchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to mpimg.yaml config file",
		},
		// Connection
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "MPD host, socket path or @abstract socket, optionally password@host",
			Value:   types.DefaultHost,
			EnvVars: []string{"MPD_HOST"},
		},
		&cli.UintFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "MPD port",
			Value:   types.DefaultPort,
			EnvVars: []string{"MPD_PORT"},
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "MPD password (overrides password@host)",
		},
		&cli.DurationFlag{
			Name:  "dial-timeout",
			Usage: "Timeout for connecting and the server greeting",
			Value: defaultDialTimeout,
		},
		// Artwork
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file, or - for stdout",
			EnvVars: []string{"MPD_ALBUMART"},
		},
		&cli.StringFlag{
			Name:    "song",
			Aliases: []string{"s"},
			Usage:   "Song URI (default: current song)",
		},
		&cli.BoolFlag{
			Name:  "picture",
			Usage: "Read the picture embedded in the song (readpicture) instead of the directory cover (albumart)",
		},
		&cli.Int64Flag{
			Name:  "max-size",
			Usage: "Largest accepted artwork in bytes",
			Value: artwork.DefaultMaxSize,
		},
		// Policy
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Emit policy: always or changed",
			Value: "always",
		},
		&cli.StringFlag{
			Name:  "state-file",
			Usage: "State file of the changed policy (default: in memory)",
		},
		// Archive
		&cli.StringFlag{
			Name:  "archive-backend",
			Usage: "Archive backend: fs or s3",
			Value: "fs",
		},
		&cli.StringFlag{
			Name:  "archive-path",
			Usage: "Archive location (fs: directory, s3: bucket/prefix); empty disables the archive",
		},
		&cli.StringFlag{
			Name:  "archive-s3-region",
			Usage: "AWS region for the S3 archive (optional, uses default chain)",
		},
		// Notifications
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notification adapter: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or redis:// URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis channel (default mpimg:artwork_updated)",
		},
		// Output control
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log every chunk, wait and resolved track",
		},
		&cli.BoolFlag{
			Name:  "summary",
			Usage: "Print a run summary to stderr on exit",
		},
		FormatFlag,
	}
}
