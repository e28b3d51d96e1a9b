package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/cli/config"
	"github.com/arnolievens/mpimg/lode"
	"github.com/arnolievens/mpimg/runtime"
)

// HistoryEntry is one row of the history command.
type HistoryEntry struct {
	FetchedAt   string `json:"fetched_at" yaml:"fetched_at"`
	URI         string `json:"uri" yaml:"uri"`
	Key         string `json:"key" yaml:"key"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"content_type" yaml:"content_type"`
	SHA256      string `json:"sha256" yaml:"sha256"`
	Source      string `json:"source" yaml:"source"`
}

// HistoryCommand returns the history command. It reads the archive
// manifest and never contacts MPD.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List archived artwork, latest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to mpimg.yaml config file",
			},
			&cli.StringFlag{
				Name:  "archive-backend",
				Usage: "Archive backend: fs or s3",
				Value: lode.BackendFS,
			},
			&cli.StringFlag{
				Name:  "archive-path",
				Usage: "Archive location (fs: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "archive-s3-region",
				Usage: "AWS region for the S3 archive (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:    "song",
				Aliases: []string{"s"},
				Usage:   "Only list artwork of this song URI",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries (0 = all)",
				Value:   20,
			},
			FormatFlag,
		},
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), runtime.ExitCodeConfig)
		}
		cfg = loaded
	}

	store := lode.StoreConfig{
		Backend:      resolveString(c, "archive-backend", configVal(cfg, func(f *config.Config) string { return f.Archive.Backend })),
		Path:         resolveString(c, "archive-path", configVal(cfg, func(f *config.Config) string { return f.Archive.Path })),
		Region:       resolveString(c, "archive-s3-region", configVal(cfg, func(f *config.Config) string { return f.Archive.S3Region })),
		Endpoint:     configVal(cfg, func(f *config.Config) string { return f.Archive.S3Endpoint }),
		UsePathStyle: configVal(cfg, func(f *config.Config) bool { return f.Archive.S3PathStyle }),
	}
	if err := store.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), runtime.ExitCodeConfig)
	}
	if c.Int("limit") < 0 {
		return cli.Exit("invalid configuration: --limit must be >= 0", runtime.ExitCodeConfig)
	}
	r, err := newRenderer(c.String("format"), c.App.Writer)
	if err != nil {
		return cli.Exit(err.Error(), runtime.ExitCodeConfig)
	}

	factory, err := lode.NewFactory(c.Context, store)
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), runtime.ExitCodeSink)
	}
	ds, err := lode.NewManifestDataset(factory)
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), runtime.ExitCodeSink)
	}
	records, err := lode.QueryHistory(c.Context, ds, c.String("song"), c.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), runtime.ExitCodeSink)
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			FetchedAt:   rec.FetchedAt,
			URI:         rec.URI,
			Key:         rec.Key,
			Size:        rec.Size,
			ContentType: rec.ContentType,
			SHA256:      rec.SHA256,
			Source:      rec.Source,
		})
	}
	return r.Render(entries)
}
