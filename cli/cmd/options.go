package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/cli/config"
	"github.com/arnolievens/mpimg/cli/render"
	"github.com/arnolievens/mpimg/lode"
	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

const defaultDialTimeout = 10 * time.Second

// Notification adapter types.
const (
	adapterWebhook = "webhook"
	adapterRedis   = "redis"
)

// options is the merged configuration of one invocation.
type options struct {
	mode        types.Mode
	target      types.Target
	dialTimeout time.Duration

	output  string
	song    string
	source  types.Source
	maxSize int64

	policyName string
	stateFile  string

	archive *lode.StoreConfig

	adapterType    string
	adapterURL     string
	adapterChannel string
	adapterHeaders map[string]string
	adapterTimeout time.Duration
	adapterRetries int

	verbose bool
	summary bool
	format  string
}

// resolveOptions merges flags, environment and the config file, in that
// order of precedence, and validates the result.
func resolveOptions(c *cli.Context, mode types.Mode) (*options, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	host, hostPassword := types.ParseHost(resolveString(c, "host", configVal(cfg, func(f *config.Config) string { return f.Host })))
	password := resolveString(c, "password", configVal(cfg, func(f *config.Config) string { return f.Password }))
	if password == "" {
		password = hostPassword
	}

	opts := &options{
		mode: mode,
		target: types.Target{
			Host:     host,
			Port:     resolveUint(c, "port", configVal(cfg, func(f *config.Config) uint { return f.Port })),
			Password: password,
		},
		dialTimeout: resolveDuration(c, "dial-timeout", configVal(cfg, func(f *config.Config) time.Duration { return f.DialTimeout.Duration })),
		output:      resolveString(c, "output", configVal(cfg, func(f *config.Config) string { return f.Output })),
		song:        resolveString(c, "song", configVal(cfg, func(f *config.Config) string { return f.Song })),
		source:      types.SourceAlbumArt,
		maxSize:     resolveInt64(c, "max-size", configVal(cfg, func(f *config.Config) int64 { return f.MaxSize })),
		policyName:  resolveString(c, "policy", configVal(cfg, func(f *config.Config) string { return f.Policy.Name })),
		stateFile:   resolveString(c, "state-file", configVal(cfg, func(f *config.Config) string { return f.Policy.StateFile })),
		adapterType: resolveString(c, "adapter", configVal(cfg, func(f *config.Config) string { return f.Adapter.Type })),
		adapterURL:  resolveString(c, "adapter-url", configVal(cfg, func(f *config.Config) string { return f.Adapter.URL })),
		adapterChannel: resolveString(c, "adapter-channel",
			configVal(cfg, func(f *config.Config) string { return f.Adapter.Channel })),
		adapterHeaders: configVal(cfg, func(f *config.Config) map[string]string { return f.Adapter.Headers }),
		adapterTimeout: configVal(cfg, func(f *config.Config) time.Duration { return f.Adapter.Timeout.Duration }),
		verbose:        resolveBool(c, "verbose", configVal(cfg, func(f *config.Config) bool { return f.Verbose })),
		summary:        c.Bool("summary"),
		format:         c.String("format"),
	}
	if retries := configVal(cfg, func(f *config.Config) *int { return f.Adapter.Retries }); retries != nil {
		opts.adapterRetries = *retries
	}
	if resolveBool(c, "picture", configVal(cfg, func(f *config.Config) bool { return f.Picture })) {
		opts.source = types.SourceReadPicture
	}

	if path := resolveString(c, "archive-path", configVal(cfg, func(f *config.Config) string { return f.Archive.Path })); path != "" {
		opts.archive = &lode.StoreConfig{
			Backend:      resolveString(c, "archive-backend", configVal(cfg, func(f *config.Config) string { return f.Archive.Backend })),
			Path:         path,
			Region:       resolveString(c, "archive-s3-region", configVal(cfg, func(f *config.Config) string { return f.Archive.S3Region })),
			Endpoint:     configVal(cfg, func(f *config.Config) string { return f.Archive.S3Endpoint }),
			UsePathStyle: configVal(cfg, func(f *config.Config) bool { return f.Archive.S3PathStyle }),
		}
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *options) validate() error {
	if err := o.target.Validate(); err != nil {
		return err
	}
	if o.output == "" {
		return errors.New("--output is required (or set MPD_ALBUMART)")
	}
	if o.maxSize <= 0 {
		return fmt.Errorf("--max-size must be > 0, got %d", o.maxSize)
	}
	if o.dialTimeout <= 0 {
		return fmt.Errorf("--dial-timeout must be > 0, got %s", o.dialTimeout)
	}
	switch o.policyName {
	case policy.NameAlways:
		if o.stateFile != "" {
			return errors.New("--state-file requires --policy changed")
		}
	case policy.NameChanged:
	default:
		return fmt.Errorf("invalid policy: %s (must be %s or %s)", o.policyName, policy.NameAlways, policy.NameChanged)
	}
	if o.archive != nil {
		if err := o.archive.Validate(); err != nil {
			return err
		}
	}
	switch o.adapterType {
	case "":
		if o.adapterURL != "" {
			return errors.New("--adapter-url requires --adapter")
		}
	case adapterWebhook, adapterRedis:
		if o.adapterURL == "" {
			return fmt.Errorf("--adapter %s requires --adapter-url", o.adapterType)
		}
		if o.adapterChannel != "" && o.adapterType != adapterRedis {
			return errors.New("--adapter-channel is only valid for the redis adapter")
		}
	default:
		return fmt.Errorf("invalid adapter: %s (must be %s or %s)", o.adapterType, adapterWebhook, adapterRedis)
	}
	if o.adapterRetries < 0 {
		return fmt.Errorf("adapter retries must be >= 0, got %d", o.adapterRetries)
	}
	if _, err := render.ParseFormat(o.format); err != nil {
		return err
	}
	return nil
}
