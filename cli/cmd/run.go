package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/arnolievens/mpimg/adapter"
	redisadapter "github.com/arnolievens/mpimg/adapter/redis"
	"github.com/arnolievens/mpimg/adapter/webhook"
	"github.com/arnolievens/mpimg/artwork"
	"github.com/arnolievens/mpimg/cli/render"
	"github.com/arnolievens/mpimg/iox"
	"github.com/arnolievens/mpimg/lode"
	"github.com/arnolievens/mpimg/log"
	"github.com/arnolievens/mpimg/metrics"
	"github.com/arnolievens/mpimg/mpd"
	"github.com/arnolievens/mpimg/output"
	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/runtime"
	"github.com/arnolievens/mpimg/types"
)

// FetchCommand returns the single-shot command.
func FetchCommand() *cli.Command {
	return modeCommand("fetch", "Fetch the artwork of the current or given song", types.ModeSingleShot)
}

// IdleCommand returns the wait-once command.
func IdleCommand() *cli.Command {
	return modeCommand("idle", "Wait for the next player event, then fetch", types.ModeWaitOnce)
}

// IdleLoopCommand returns the wait-forever command.
func IdleLoopCommand() *cli.Command {
	return modeCommand("idleloop", "Fetch after every player event until interrupted", types.ModeWaitForever)
}

func modeCommand(name, usage string, mode types.Mode) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: fetchFlags(),
		Action: func(c *cli.Context) error {
			return runAction(c, mode)
		},
	}
}

func runAction(c *cli.Context, mode types.Mode) error {
	opts, err := resolveOptions(c, mode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), runtime.ExitCodeConfig)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, collector, err := execute(ctx, opts, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), runtime.ExitCodeConfig)
	}

	if opts.summary {
		r, err := newRenderer(opts.format, c.App.ErrWriter)
		if err != nil {
			return cli.Exit(err.Error(), runtime.ExitCodeConfig)
		}
		if err := r.Render(newSummary(opts, result, collector.Snapshot())); err != nil {
			return cli.Exit(fmt.Sprintf("render summary: %v", err), runtime.ExitCodeFetch)
		}
	}

	code := result.ExitCode()
	if result.Err != nil && result.Outcome != runtime.OutcomeCanceled {
		return cli.Exit(fmt.Sprintf("mpimg: %v", result.Err), code)
	}
	return cli.Exit("", code)
}

// pipeline holds everything one run writes through.
type pipeline struct {
	logger    *log.Logger
	collector *metrics.Collector
	fetcher   *artwork.Fetcher
	policy    policy.Policy
	notifier  adapter.Adapter
}

func buildPipeline(ctx context.Context, opts *options, stdout, logw io.Writer) (*pipeline, error) {
	logger := log.NewLoggerTo(log.Context{Target: opts.target, Mode: opts.mode}, opts.verbose, logw)

	backend := ""
	if opts.archive != nil {
		backend = opts.archive.Backend
	}
	collector := metrics.NewCollector(string(opts.mode), string(opts.source), opts.policyName, backend, opts.target.String())

	sink, err := output.New(opts.output, stdout)
	if err != nil {
		return nil, err
	}
	if opts.archive != nil {
		factory, err := lode.NewFactory(ctx, *opts.archive)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		archive, err := lode.NewArchiveSink(factory, opts.source)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		sink = policy.Tee(sink, lode.NewInstrumentedSink(archive, collector))
	}

	pol, err := policy.New(opts.policyName, sink, opts.stateFile)
	if err != nil {
		iox.DiscardClose(sink)
		return nil, err
	}

	notifier, err := buildAdapter(opts)
	if err != nil {
		iox.DiscardClose(pol)
		return nil, err
	}

	return &pipeline{
		logger:    logger,
		collector: collector,
		fetcher: &artwork.Fetcher{
			Source:    opts.source,
			MaxSize:   opts.maxSize,
			Collector: collector,
			Logger:    logger,
		},
		policy:   pol,
		notifier: notifier,
	}, nil
}

func buildAdapter(opts *options) (adapter.Adapter, error) {
	switch opts.adapterType {
	case adapterWebhook:
		return webhook.New(webhook.Config{
			URL:     opts.adapterURL,
			Headers: opts.adapterHeaders,
			Timeout: opts.adapterTimeout,
			Retries: opts.adapterRetries,
		})
	case adapterRedis:
		return redisadapter.New(redisadapter.Config{
			URL:     opts.adapterURL,
			Channel: opts.adapterChannel,
			Timeout: opts.adapterTimeout,
			Retries: opts.adapterRetries,
		})
	default:
		return nil, nil
	}
}

// Close closes the policy, which closes its sinks, and the notifier.
func (p *pipeline) Close() error {
	err := p.policy.Close()
	if p.notifier != nil {
		err = errors.Join(err, p.notifier.Close())
	}
	_ = p.logger.Sync()
	return err
}

// execute connects and runs the loop. It returns an error only when the
// pipeline cannot be built; connection failures are reported in the result.
func execute(ctx context.Context, opts *options, stdout, logw io.Writer) (*runtime.Result, *metrics.Collector, error) {
	p, err := buildPipeline(ctx, opts, stdout, logw)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := p.Close(); err != nil {
			p.logger.Sugar().Warnf("close failed: %v", err)
		}
	}()

	cfg := &runtime.Config{
		Mode:         opts.mode,
		Track:        opts.song,
		Fetcher:      p.fetcher,
		Policy:       p.policy,
		Notifier:     p.notifier,
		NotifyOutput: opts.output,
		Logger:       p.logger,
		Collector:    p.collector,
	}
	loop, err := runtime.NewLoop(cfg)
	if err != nil {
		return nil, nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.dialTimeout)
	session, err := mpd.Open(dialCtx, opts.target)
	cancel()
	if err != nil {
		result := &runtime.Result{
			Final:   runtime.StateFailed,
			Outcome: runtime.Classify(err).Outcome,
			Err:     err,
			Mode:    opts.mode,
		}
		if ctx.Err() != nil {
			result.Outcome = runtime.OutcomeCanceled
		}
		p.logger.Error("connect failed", map[string]any{"error": err.Error()})
		return result, p.collector, nil
	}
	defer iox.DiscardClose(session)

	stopClose := iox.CloseOnDone(ctx, session)
	defer stopClose()

	p.logger.Debug("connected", map[string]any{"version": session.Version()})
	return loop.Run(ctx, session), p.collector, nil
}

// newRenderer prefers TTY detection when w is a file.
func newRenderer(format string, w io.Writer) (*render.Renderer, error) {
	if f, ok := w.(*os.File); ok {
		return render.NewRenderer(format, f)
	}
	parsed, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if parsed == "" {
		parsed = render.FormatJSON
	}
	return render.NewRendererWithWriter(parsed, w), nil
}
