// Package runtime drives the refetch loop: wait for a player event, resolve
// the track, fetch its artwork, emit it, and repeat in continuous mode.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnolievens/mpimg/adapter"
	"github.com/arnolievens/mpimg/artwork"
	"github.com/arnolievens/mpimg/log"
	"github.com/arnolievens/mpimg/metrics"
	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

// State is a refetch loop state.
type State string

const (
	StateStart        State = "start"
	StateMaybeWait    State = "maybe_wait"
	StateResolveTrack State = "resolve_track"
	StateFetch        State = "fetch"
	StateEmit         State = "emit"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// DefaultNotifyTimeout bounds one notification publish.
const DefaultNotifyTimeout = 10 * time.Second

// Config configures a refetch loop.
type Config struct {
	// Mode is the operating mode. Required.
	Mode types.Mode
	// Track is an explicit track URI. Empty resolves the current track on
	// every iteration.
	Track string
	// Fetcher reassembles artwork. Required.
	Fetcher *artwork.Fetcher
	// Policy receives fetched artwork. Required.
	Policy policy.Policy
	// Notifier is told about every written artwork. Optional; failures are
	// logged and counted, never fatal.
	Notifier adapter.Adapter
	// NotifyOutput is reported as the output in notifications.
	NotifyOutput string
	// NotifyTimeout bounds one publish (default 10s).
	NotifyTimeout time.Duration
	// Logger receives loop entries. If nil, nothing is logged.
	Logger *log.Logger
	// Collector records loop counters. May be nil.
	Collector *metrics.Collector
	// OnTransition, if set, is called synchronously on every state change.
	OnTransition func(from, to State)
	// Now overrides the clock (for testing).
	Now func() time.Time
}

// Result is the outcome of a loop run.
type Result struct {
	// Final is StateDone or StateFailed.
	Final State
	// Outcome is the terminal status.
	Outcome Outcome
	// Err is the error that ended the loop; nil on success.
	Err error
	// Mode is the operating mode of the run.
	Mode types.Mode
	// Iterations is the number of passes through MAYBE_WAIT.
	Iterations int64
	// LastURI is the track of the last written artwork.
	LastURI string
	// PolicyStats is the final emit stage snapshot.
	PolicyStats policy.Stats
	// Duration is the total run time.
	Duration time.Duration
}

// ExitCode returns the process exit code for the result.
func (r *Result) ExitCode() int {
	return ExitCode(r.Outcome, r.Mode)
}

// Loop is the refetch state machine over one session.
type Loop struct {
	config *Config
	logger *log.Logger
	now    func() time.Time
}

// NewLoop validates the config and creates a loop.
func NewLoop(config *Config) (*Loop, error) {
	switch config.Mode {
	case types.ModeSingleShot, types.ModeWaitOnce, types.ModeWaitForever:
	default:
		return nil, fmt.Errorf("invalid loop mode %q", config.Mode)
	}
	if config.Fetcher == nil {
		return nil, errors.New("loop requires a fetcher")
	}
	if config.Policy == nil {
		return nil, errors.New("loop requires a policy")
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Loop{config: config, logger: logger, now: now}, nil
}

// Run executes the state machine on s until DONE or FAILED.
//
// Run blocks in MAYBE_WAIT for as long as the server reports no player
// event. To stop it, cancel ctx and close s from the supervising goroutine
// (see iox.CloseOnDone); the resulting transport error is reported as
// OutcomeCanceled.
func (l *Loop) Run(ctx context.Context, s artwork.Session) *Result {
	start := l.now()
	cfg := l.config
	mode := cfg.Mode
	result := &Result{Mode: mode}

	var (
		state   = StateStart
		uri     string
		fetched *types.Artwork
		failErr error
	)

	next := func(to State) {
		if cfg.OnTransition != nil {
			cfg.OnTransition(state, to)
		}
		state = to
	}

	// retry reports whether a transient failure re-enters MAYBE_WAIT.
	retry := func(err error) bool {
		cls := Classify(err)
		cfg.Collector.IncFailure(cls.Kind)
		if !cls.Transient || !mode.Continuous() || ctx.Err() != nil {
			return false
		}
		l.logger.Warn("transient failure, waiting for next player event", map[string]any{
			"state": string(state),
			"kind":  cls.Kind,
			"error": err.Error(),
		})
		next(StateMaybeWait)
		return true
	}

	for {
		switch state {
		case StateStart:
			l.logger.Debug("loop started", map[string]any{
				"track": cfg.Track,
			})
			next(StateMaybeWait)

		case StateMaybeWait:
			if err := ctx.Err(); err != nil {
				failErr = err
				next(StateFailed)
				continue
			}
			result.Iterations++
			cfg.Collector.IncIteration()

			if mode.Waits() {
				l.logger.Debug("waiting for player event", nil)
				changed, err := artwork.WaitForPlayerEvent(s)
				if err != nil {
					failErr = err
					next(StateFailed)
					continue
				}
				cfg.Collector.IncWait()
				l.logger.Debug("player event", map[string]any{"changed": changed})
			}
			next(StateResolveTrack)

		case StateResolveTrack:
			uri = cfg.Track
			if uri == "" {
				resolved, err := artwork.ResolveCurrent(s)
				if err != nil {
					if artwork.IsNoCurrentTrack(err) {
						cfg.Collector.IncNoCurrentTrack()
					}
					if retry(err) {
						continue
					}
					failErr = err
					next(StateFailed)
					continue
				}
				uri = resolved
				l.logger.Debug("resolved current track", map[string]any{"uri": uri})
			}
			next(StateFetch)

		case StateFetch:
			data, err := cfg.Fetcher.Fetch(s, uri)
			if err != nil {
				if retry(err) {
					continue
				}
				failErr = err
				next(StateFailed)
				continue
			}
			fetched = types.NewArtwork(uri, data, l.now())
			next(StateEmit)

		case StateEmit:
			art := fetched
			fetched = nil

			written, err := cfg.Policy.Emit(ctx, art)
			if err != nil {
				cfg.Collector.IncFailure(Classify(err).Kind)
				failErr = err
				next(StateFailed)
				continue
			}
			if written {
				result.LastURI = art.URI
				l.logger.Info("artwork emitted", map[string]any{
					"uri":          art.URI,
					"size":         art.Size(),
					"content_type": art.ContentType(),
				})
				l.notify(ctx, art)
			} else {
				l.logger.Debug("artwork unchanged, skipped", map[string]any{"uri": art.URI})
			}

			if mode.Continuous() {
				next(StateMaybeWait)
			} else {
				next(StateDone)
			}

		case StateDone, StateFailed:
			return l.finish(ctx, result, state, failErr, start)
		}
	}
}

// finish flushes the policy and fills the result.
func (l *Loop) finish(ctx context.Context, result *Result, final State, err error, start time.Time) *Result {
	cfg := l.config

	if flushErr := cfg.Policy.Flush(context.WithoutCancel(ctx)); flushErr != nil && err == nil {
		final, err = StateFailed, flushErr
	}

	stats := cfg.Policy.Stats()
	cfg.Collector.AbsorbPolicyStats(stats.Written, stats.Skipped, stats.Errors)

	result.Final = final
	result.Err = err
	result.PolicyStats = stats
	result.Duration = l.now().Sub(start)

	switch {
	case err == nil:
		result.Outcome = OutcomeSuccess
	case ctx.Err() != nil && !policy.IsIOError(err):
		// A closed session is how cancellation reaches a blocked read.
		result.Outcome = OutcomeCanceled
	default:
		result.Outcome = Classify(err).Outcome
	}

	fields := map[string]any{
		"outcome":     string(result.Outcome),
		"iterations":  result.Iterations,
		"written":     stats.Written,
		"skipped":     stats.Skipped,
		"duration_ms": result.Duration.Milliseconds(),
	}
	switch result.Outcome {
	case OutcomeSuccess, OutcomeCanceled:
		l.logger.Info("loop finished", fields)
	default:
		fields["error"] = err.Error()
		l.logger.Error("loop failed", fields)
	}
	return result
}

// notify publishes an artwork_updated event. Failures are non-fatal.
func (l *Loop) notify(ctx context.Context, art *types.Artwork) {
	cfg := l.config
	if cfg.Notifier == nil {
		return
	}

	timeout := cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	event := adapter.NewArtworkUpdatedEvent(art, cfg.Fetcher.Command(), cfg.NotifyOutput)
	if err := cfg.Notifier.Publish(pubCtx, event); err != nil {
		cfg.Collector.IncNotifyFailure()
		l.logger.Warn("notification failed", map[string]any{
			"uri":   art.URI,
			"error": err.Error(),
		})
		return
	}
	cfg.Collector.IncNotifySuccess()
}
