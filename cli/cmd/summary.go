package cmd

import (
	"github.com/arnolievens/mpimg/metrics"
	"github.com/arnolievens/mpimg/runtime"
)

// Summary is the run summary printed with --summary.
type Summary struct {
	Outcome    string   `json:"outcome" yaml:"outcome"`
	ExitCode   int      `json:"exit_code" yaml:"exit_code"`
	Mode       string   `json:"mode" yaml:"mode"`
	Target     string   `json:"target" yaml:"target"`
	Source     string   `json:"source" yaml:"source"`
	Policy     string   `json:"policy" yaml:"policy"`
	LastURI    string   `json:"last_uri,omitempty" yaml:"last_uri,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64    `json:"duration_ms" yaml:"duration_ms"`
	Iterations int64    `json:"iterations" yaml:"iterations"`
	Counters   Counters `json:"counters" yaml:"counters"`
}

// Counters is the counter section of a Summary.
type Counters struct {
	Waits            int64            `json:"waits" yaml:"waits"`
	NoCurrentTrack   int64            `json:"no_current_track" yaml:"no_current_track"`
	FetchesStarted   int64            `json:"fetches_started" yaml:"fetches_started"`
	FetchesSucceeded int64            `json:"fetches_succeeded" yaml:"fetches_succeeded"`
	FetchesFailed    int64            `json:"fetches_failed" yaml:"fetches_failed"`
	Chunks           int64            `json:"chunks" yaml:"chunks"`
	Bytes            int64            `json:"bytes" yaml:"bytes"`
	Written          int64            `json:"written" yaml:"written"`
	Skipped          int64            `json:"skipped" yaml:"skipped"`
	ArchiveWrites    int64            `json:"archive_writes" yaml:"archive_writes"`
	ArchiveFailures  int64            `json:"archive_failures" yaml:"archive_failures"`
	Notifications    int64            `json:"notifications" yaml:"notifications"`
	NotifyFailures   int64            `json:"notify_failures" yaml:"notify_failures"`
	Failures         map[string]int64 `json:"failures" yaml:"failures"`
}

func newSummary(opts *options, res *runtime.Result, snap metrics.Snapshot) Summary {
	s := Summary{
		Outcome:    string(res.Outcome),
		ExitCode:   res.ExitCode(),
		Mode:       string(opts.mode),
		Target:     opts.target.String(),
		Source:     string(opts.source),
		Policy:     opts.policyName,
		LastURI:    res.LastURI,
		DurationMS: res.Duration.Milliseconds(),
		Iterations: res.Iterations,
		Counters: Counters{
			Waits:            snap.Waits,
			NoCurrentTrack:   snap.NoCurrentTrack,
			FetchesStarted:   snap.FetchesStarted,
			FetchesSucceeded: snap.FetchesSucceeded,
			FetchesFailed:    snap.FetchesFailed,
			Chunks:           snap.ChunksReceived,
			Bytes:            snap.BytesReceived,
			Written:          snap.EmitsWritten,
			Skipped:          snap.EmitsSkipped,
			ArchiveWrites:    snap.ArchiveWriteSuccess,
			ArchiveFailures:  snap.ArchiveWriteFailure,
			Notifications:    snap.NotifySuccess,
			NotifyFailures:   snap.NotifyFailure,
			Failures:         snap.FailuresByKind,
		},
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}
