// Package policy defines the emit stage between a completed fetch and the
// output sinks.
//
// A Policy decides whether a fetched artwork reaches its Sink:
//   - always: every fetched artwork is written
//   - changed: artwork identical to the previous emission is skipped
//
// Sink failures are never retried and always surface as *IOError.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arnolievens/mpimg/types"
)

// Policy names accepted by the CLI and the config file.
const (
	NameAlways  = "always"
	NameChanged = "changed"
)

// Policy defines the emit stage interface.
type Policy interface {
	// Emit hands a fetched artwork to the sink, or skips it.
	// Ownership of art transfers to the policy; callers must not reuse it.
	// Reports whether the sink was written. Sink errors are *IOError.
	Emit(ctx context.Context, art *types.Artwork) (bool, error)

	// Flush persists policy state, if any.
	// Called when the loop terminates.
	Flush(ctx context.Context) error

	// Close closes the underlying sink.
	Close() error

	// Stats returns an atomic snapshot of emit counters.
	Stats() Stats
}

// Stats represents emit stage counters.
type Stats struct {
	// Received is the number of artworks handed to Emit.
	Received int64
	// Written is the number of artworks the sink accepted.
	Written int64
	// Skipped is the number of artworks the policy did not write.
	Skipped int64
	// BytesWritten is the total size of written artworks.
	BytesWritten int64
	// Errors is the number of sink or state failures.
	Errors int64
}

// IOError is a failure of the output sink or of the policy state file.
// It is always fatal.
type IOError struct {
	// Op is the failing operation ("write", "save state").
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err carries an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// New builds the named policy over sink. statePath is used by "changed"
// only; empty keeps state in memory.
func New(name string, sink Sink, statePath string) (Policy, error) {
	switch name {
	case "", NameAlways:
		return NewAlwaysPolicy(sink), nil
	case NameChanged:
		return NewChangedPolicy(sink, statePath)
	default:
		return nil, fmt.Errorf("unknown policy %q (must be %s or %s)", name, NameAlways, NameChanged)
	}
}

// statsRecorder is an internal helper for thread-safe stats management.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) incReceived() {
	r.mu.Lock()
	r.stats.Received++
	r.mu.Unlock()
}

func (r *statsRecorder) incWritten(size int) {
	r.mu.Lock()
	r.stats.Written++
	r.stats.BytesWritten += int64(size)
	r.mu.Unlock()
}

func (r *statsRecorder) incSkipped() {
	r.mu.Lock()
	r.stats.Skipped++
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
