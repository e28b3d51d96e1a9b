// Package metrics provides per-process counters for the refetch loop.
//
// The Collector accumulates counters while the loop runs. It is a leaf package
// with no internal dependencies. Emit counters are absorbed from policy.Stats
// when the loop ends rather than recorded live, avoiding double-counting.
package metrics

import (
	"maps"
	"sync"
)

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Loop
	Iterations     int64
	Waits          int64
	NoCurrentTrack int64
	FailuresByKind map[string]int64

	// Fetcher
	FetchesStarted   int64
	FetchesSucceeded int64
	FetchesFailed    int64
	ChunksReceived   int64
	BytesReceived    int64

	// Emit (absorbed from policy.Stats at loop end)
	EmitsWritten int64
	EmitsSkipped int64
	SinkFailures int64

	// Archive / Storage
	ArchiveWriteSuccess int64
	ArchiveWriteFailure int64

	// Notifications
	NotifySuccess int64
	NotifyFailure int64

	// Dimensions (informational, set at construction)
	Mode           string
	Source         string
	Policy         string
	StorageBackend string
	Target         string
}

// Collector accumulates counters for one process.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	iterations     int64
	waits          int64
	noCurrentTrack int64
	failuresByKind map[string]int64

	fetchesStarted   int64
	fetchesSucceeded int64
	fetchesFailed    int64
	chunksReceived   int64
	bytesReceived    int64

	emitsWritten int64
	emitsSkipped int64
	sinkFailures int64

	archiveWriteSuccess int64
	archiveWriteFailure int64

	notifySuccess int64
	notifyFailure int64

	mode           string
	source         string
	policy         string
	storageBackend string
	target         string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend is empty when no archive is configured.
func NewCollector(mode, source, policy, storageBackend, target string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		mode:           mode,
		source:         source,
		policy:         policy,
		storageBackend: storageBackend,
		target:         target,
	}
}

func (c *Collector) add(counter *int64, n int64) {
	c.mu.Lock()
	*counter += n
	c.mu.Unlock()
}

// --- Loop ---

// IncIteration records one pass through the loop, from wait to emit or failure.
func (c *Collector) IncIteration() {
	if c == nil {
		return
	}
	c.add(&c.iterations, 1)
}

// IncWait records a completed player event wait.
func (c *Collector) IncWait() {
	if c == nil {
		return
	}
	c.add(&c.waits, 1)
}

// IncNoCurrentTrack records a resolve that found nothing playing.
func (c *Collector) IncNoCurrentTrack() {
	if c == nil {
		return
	}
	c.add(&c.noCurrentTrack, 1)
}

// IncFailure records a failed iteration by error kind ("no_artwork",
// "short_read", "no_current_track", ...).
func (c *Collector) IncFailure(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// --- Fetcher ---
// Fetch counters are per-object; chunk and byte counters are per-response.

// IncFetchStarted records the start of a chunked fetch.
func (c *Collector) IncFetchStarted() {
	if c == nil {
		return
	}
	c.add(&c.fetchesStarted, 1)
}

// IncFetchSucceeded records a fully reassembled object.
func (c *Collector) IncFetchSucceeded() {
	if c == nil {
		return
	}
	c.add(&c.fetchesSucceeded, 1)
}

// IncFetchFailed records a fetch that ended in an error.
func (c *Collector) IncFetchFailed() {
	if c == nil {
		return
	}
	c.add(&c.fetchesFailed, 1)
}

// AddChunk records one chunk response carrying n payload bytes.
func (c *Collector) AddChunk(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksReceived++
	c.bytesReceived += n
	c.mu.Unlock()
}

// --- Archive / Storage ---

// IncArchiveWriteSuccess records a successful archive write (per artwork).
func (c *Collector) IncArchiveWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.archiveWriteSuccess, 1)
}

// IncArchiveWriteFailure records a failed archive write (per artwork).
func (c *Collector) IncArchiveWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.archiveWriteFailure, 1)
}

// --- Notifications ---

// IncNotifySuccess records a delivered artwork_updated notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.add(&c.notifySuccess, 1)
}

// IncNotifyFailure records a notification that could not be delivered.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.add(&c.notifyFailure, 1)
}

// --- Emit (absorbed from policy.Stats) ---

// AbsorbPolicyStats copies emit counters from policy.Stats into the collector.
// Called once after the loop ends with the final policy stats snapshot.
func (c *Collector) AbsorbPolicyStats(written, skipped, sinkFailures int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.emitsWritten = written
	c.emitsSkipped = skipped
	c.sinkFailures = sinkFailures
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Iterations:     c.iterations,
		Waits:          c.waits,
		NoCurrentTrack: c.noCurrentTrack,
		FailuresByKind: maps.Clone(c.failuresByKind),

		FetchesStarted:   c.fetchesStarted,
		FetchesSucceeded: c.fetchesSucceeded,
		FetchesFailed:    c.fetchesFailed,
		ChunksReceived:   c.chunksReceived,
		BytesReceived:    c.bytesReceived,

		EmitsWritten: c.emitsWritten,
		EmitsSkipped: c.emitsSkipped,
		SinkFailures: c.sinkFailures,

		ArchiveWriteSuccess: c.archiveWriteSuccess,
		ArchiveWriteFailure: c.archiveWriteFailure,

		NotifySuccess: c.notifySuccess,
		NotifyFailure: c.notifyFailure,

		Mode:           c.mode,
		Source:         c.source,
		Policy:         c.policy,
		StorageBackend: c.storageBackend,
		Target:         c.target,
	}
}
