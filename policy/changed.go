package policy

import (
	"context"
	"sync"
	"time"

	"github.com/arnolievens/mpimg/types"
)

// ChangedPolicy writes an artwork only when its digest differs from the
// previous emission. Consecutive tracks of one album share a cover, so in
// continuous mode most fetches are skipped.
//
// With a state path, the last emission survives restarts; it is saved after
// every write and on Flush.
type ChangedPolicy struct {
	sink      Sink
	statePath string
	now       func() time.Time

	mu    sync.Mutex
	state *State
	dirty bool
	stats statsRecorder
}

// NewChangedPolicy creates a policy writing changed artwork to sink.
// An empty statePath keeps state in memory only.
func NewChangedPolicy(sink Sink, statePath string) (*ChangedPolicy, error) {
	st := &State{Version: types.StateVersion}
	if statePath != "" {
		loaded, err := LoadState(statePath)
		if err != nil {
			return nil, err
		}
		st = loaded
	}
	return &ChangedPolicy{
		sink:      sink,
		statePath: statePath,
		now:       time.Now,
		state:     st,
	}, nil
}

// Emit writes art unless it matches the last emitted digest.
func (p *ChangedPolicy) Emit(ctx context.Context, art *types.Artwork) (bool, error) {
	p.stats.incReceived()

	p.mu.Lock()
	defer p.mu.Unlock()

	rec := NewRecord(art, p.now())
	if p.state.Last != nil && p.state.Last.Digest == rec.Digest {
		p.stats.incSkipped()
		return false, nil
	}

	if err := p.sink.Write(ctx, art); err != nil {
		p.stats.incErrors()
		return false, &IOError{Op: "write", Err: err}
	}
	p.stats.incWritten(art.Size())

	p.state.Last = rec
	p.dirty = true
	if err := p.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Last returns the last emitted record, or nil.
func (p *ChangedPolicy) Last() *Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Last == nil {
		return nil
	}
	r := *p.state.Last
	return &r
}

// Flush saves unsaved state.
func (p *ChangedPolicy) Flush(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveLocked()
}

func (p *ChangedPolicy) saveLocked() error {
	if p.statePath == "" || !p.dirty {
		return nil
	}
	if err := SaveState(p.statePath, p.state); err != nil {
		p.stats.incErrors()
		return &IOError{Op: "save state", Err: err}
	}
	p.dirty = false
	return nil
}

// Close closes the underlying sink.
func (p *ChangedPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *ChangedPolicy) Stats() Stats {
	return p.stats.snapshot()
}

var _ Policy = (*ChangedPolicy)(nil)
