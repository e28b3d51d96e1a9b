package policy

import (
	"context"

	"github.com/arnolievens/mpimg/types"
)

// AlwaysPolicy writes every fetched artwork synchronously.
//
//   - No buffering: each artwork is written before Emit returns
//   - No skips: repeated artwork is written again
//   - Sink errors are fatal
type AlwaysPolicy struct {
	sink  Sink
	stats statsRecorder
}

// NewAlwaysPolicy creates a policy writing to the given sink.
func NewAlwaysPolicy(sink Sink) *AlwaysPolicy {
	return &AlwaysPolicy{sink: sink}
}

// Emit writes the artwork immediately to the sink.
func (p *AlwaysPolicy) Emit(ctx context.Context, art *types.Artwork) (bool, error) {
	p.stats.incReceived()

	if err := p.sink.Write(ctx, art); err != nil {
		p.stats.incErrors()
		return false, &IOError{Op: "write", Err: err}
	}

	p.stats.incWritten(art.Size())
	return true, nil
}

// Flush is a no-op; the policy keeps no state.
func (p *AlwaysPolicy) Flush(_ context.Context) error {
	return nil
}

// Close closes the underlying sink.
func (p *AlwaysPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *AlwaysPolicy) Stats() Stats {
	return p.stats.snapshot()
}

var _ Policy = (*AlwaysPolicy)(nil)
