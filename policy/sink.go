package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arnolievens/mpimg/types"
)

// Sink abstracts artwork persistence for policies.
// Implementations may write a file, stream to stdout, archive to a store,
// or stub for testing.
type Sink interface {
	// Write persists one artwork. The sink decides file or stream semantics.
	// Returns error on failure; the caller does not retry.
	Write(ctx context.Context, art *types.Artwork) error

	// Close releases any resources held by the sink.
	Close() error
}

// Tee returns a Sink writing to every sink in order. Write stops at the
// first failure; Close closes all sinks and joins their errors.
func Tee(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Write(ctx context.Context, art *types.Artwork) error {
	for i, s := range t {
		if err := s.Write(ctx, art); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

func (t teeSink) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// StubSink is a test sink that records writes without persisting.
type StubSink struct {
	mu sync.Mutex

	// Written stores all written artworks for inspection.
	Written []*types.Artwork
	// Closed indicates whether Close was called.
	Closed bool

	// ErrorOnWrite, if non-nil, is returned by Write.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// Write records the artwork.
func (s *StubSink) Write(_ context.Context, art *types.Artwork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}
	s.Written = append(s.Written, art)
	return nil
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Count returns the number of recorded writes.
func (s *StubSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Written)
}

var (
	_ Sink = (*StubSink)(nil)
	_ Sink = teeSink(nil)
)
