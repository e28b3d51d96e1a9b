package lode

import (
	"context"

	"github.com/arnolievens/mpimg/metrics"
	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

// InstrumentedSink counts archive write successes and failures on the
// metrics collector.
type InstrumentedSink struct {
	inner     policy.Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner policy.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// Write delegates to the inner sink and records the result.
func (s *InstrumentedSink) Write(ctx context.Context, art *types.Artwork) error {
	err := s.inner.Write(ctx, art)
	if err != nil {
		s.collector.IncArchiveWriteFailure()
	} else {
		s.collector.IncArchiveWriteSuccess()
	}
	return err
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

var _ policy.Sink = (*InstrumentedSink)(nil)
