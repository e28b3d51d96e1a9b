package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arnolievens/mpimg/types"
)

func newArt(uri, data string) *types.Artwork {
	return types.NewArtwork(uri, []byte(data), time.Unix(1700000000, 0))
}

func TestAlwaysPolicy_WritesEveryArtwork(t *testing.T) {
	sink := NewStubSink()
	p := NewAlwaysPolicy(sink)
	ctx := context.Background()

	for range 3 {
		written, err := p.Emit(ctx, newArt("a.flac", "same"))
		if err != nil {
			t.Fatalf("Emit failed: %v", err)
		}
		if !written {
			t.Error("always policy skipped an artwork")
		}
	}

	if sink.Count() != 3 {
		t.Errorf("sink writes = %d, want 3", sink.Count())
	}
	stats := p.Stats()
	if stats.Received != 3 || stats.Written != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BytesWritten != 12 {
		t.Errorf("BytesWritten = %d, want 12", stats.BytesWritten)
	}
}

func TestAlwaysPolicy_SinkErrorIsIOError(t *testing.T) {
	sinkErr := errors.New("disk full")
	sink := NewStubSink()
	sink.ErrorOnWrite = sinkErr
	p := NewAlwaysPolicy(sink)

	written, err := p.Emit(context.Background(), newArt("a.flac", "x"))
	if written {
		t.Error("written reported despite sink failure")
	}
	if !IsIOError(err) {
		t.Fatalf("expected *IOError, got %v", err)
	}
	if !errors.Is(err, sinkErr) {
		t.Errorf("expected sink error in chain, got %v", err)
	}
	if p.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", p.Stats().Errors)
	}
}

func TestAlwaysPolicy_Close(t *testing.T) {
	sink := NewStubSink()
	p := NewAlwaysPolicy(sink)
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sink.Closed {
		t.Error("sink not closed")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "*policy.AlwaysPolicy", false},
		{"always", "*policy.AlwaysPolicy", false},
		{"changed", "*policy.ChangedPolicy", false},
		{"strict", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name, NewStubSink(), "")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := typeName(p); got != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(p Policy) string {
	switch p.(type) {
	case *AlwaysPolicy:
		return "*policy.AlwaysPolicy"
	case *ChangedPolicy:
		return "*policy.ChangedPolicy"
	default:
		return "unknown"
	}
}

func TestTee(t *testing.T) {
	a, b := NewStubSink(), NewStubSink()
	tee := Tee(a, b)

	if err := tee.Write(context.Background(), newArt("a.flac", "x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if a.Count() != 1 || b.Count() != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", a.Count(), b.Count())
	}

	a.ErrorOnWrite = errors.New("boom")
	if err := tee.Write(context.Background(), newArt("a.flac", "y")); err == nil {
		t.Fatal("expected error from first sink")
	}
	if b.Count() != 1 {
		t.Errorf("second sink written after first failed: %d", b.Count())
	}

	if err := tee.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Closed || !b.Closed {
		t.Error("not all sinks closed")
	}
}

func TestTee_Single(t *testing.T) {
	a := NewStubSink()
	if Tee(a) != Sink(a) {
		t.Error("Tee of one sink should return it unchanged")
	}
}
