package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arnolievens/mpimg/types"
)

func TestNewArtworkUpdatedEvent(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, "body"...)
	art := types.NewArtwork("Album/01.flac", png, time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC))

	ev := NewArtworkUpdatedEvent(art, types.SourceAlbumArt, "/tmp/cover")

	if ev.EventType != EventTypeArtworkUpdated {
		t.Errorf("EventType = %q", ev.EventType)
	}
	if ev.URI != "Album/01.flac" || ev.Size != len(png) {
		t.Errorf("URI/Size = %q/%d", ev.URI, ev.Size)
	}
	if ev.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", ev.ContentType)
	}
	if ev.SHA256 != art.Digest() {
		t.Errorf("SHA256 = %q, want %q", ev.SHA256, art.Digest())
	}
	if ev.Source != "albumart" || ev.Output != "/tmp/cover" {
		t.Errorf("Source/Output = %q/%q", ev.Source, ev.Output)
	}
	if ev.Timestamp != "2026-02-07T12:00:00Z" {
		t.Errorf("Timestamp = %q", ev.Timestamp)
	}
	if ev.Version != types.Version {
		t.Errorf("Version = %q, want %q", ev.Version, types.Version)
	}
}

func TestRetry(t *testing.T) {
	errFlaky := errors.New("flaky")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		retries   int
		failures  int
		failWith  error
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", 3, 0, errFlaky, false, 1},
		{"succeeds after retries", 3, 2, errFlaky, false, 3},
		{"exhausts retries", 2, 10, errFlaky, true, 3},
		{"no retries", 0, 10, errFlaky, true, 1},
		{"permanent stops early", 3, 10, errFatal, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.retries, time.Millisecond,
				func(context.Context) error {
					calls++
					if calls <= tt.failures {
						return tt.failWith
					}
					return nil
				},
				func(err error) bool { return errors.Is(err, errFatal) },
			)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func(context.Context) error {
		calls++
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
