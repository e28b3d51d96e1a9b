// Package adapter defines the notification boundary for emitted artwork.
//
// Adapters tell downstream systems (status bars, home automation, web
// dashboards) that the current artwork changed. Delivery is best effort:
// a failed publish is logged and counted by the caller, never fatal.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/arnolievens/mpimg/types"
)

// EventTypeArtworkUpdated is the only event type published.
const EventTypeArtworkUpdated = "artwork_updated"

// ArtworkUpdatedEvent is the payload published after an artwork is written.
type ArtworkUpdatedEvent struct {
	Version     string `json:"version"`
	EventType   string `json:"event_type"` // always "artwork_updated"
	URI         string `json:"uri"`
	Size        int    `json:"size"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"content_type"`
	Source      string `json:"source"`    // albumart or readpicture
	Output      string `json:"output"`    // file path or "-"
	Timestamp   string `json:"timestamp"` // RFC 3339, UTC
}

// NewArtworkUpdatedEvent describes art as written to output.
func NewArtworkUpdatedEvent(art *types.Artwork, source types.Source, output string) *ArtworkUpdatedEvent {
	return &ArtworkUpdatedEvent{
		Version:     types.Version,
		EventType:   EventTypeArtworkUpdated,
		URI:         art.URI,
		Size:        art.Size(),
		SHA256:      art.Digest(),
		ContentType: art.ContentType(),
		Source:      string(source),
		Output:      output,
		Timestamp:   art.FetchedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Adapter publishes artwork events to a downstream system.
type Adapter interface {
	// Publish sends one event.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ArtworkUpdatedEvent) error

	// Close releases adapter resources.
	Close() error
}

// DefaultBackoff is the delay before the first retry. It doubles per retry.
const DefaultBackoff = 500 * time.Millisecond

// Retry calls fn up to 1+retries times with exponential backoff between
// attempts. It stops early when ctx ends or when permanent reports the
// error as non-retriable. permanent may be nil.
func Retry(ctx context.Context, retries int, backoff time.Duration, fn func(context.Context) error, permanent func(error) bool) error {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var lastErr error
	attempts := 1 + retries
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff << uint(i-1)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("non-retriable error: %w", lastErr)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
