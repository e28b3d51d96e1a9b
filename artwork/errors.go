package artwork

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies chunked fetch failures.
type FetchErrorKind int

const (
	// NoArtwork indicates the server has no artwork for the track: a zero
	// total, an empty response, or ACK 50 (no such file).
	NoArtwork FetchErrorKind = iota
	// AllocationFailed indicates the buffer could not be sized: no total was
	// announced before data, or the total exceeds the configured maximum.
	AllocationFailed
	// ShortRead indicates the server stopped sending before the total was
	// reached.
	ShortRead
	// Overflow indicates a chunk that would write past the reported total.
	Overflow
	// Protocol indicates an unparsable header or a rejected request.
	Protocol
)

var fetchKindNames = map[FetchErrorKind]string{
	NoArtwork:        "no_artwork",
	AllocationFailed: "allocation_failed",
	ShortRead:        "short_read",
	Overflow:         "overflow",
	Protocol:         "protocol",
}

// String returns the snake_case name used in logs and metrics.
func (k FetchErrorKind) String() string {
	if name, ok := fetchKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fetch_error_%d", int(k))
}

// FetchError is a failed chunked fetch. No partial buffer accompanies it.
type FetchError struct {
	Kind FetchErrorKind
	// URI is the track identifier being fetched.
	URI string
	// Offset is the byte offset of the failing request.
	Offset int64
	Msg    string
	Err    error
}

func (e *FetchError) Error() string {
	base := fmt.Sprintf("fetch %q at offset %d: %s", e.URI, e.Offset, e.Kind)
	if e.Msg != "" {
		base += ": " + e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchKind reports whether err is a *FetchError of the given kind.
func IsFetchKind(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// ResolveErrorKind classifies current-track resolution failures.
type ResolveErrorKind int

const (
	// NoCurrentTrack indicates the player is stopped or the queue is empty.
	NoCurrentTrack ResolveErrorKind = iota
)

// String returns the snake_case name used in logs and metrics.
func (k ResolveErrorKind) String() string {
	if k == NoCurrentTrack {
		return "no_current_track"
	}
	return fmt.Sprintf("resolve_error_%d", int(k))
}

// ResolveError is a failed current-track lookup.
type ResolveError struct {
	Kind ResolveErrorKind
}

func (e *ResolveError) Error() string {
	return "resolve current track: " + e.Kind.String()
}

// IsNoCurrentTrack reports whether err is a NoCurrentTrack resolve error.
func IsNoCurrentTrack(err error) bool {
	var re *ResolveError
	return errors.As(err, &re) && re.Kind == NoCurrentTrack
}

// ErrNoTrack is returned by Fetch when called without a track identifier.
// Callers must resolve the current track first.
var ErrNoTrack = errors.New("track identifier is empty")
