// Package types defines core domain types for mpimg.
//
//nolint:revive // types is a common Go package naming convention
package types

import "fmt"

// Mode is the operating mode of the refetch loop.
// It is fixed for the lifetime of the process.
type Mode string

const (
	// ModeSingleShot fetches once without waiting for a player event.
	ModeSingleShot Mode = "single-shot"
	// ModeWaitOnce waits for one player event, then fetches once.
	ModeWaitOnce Mode = "wait-once"
	// ModeWaitForever waits for a player event before every fetch and never
	// reaches a success terminal state.
	ModeWaitForever Mode = "wait-forever"
)

// ParseMode parses a mode name. The original command names "idle" and
// "idleloop" are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeSingleShot), "fetch":
		return ModeSingleShot, nil
	case string(ModeWaitOnce), "idle":
		return ModeWaitOnce, nil
	case string(ModeWaitForever), "idleloop":
		return ModeWaitForever, nil
	default:
		return "", fmt.Errorf("invalid mode: %q (must be single-shot, wait-once or wait-forever)", s)
	}
}

// Waits reports whether the mode blocks on a player event before fetching.
func (m Mode) Waits() bool {
	return m == ModeWaitOnce || m == ModeWaitForever
}

// Continuous reports whether the mode re-arms after every fetch.
// Transient failures are retried only in continuous mode.
func (m Mode) Continuous() bool {
	return m == ModeWaitForever
}
