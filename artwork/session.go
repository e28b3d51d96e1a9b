// Package artwork retrieves artwork over an MPD session: the chunked
// fetcher, the current-track resolver and the player event waiter.
//
// All operations are synchronous and use one Session from one goroutine.
package artwork

import "github.com/arnolievens/mpimg/mpd"

// Session is the subset of the wire session used by this package.
// *mpd.Session implements it; tests use scripted fakes.
type Session interface {
	SendCommand(name string, args ...string) error
	ReceiveNamedPair(key string) (string, bool, error)
	ReceiveBinary(p []byte) error
	FinishResponse() error
}

var _ Session = (*mpd.Session)(nil)
