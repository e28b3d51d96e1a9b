package runtime

import (
	"context"
	"errors"

	"github.com/arnolievens/mpimg/artwork"
	"github.com/arnolievens/mpimg/mpd"
	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

// Exit codes of the mpimg process.
const (
	ExitCodeOK         = 0   // artwork emitted, or continuous mode stopped by signal
	ExitCodeFetch      = 1   // fetch, resolve or protocol failure
	ExitCodeConnection = 2   // connection or transport failure
	ExitCodeSink       = 3   // output sink failure
	ExitCodeConfig     = 4   // invalid arguments or configuration
	ExitCodeCanceled   = 130 // non-continuous mode interrupted by signal
)

// Outcome is the terminal status of a loop run.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeFetchError      Outcome = "fetch_error"
	OutcomeResolveError    Outcome = "resolve_error"
	OutcomeProtocolError   Outcome = "protocol_error"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeTransportError  Outcome = "transport_error"
	OutcomeSinkError       Outcome = "sink_error"
	OutcomeConfigError     Outcome = "config_error"
	OutcomeCanceled        Outcome = "canceled"
)

// Class is the classification of one loop error.
type Class struct {
	Outcome Outcome
	// Transient errors are retried on the next iteration in continuous mode.
	Transient bool
	// Kind is a metrics label, e.g. "no_artwork" or "transport".
	Kind string
}

// Classify maps an error to its outcome and retry class:
//
//   - context cancellation: canceled
//   - *policy.IOError: sink failure, fatal
//   - *mpd.ConnectionError: fatal
//   - *mpd.TransportError: fatal, connection assumed broken
//   - artwork.ResolveError: transient
//   - artwork.FetchError: transient
//   - artwork.ErrNoTrack: fatal precondition violation
//   - *mpd.ServerError outside a fetch: fatal
//
// Transport failures win over the error they are wrapped with.
func Classify(err error) Class {
	if err == nil {
		return Class{Outcome: OutcomeSuccess}
	}
	if errors.Is(err, context.Canceled) {
		return Class{Outcome: OutcomeCanceled, Kind: "canceled"}
	}
	if policy.IsIOError(err) {
		return Class{Outcome: OutcomeSinkError, Kind: "sink"}
	}

	var connErr *mpd.ConnectionError
	if errors.As(err, &connErr) {
		return Class{Outcome: OutcomeConnectionError, Kind: "connection_" + string(connErr.Code)}
	}
	if mpd.IsTransportError(err) {
		return Class{Outcome: OutcomeTransportError, Kind: "transport"}
	}

	var resolveErr *artwork.ResolveError
	if errors.As(err, &resolveErr) {
		return Class{Outcome: OutcomeResolveError, Transient: true, Kind: resolveErr.Kind.String()}
	}
	var fetchErr *artwork.FetchError
	if errors.As(err, &fetchErr) {
		return Class{Outcome: OutcomeFetchError, Transient: true, Kind: fetchErr.Kind.String()}
	}
	if errors.Is(err, artwork.ErrNoTrack) {
		return Class{Outcome: OutcomeFetchError, Kind: "no_track"}
	}

	return Class{Outcome: OutcomeProtocolError, Kind: "protocol"}
}

// ExitCode maps an outcome to the process exit code. Cancellation ends
// continuous mode normally; in the other modes it interrupts a run that
// has not produced its artwork yet.
func ExitCode(outcome Outcome, mode types.Mode) int {
	switch outcome {
	case OutcomeSuccess:
		return ExitCodeOK
	case OutcomeCanceled:
		if mode.Continuous() {
			return ExitCodeOK
		}
		return ExitCodeCanceled
	case OutcomeConnectionError, OutcomeTransportError:
		return ExitCodeConnection
	case OutcomeSinkError:
		return ExitCodeSink
	case OutcomeConfigError:
		return ExitCodeConfig
	default:
		return ExitCodeFetch
	}
}
