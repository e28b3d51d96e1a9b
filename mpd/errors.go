package mpd

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ConnectionCode distinguishes why a session could not be opened.
type ConnectionCode string

const (
	// CodeDial indicates the target was unreachable (transport failure).
	CodeDial ConnectionCode = "dial"
	// CodeHandshake indicates the greeting was missing or not an MPD greeting.
	CodeHandshake ConnectionCode = "handshake"
	// CodeAuth indicates the server rejected the configured password.
	CodeAuth ConnectionCode = "auth"
)

// ConnectionError is returned by Open when no usable session could be
// established. It is always fatal.
type ConnectionError struct {
	Code ConnectionCode
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s: %v", e.Addr, e.Code, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError indicates a read or write failure on an open session.
// The connection must be assumed broken afterwards.
type TransportError struct {
	// Op is the failing primitive ("write", "read", "read binary").
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mpd %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ACK error codes sent by the server.
const (
	AckNotList       = 1
	AckArg           = 2
	AckPassword      = 3
	AckPermission    = 4
	AckUnknown       = 5
	AckNoExist       = 50
	AckPlaylistMax   = 51
	AckSystem        = 52
	AckPlaylistLoad  = 53
	AckUpdateAlready = 54
	AckPlayerSync    = 55
	AckExist         = 56
)

// ServerError is a parsed "ACK [code@index] {command} message" line.
// The response it terminates is complete; the session stays usable.
type ServerError struct {
	Code    int
	Index   int
	Command string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d on {%s}: %s", e.Code, e.Command, e.Message)
}

// IsServerCode reports whether err is a *ServerError with the given code.
func IsServerCode(err error, code int) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Code == code
}

var ackPattern = regexp.MustCompile(`^ACK \[(\d+)@(\d+)\] \{([^}]*)\} ?(.*)$`)

// ParseServerError parses an ACK line. Lines that do not match the ACK
// grammar still produce a ServerError carrying the raw text.
func ParseServerError(line string) *ServerError {
	m := ackPattern.FindStringSubmatch(line)
	if m == nil {
		return &ServerError{Message: line}
	}
	code, _ := strconv.Atoi(m[1])
	index, _ := strconv.Atoi(m[2])
	return &ServerError{
		Code:    code,
		Index:   index,
		Command: m[3],
		Message: m[4],
	}
}

// ErrResponsePending is returned by SendCommand while the previous response
// has not been finished. The protocol does not support pipelining.
var ErrResponsePending = errors.New("previous response not finished")

// ErrMalformed indicates a response line that is neither a pair nor a
// terminator.
var ErrMalformed = errors.New("malformed response line")
