// Package mpd implements the client side of the MPD line protocol.
//
// A Session owns one connection and exposes request/response primitives:
// send a command, receive a named pair, receive a binary segment, finish a
// response. Requests are strictly sequential; one Session must be used by
// one goroutine at a time. Close is the only method safe to call
// concurrently, and unblocks any pending read with a TransportError.
package mpd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arnolievens/mpimg/types"
)

// greetingPrefix starts the first line sent by the server.
const greetingPrefix = "OK MPD "

// binaryKey names the pair that announces a raw binary segment.
const binaryKey = "binary"

// errEndOfResponse signals that the current response has been terminated
// by "OK". It never escapes the package.
var errEndOfResponse = errors.New("end of response")

type pair struct {
	key   string
	value string
}

// Session is one live connection to the server.
type Session struct {
	target  types.Target
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	version string

	// inResponse is true between SendCommand and the response terminator.
	inResponse bool
	// pending holds a binary header read while looking for another key.
	// It frames raw bytes, so it cannot be discarded like other pairs.
	pending *pair
	// binaryLeft is the number of announced raw bytes not yet read.
	binaryLeft int64
	// trailer is true while the newline after a binary segment is unread.
	trailer bool

	closeOnce sync.Once
	closeErr  error
}

// Open dials the target, reads the server greeting and authenticates when
// a password is configured. The context bounds the dial and the handshake
// only; it is not retained.
func Open(ctx context.Context, target types.Target) (*Session, error) {
	if err := target.Validate(); err != nil {
		return nil, &ConnectionError{Code: CodeDial, Addr: target.Addr(), Err: err}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, target.Network(), target.Addr())
	if err != nil {
		return nil, &ConnectionError{Code: CodeDial, Addr: target.Addr(), Err: err}
	}

	s := newSession(target, conn)
	if err := s.handshake(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// newSession wraps an established connection without reading from it.
func newSession(target types.Target, conn net.Conn) *Session {
	return &Session{
		target: target,
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
	}
}

// handshake reads the greeting and sends the password, if any.
func (s *Session) handshake(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetDeadline(deadline)
		defer func() { _ = s.conn.SetDeadline(time.Time{}) }()
	}

	line, err := s.readLine()
	if err != nil {
		return &ConnectionError{Code: CodeHandshake, Addr: s.target.Addr(), Err: err}
	}
	if !strings.HasPrefix(line, greetingPrefix) {
		return &ConnectionError{
			Code: CodeHandshake,
			Addr: s.target.Addr(),
			Err:  fmt.Errorf("unexpected greeting %q", line),
		}
	}
	s.version = strings.TrimPrefix(line, greetingPrefix)

	if s.target.Password == "" {
		return nil
	}

	if err := s.SendCommand("password", s.target.Password); err != nil {
		return &ConnectionError{Code: CodeAuth, Addr: s.target.Addr(), Err: err}
	}
	if err := s.FinishResponse(); err != nil {
		return &ConnectionError{Code: CodeAuth, Addr: s.target.Addr(), Err: err}
	}
	return nil
}

// Version returns the protocol version announced in the greeting.
func (s *Session) Version() string {
	return s.version
}

// Target returns the connection target of the session.
func (s *Session) Target() types.Target {
	return s.target
}

// SendCommand writes one request line. Arguments are always quoted.
// The previous response must have been finished.
func (s *Session) SendCommand(name string, args ...string) error {
	if s.inResponse {
		return fmt.Errorf("send %s: %w", name, ErrResponsePending)
	}
	if _, err := s.w.WriteString(FormatCommand(name, args...)); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	s.inResponse = true
	return nil
}

// ReceiveNamedPair reads pairs of the current response until one named key
// is found and returns its value.
//
// Pairs with other keys are consumed and discarded. The search stops
// without a value at the end of the response, and at a binary header when
// key is not "binary"; the header is kept for the next call since it frames
// the raw bytes that follow. An ACK terminator is returned as *ServerError.
func (s *Session) ReceiveNamedPair(key string) (string, bool, error) {
	for {
		p, err := s.readPair()
		if errors.Is(err, errEndOfResponse) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		if p.key == key {
			return p.value, true, nil
		}
		if p.key == binaryKey {
			s.pending = &p
			return "", false, nil
		}
	}
}

// ReceiveBinary reads exactly len(p) raw bytes of the announced binary
// segment into p. Reading more than the announced length is an error.
func (s *Session) ReceiveBinary(p []byte) error {
	if s.pending != nil {
		return &TransportError{Op: "read binary", Err: errors.New("binary header not consumed")}
	}
	if int64(len(p)) > s.binaryLeft {
		return &TransportError{
			Op:  "read binary",
			Err: fmt.Errorf("requested %d bytes, %d announced", len(p), s.binaryLeft),
		}
	}
	n, err := io.ReadFull(s.r, p)
	s.binaryLeft -= int64(n)
	if err != nil {
		return &TransportError{Op: "read binary", Err: err}
	}
	return nil
}

// FinishResponse discards whatever is left of the current response,
// including unread binary bytes, up to its terminator. It is a no-op when
// the response is already complete. An ACK terminator is returned as
// *ServerError; the session remains usable.
func (s *Session) FinishResponse() error {
	s.pending = nil
	for s.inResponse {
		_, err := s.readPair()
		if errors.Is(err, errEndOfResponse) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the connection. Safe to call more than once and from
// another goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// readPair returns the next pair of the current response.
func (s *Session) readPair() (pair, error) {
	if s.pending != nil {
		p := *s.pending
		s.pending = nil
		return p, nil
	}
	if !s.inResponse {
		return pair{}, errEndOfResponse
	}
	if err := s.skipBinary(); err != nil {
		return pair{}, err
	}

	line, err := s.readLine()
	if err != nil {
		return pair{}, &TransportError{Op: "read", Err: err}
	}

	switch {
	case line == "OK":
		s.inResponse = false
		return pair{}, errEndOfResponse
	case strings.HasPrefix(line, "ACK "):
		s.inResponse = false
		return pair{}, ParseServerError(line)
	}

	key, value, ok := strings.Cut(line, ": ")
	if !ok {
		return pair{}, &TransportError{Op: "read", Err: fmt.Errorf("%w: %q", ErrMalformed, line)}
	}

	if key == binaryKey {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return pair{}, &TransportError{Op: "read", Err: fmt.Errorf("%w: %q", ErrMalformed, line)}
		}
		s.binaryLeft = n
		s.trailer = true
	}
	return pair{key: key, value: value}, nil
}

// skipBinary discards unread bytes of the last binary segment and the
// newline that follows it.
func (s *Session) skipBinary() error {
	if s.binaryLeft > 0 {
		n, err := io.CopyN(io.Discard, s.r, s.binaryLeft)
		s.binaryLeft -= n
		if err != nil {
			return &TransportError{Op: "read binary", Err: err}
		}
	}
	if s.trailer {
		s.trailer = false
		b, err := s.r.ReadByte()
		if err != nil {
			return &TransportError{Op: "read binary", Err: err}
		}
		if b != '\n' {
			return &TransportError{Op: "read binary", Err: fmt.Errorf("%w: missing newline after binary", ErrMalformed)}
		}
	}
	return nil
}

// readLine reads one line without its terminating newline.
func (s *Session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
