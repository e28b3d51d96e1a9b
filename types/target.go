package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Default connection settings, matching the MPD client conventions.
const (
	DefaultHost = "localhost"
	DefaultPort = 6600
)

// Target is the connection target of a session.
// Immutable once a session is opened.
type Target struct {
	// Host is a hostname, an IP address, a socket path ("/run/mpd/socket")
	// or an abstract socket name ("@mpd").
	Host string
	// Port is the TCP port. Ignored for socket targets.
	Port uint
	// Password is sent with the "password" command after the greeting.
	// Empty means no authentication.
	Password string
}

// IsSocket reports whether the target names a unix socket.
func (t Target) IsSocket() bool {
	return strings.HasPrefix(t.Host, "@") || strings.Contains(t.Host, "/")
}

// Network returns the dial network for the target ("tcp" or "unix").
func (t Target) Network() string {
	if t.IsSocket() {
		return "unix"
	}
	return "tcp"
}

// Addr returns the dial address for the target.
func (t Target) Addr() string {
	if t.IsSocket() {
		return t.Host
	}
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

// Validate checks the target invariants: host non-empty, and for TCP
// targets a port in [1, 65535].
func (t Target) Validate() error {
	if t.Host == "" {
		return errors.New("host must be non-empty")
	}
	if t.IsSocket() {
		return nil
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("port must be in [1, 65535], got %d", t.Port)
	}
	return nil
}

// String returns the address without the password.
func (t Target) String() string {
	return t.Addr()
}

// ParseHost splits an MPD_HOST style value into host and password.
//
// Accepted forms:
//   - host, /path/to/socket, @abstract
//   - password@host, password@/path/to/socket
//   - password@@abstract (the abstract socket keeps its leading @)
func ParseHost(v string) (host, password string) {
	if strings.HasPrefix(v, "@") {
		return v, ""
	}
	if pw, rest, ok := strings.Cut(v, "@@"); ok {
		return "@" + rest, pw
	}
	if pw, rest, ok := strings.Cut(v, "@"); ok {
		return rest, pw
	}
	return v, ""
}
