package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// mpdServer is a loopback MPD server for command tests. It keeps one
// object per song and serves it in fixed-size chunks.
type mpdServer struct {
	ln        net.Listener
	current   string
	objects   map[string][]byte
	chunkSize int
	// maxIdles closes the connection on the idle after this many; 0 never.
	maxIdles int

	mu       sync.Mutex
	commands []string
	idles    int
}

func startMPDServer(t *testing.T, current string, objects map[string][]byte) *mpdServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &mpdServer{ln: ln, current: current, objects: objects, chunkSize: 4}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.serve(conn)
			}()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})
	return s
}

func (s *mpdServer) port() string {
	return strconv.Itoa(s.ln.Addr().(*net.TCPAddr).Port)
}

func (s *mpdServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *mpdServer) serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_, _ = io.WriteString(conn, "OK MPD 0.23.5\n")

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		fields := strings.Fields(line)
		for i, f := range fields {
			fields[i] = strings.Trim(f, `"`)
		}

		s.mu.Lock()
		s.commands = append(s.commands, strings.Join(fields, " "))
		s.mu.Unlock()

		if !s.respond(conn, fields) {
			return
		}
	}
}

// respond writes one response; false closes the connection.
func (s *mpdServer) respond(w io.Writer, fields []string) bool {
	switch fields[0] {
	case "password":
		if fields[1] != "secret" {
			_, _ = io.WriteString(w, "ACK [3@0] {password} incorrect password\n")
			return true
		}
	case "currentsong":
		if s.current != "" {
			fmt.Fprintf(w, "file: %s\nTitle: Song\n", s.current)
		}
	case "idle":
		s.mu.Lock()
		s.idles++
		n := s.idles
		s.mu.Unlock()
		if s.maxIdles > 0 && n > s.maxIdles {
			return false
		}
		_, _ = io.WriteString(w, "changed: player\n")
	case "albumart", "readpicture":
		obj, ok := s.objects[fields[0]+":"+fields[1]]
		if !ok {
			fmt.Fprintf(w, "ACK [50@0] {%s} No file exists\n", fields[0])
			return true
		}
		offset, _ := strconv.Atoi(fields[2])
		end := min(offset+s.chunkSize, len(obj))
		fmt.Fprintf(w, "size: %d\nbinary: %d\n", len(obj), end-offset)
		_, _ = w.Write(obj[offset:end])
		_, _ = io.WriteString(w, "\n")
	default:
		fmt.Fprintf(w, "ACK [5@0] {%s} unknown command\n", fields[0])
		return true
	}
	_, _ = io.WriteString(w, "OK\n")
	return true
}
