package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/arnolievens/mpimg/adapter"
	"github.com/arnolievens/mpimg/mpd"
)

type kv struct {
	key   string
	value string
}

type reply struct {
	pairs []kv
	data  []byte
	ack   *mpd.ServerError
	err   error
}

// fakeServer answers commands from the loop. Each handler sees the call
// number of its command, starting at 1.
type fakeServer struct {
	idle        func(n int) reply
	currentsong func(n int) reply
	albumart    func(n int, uri string) reply

	commands []string
	calls    map[string]int

	cur  *reply
	idx  int
	read int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		idle:        func(int) reply { return reply{pairs: []kv{{"changed", "player"}}} },
		currentsong: func(int) reply { return reply{pairs: []kv{{"file", "a.flac"}, {"Title", "A"}}} },
		albumart:    func(_ int, uri string) reply { return artReply("art:" + uri) },
		calls:       make(map[string]int),
	}
}

func artReply(data string) reply {
	return reply{
		pairs: []kv{{"size", fmt.Sprint(len(data))}, {"binary", fmt.Sprint(len(data))}},
		data:  []byte(data),
	}
}

func noSuchFile() reply {
	return reply{ack: &mpd.ServerError{Code: mpd.AckNoExist, Command: "albumart", Message: "No file exists"}}
}

func closedErr() error {
	return &mpd.TransportError{Op: "read", Err: io.ErrUnexpectedEOF}
}

func (f *fakeServer) count(cmd string) int {
	return f.calls[cmd]
}

func (f *fakeServer) SendCommand(name string, args ...string) error {
	if f.cur != nil {
		return mpd.ErrResponsePending
	}
	f.commands = append(f.commands, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	f.calls[name]++
	n := f.calls[name]

	var r reply
	switch name {
	case "idle":
		r = f.idle(n)
	case "currentsong":
		r = f.currentsong(n)
	case "albumart", "readpicture":
		r = f.albumart(n, args[0])
	default:
		r = reply{ack: &mpd.ServerError{Code: mpd.AckUnknown, Message: "unknown command"}}
	}
	f.cur, f.idx, f.read = &r, 0, 0
	return nil
}

func (f *fakeServer) ReceiveNamedPair(key string) (string, bool, error) {
	if f.cur == nil {
		return "", false, nil
	}
	if f.cur.err != nil {
		err := f.cur.err
		f.cur = nil
		return "", false, err
	}
	for f.idx < len(f.cur.pairs) {
		p := f.cur.pairs[f.idx]
		if p.key == key {
			f.idx++
			return p.value, true, nil
		}
		if p.key == "binary" {
			return "", false, nil
		}
		f.idx++
	}
	if f.cur.ack != nil {
		ack := f.cur.ack
		f.cur = nil
		return "", false, ack
	}
	return "", false, nil
}

func (f *fakeServer) ReceiveBinary(p []byte) error {
	if f.cur == nil || len(p) > len(f.cur.data)-f.read {
		return &mpd.TransportError{Op: "read binary", Err: io.ErrUnexpectedEOF}
	}
	copy(p, f.cur.data[f.read:])
	f.read += len(p)
	return nil
}

func (f *fakeServer) FinishResponse() error {
	if f.cur == nil {
		return nil
	}
	cur := f.cur
	f.cur = nil
	if cur.ack != nil {
		return cur.ack
	}
	return nil
}

// recordingAdapter records published events.
type recordingAdapter struct {
	mu     sync.Mutex
	events []*adapter.ArtworkUpdatedEvent
	err    error
}

func (a *recordingAdapter) Publish(_ context.Context, ev *adapter.ArtworkUpdatedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, ev)
	return nil
}

func (a *recordingAdapter) Close() error { return nil }
