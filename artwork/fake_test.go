package artwork

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arnolievens/mpimg/mpd"
)

type kv struct {
	key   string
	value string
}

// response is one scripted server response.
type response struct {
	pairs []kv
	// data is the raw payload announced by a "binary" pair.
	data []byte
	// ack replaces the OK terminator when set.
	ack *mpd.ServerError
	// sendErr fails the request write.
	sendErr error
	// binaryErr fails the raw read after binary pair.
	binaryErr error
}

// fakeSession replays scripted responses with the same pair discipline
// as mpd.Session: unmatched pairs are discarded, binary headers are kept.
type fakeSession struct {
	script   []response
	commands []string
	finishes int

	cur      *response
	idx      int
	read     int
	ackTaken bool
}

var _ Session = (*fakeSession)(nil)

func (f *fakeSession) SendCommand(name string, args ...string) error {
	if f.cur != nil {
		return mpd.ErrResponsePending
	}
	f.commands = append(f.commands, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if len(f.script) == 0 {
		return &mpd.TransportError{Op: "write", Err: io.ErrClosedPipe}
	}
	r := f.script[0]
	f.script = f.script[1:]
	if r.sendErr != nil {
		return r.sendErr
	}
	f.cur, f.idx, f.read, f.ackTaken = &r, 0, 0, false
	return nil
}

func (f *fakeSession) ReceiveNamedPair(key string) (string, bool, error) {
	if f.cur == nil {
		return "", false, nil
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
	if f.cur.ack != nil && !f.ackTaken {
		f.ackTaken = true
		ack := f.cur.ack
		f.cur = nil
		return "", false, ack
	}
	return "", false, nil
}

func (f *fakeSession) ReceiveBinary(p []byte) error {
	if f.cur == nil {
		return errors.New("no response")
	}
	if f.cur.binaryErr != nil {
		err := f.cur.binaryErr
		f.cur = nil
		return err
	}
	if len(p) > len(f.cur.data)-f.read {
		return &mpd.TransportError{Op: "read binary", Err: fmt.Errorf("requested %d bytes", len(p))}
	}
	copy(p, f.cur.data[f.read:])
	f.read += len(p)
	return nil
}

func (f *fakeSession) FinishResponse() error {
	if f.cur == nil {
		return nil
	}
	f.finishes++
	cur := f.cur
	f.cur = nil
	if cur.ack != nil && !f.ackTaken {
		return cur.ack
	}
	return nil
}

// chunk builds a response carrying data, with an optional size pair.
func chunk(size int, data string) response {
	var pairs []kv
	if size >= 0 {
		pairs = append(pairs, kv{"size", fmt.Sprint(size)})
	}
	pairs = append(pairs, kv{"type", "image/png"}, kv{"binary", fmt.Sprint(len(data))})
	return response{pairs: pairs, data: []byte(data)}
}
