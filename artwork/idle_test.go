package artwork

import (
	"io"
	"testing"

	"github.com/arnolievens/mpimg/mpd"
)

func TestWaitForPlayerEvent(t *testing.T) {
	s := &fakeSession{script: []response{
		{pairs: []kv{{"changed", "player"}}},
	}}

	changed, err := WaitForPlayerEvent(s)
	if err != nil {
		t.Fatalf("WaitForPlayerEvent failed: %v", err)
	}
	if len(changed) != 1 || changed[0] != "player" {
		t.Errorf("changed = %q, want [player]", changed)
	}
	if len(s.commands) != 1 || s.commands[0] != "idle player" {
		t.Errorf("commands = %q, want [idle player]", s.commands)
	}
	if s.cur != nil {
		t.Error("response left unfinished")
	}
}

func TestWaitForPlayerEvent_ClosedSession(t *testing.T) {
	s := &fakeSession{script: []response{
		{sendErr: &mpd.TransportError{Op: "write", Err: io.ErrClosedPipe}},
	}}
	if _, err := WaitForPlayerEvent(s); !mpd.IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}
