package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/arnolievens/mpimg/types"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	lc := Context{Target: types.Target{Host: "mpd.lan", Port: 6601}, Mode: types.ModeWaitForever}
	l := NewLoggerTo(lc, false, &buf)

	l.Info("artwork emitted", map[string]any{"uri": "a.flac"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]
	if entry["host"] != "mpd.lan" {
		t.Errorf("host = %v, want mpd.lan", entry["host"])
	}
	if entry["port"] != float64(6601) {
		t.Errorf("port = %v, want 6601", entry["port"])
	}
	if entry["mode"] != "wait-forever" {
		t.Errorf("mode = %v, want wait-forever", entry["mode"])
	}
	if entry["message"] != "artwork emitted" {
		t.Errorf("message = %v", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["uri"] != "a.flac" {
		t.Errorf("fields = %v", entry["fields"])
	}
}

func TestLogger_SocketTarget(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(Context{Target: types.Target{Host: "/run/mpd/socket"}}, false, &buf)
	l.Warn("x", nil)

	entry := decodeLines(t, &buf)[0]
	if entry["socket"] != "/run/mpd/socket" {
		t.Errorf("socket = %v", entry["socket"])
	}
	if _, ok := entry["port"]; ok {
		t.Error("socket target should not log a port")
	}
}

func TestLogger_Verbose(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    int
	}{
		{"info level drops debug", false, 1},
		{"verbose keeps debug", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLoggerTo(Context{}, tt.verbose, &buf)
			l.Debug("chunk", nil)
			l.Info("done", nil)

			if got := len(decodeLines(t, &buf)); got != tt.want {
				t.Errorf("got %d lines, want %d", got, tt.want)
			}
		})
	}
}

func TestSugaredLogger_With(t *testing.T) {
	var buf bytes.Buffer
	s := NewLoggerTo(Context{}, false, &buf).Sugar().With("command", "idle")
	s.Infof("waiting %d", 1)

	entry := decodeLines(t, &buf)[0]
	if entry["command"] != "idle" {
		t.Errorf("command = %v, want idle", entry["command"])
	}
	if entry["message"] != "waiting 1" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", map[string]any{"k": 1})
	l.Sugar().Errorf("ignored %s", "too")
}
