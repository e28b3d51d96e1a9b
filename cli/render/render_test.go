package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("csv")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func TestNewRenderer_DefaultsToJSONWhenNotTTY(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	r, err := NewRenderer("", f)
	if err != nil {
		t.Fatal(err)
	}
	if r.Format() != FormatJSON {
		t.Errorf("Format() = %s, want json", r.Format())
	}

	r, err = NewRenderer("yaml", f)
	if err != nil {
		t.Fatal(err)
	}
	if r.Format() != FormatYAML {
		t.Errorf("Format() = %s, want yaml", r.Format())
	}

	if _, err := NewRenderer("xml", f); err == nil {
		t.Error("expected error for invalid format")
	}
}

type summary struct {
	Outcome  string           `json:"outcome"`
	Written  int64            `json:"written"`
	Failures map[string]int64 `json:"failures"`
	Target   struct {
		Host string `json:"host"`
	} `json:"target"`
	Secret string `json:"-"`
}

func testSummary() summary {
	s := summary{
		Outcome:  "success",
		Written:  3,
		Failures: map[string]int64{"short_read": 1, "no_artwork": 2},
		Secret:   "hunter2",
	}
	s.Target.Host = "music.lan"
	return s
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRendererWithWriter(FormatJSON, &buf).Render(testSummary()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, `"outcome": "success"`) || !strings.Contains(got, `"no_artwork": 2`) {
		t.Errorf("JSON output missing expected content: %s", got)
	}
	if strings.Contains(got, "hunter2") {
		t.Error("JSON output contains skipped field")
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRendererWithWriter(FormatYAML, &buf).Render(map[string]string{"key": "value"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); got != "key: value\n" {
		t.Errorf("YAML output = %q", got)
	}
}

func TestRenderer_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRendererWithWriter(FormatTable, &buf).Render(testSummary()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := strings.Join([]string{
		"outcome:              success",
		"written:              3",
		"failures.no_artwork:  2",
		"failures.short_read:  1",
		"target.host:          music.lan",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("table output =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderer_Table_EmptyMapAndPointer(t *testing.T) {
	var buf bytes.Buffer
	data := &struct {
		Failures map[string]int64 `json:"failures"`
		Last     *string          `json:"last"`
		Changed  []string         `json:"changed"`
	}{Changed: []string{"player", "mixer"}}

	if err := NewRendererWithWriter(FormatTable, &buf).Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"failures:  {}", "last:", "changed:   player, mixer"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_TableColumns(t *testing.T) {
	type row struct {
		URI    string `json:"uri"`
		Size   int64  `json:"size"`
		hidden string
	}
	rows := []row{{URI: "a.flac", Size: 10}, {URI: "bb.flac", Size: 7, hidden: "x"}}

	var buf bytes.Buffer
	if err := NewRendererWithWriter(FormatTable, &buf).Render(rows); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "URI      SIZE\n" +
		"a.flac   10\n" +
		"bb.flac  7\n"
	if buf.String() != want {
		t.Errorf("table =\n%q\nwant\n%q", buf.String(), want)
	}
}
