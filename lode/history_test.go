package lode

import (
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/arnolievens/mpimg/types"
)

func TestQueryHistory(t *testing.T) {
	store := lode.NewMemory()
	sink, err := NewArchiveSink(sharedFactory(store), types.SourceAlbumArt)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	uris := []string{"a.flac", "b.flac", "a.flac"}
	for i, uri := range uris {
		data := append(append([]byte(nil), pngData...), byte(i))
		art := types.NewArtwork(uri, data, base.Add(time.Duration(i)*time.Minute))
		if err := sink.Write(t.Context(), art); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	ds, err := NewManifestDataset(sharedFactory(store))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		uri     string
		limit   int
		wantURI []string
	}{
		{"all latest first", "", 0, []string{"a.flac", "b.flac", "a.flac"}},
		{"limit", "", 2, []string{"a.flac", "b.flac"}},
		{"filter uri", "b.flac", 0, []string{"b.flac"}},
		{"unknown uri", "c.flac", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryHistory(t.Context(), ds, tt.uri, tt.limit)
			if err != nil {
				t.Fatalf("QueryHistory: %v", err)
			}
			if len(got) != len(tt.wantURI) {
				t.Fatalf("records = %d, want %d", len(got), len(tt.wantURI))
			}
			for i, rec := range got {
				if rec.URI != tt.wantURI[i] {
					t.Errorf("record %d uri = %q, want %q", i, rec.URI, tt.wantURI[i])
				}
			}
		})
	}

	latest, err := QueryHistory(t.Context(), ds, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if latest[0].FetchedAt != "2026-02-03T12:02:00Z" {
		t.Errorf("latest FetchedAt = %q", latest[0].FetchedAt)
	}
	if latest[0].Size != int64(len(pngData)+1) {
		t.Errorf("latest Size = %d", latest[0].Size)
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{int64(7), 7},
		{7, 7},
		{float64(7), 7},
		{"7", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := toInt64(tt.in); got != tt.want {
			t.Errorf("toInt64(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
