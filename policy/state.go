package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arnolievens/mpimg/types"
)

// Record describes one emitted artwork.
type Record struct {
	URI       string    `msgpack:"uri"`
	Digest    string    `msgpack:"sha256"`
	Size      int       `msgpack:"size"`
	EmittedAt time.Time `msgpack:"emitted_at"`
}

// NewRecord summarizes art as emitted at t.
func NewRecord(art *types.Artwork, t time.Time) *Record {
	return &Record{
		URI:       art.URI,
		Digest:    art.Digest(),
		Size:      art.Size(),
		EmittedAt: t.UTC(),
	}
}

// State is the persisted state of the changed policy.
type State struct {
	Version int     `msgpack:"version"`
	Last    *Record `msgpack:"last,omitempty"`
}

// LoadState reads a msgpack state file. A missing file yields an empty
// state; a file written by another state version is rejected.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if errors.Is(err, fs.ErrNotExist) {
		return &State{Version: types.StateVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", path, err)
	}
	if st.Version != types.StateVersion {
		return nil, fmt.Errorf("state file %s has version %d, want %d", path, st.Version, types.StateVersion)
	}
	return &st, nil
}

// SaveState writes st to path atomically (temp file + rename).
func SaveState(path string, st *State) error {
	st.Version = types.StateVersion
	data, err := msgpack.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mpimg-state-*")
	if err != nil {
		return fmt.Errorf("create state temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
