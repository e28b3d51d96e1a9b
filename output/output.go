// Package output provides the local artwork sinks: a file replaced
// atomically on every write, and a byte stream for standard output.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

// Stdout is the output path that selects the stream sink.
const Stdout = "-"

// New returns the sink for an output path. Stdout streams to w; any other
// path is a file.
func New(path string, w io.Writer) (policy.Sink, error) {
	switch path {
	case "":
		return nil, errors.New("output path is required")
	case Stdout:
		return NewStreamSink(w), nil
	default:
		return NewFileSink(path), nil
	}
}

// FileSink writes each artwork to one path. The previous file is replaced
// atomically, so readers see either the old or the new image.
type FileSink struct {
	path string
	perm os.FileMode
}

// NewFileSink creates a sink writing to path with mode 0644.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, perm: 0o644}
}

// Path returns the target path.
func (s *FileSink) Path() string { return s.path }

// Write replaces the target file with art's bytes.
func (s *FileSink) Write(ctx context.Context, art *types.Artwork) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(art.Data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(s.perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileSink) Close() error { return nil }

// StreamSink writes artwork bytes to a stream, one image after another.
type StreamSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamSink creates a sink writing to w.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

// Write copies art's bytes to the stream. A failed write may leave a
// partial image on the stream.
func (s *StreamSink) Write(_ context.Context, art *types.Artwork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.w.Write(art.Data)
	if err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	if n != len(art.Data) {
		return fmt.Errorf("write stream: %w", io.ErrShortWrite)
	}
	if f, ok := s.w.(interface{ Sync() error }); ok {
		// Pipes and terminals reject fsync; only regular files are synced.
		if fi, ok := s.w.(interface{ Stat() (os.FileInfo, error) }); ok {
			if st, err := fi.Stat(); err == nil && st.Mode().IsRegular() {
				_ = f.Sync()
			}
		}
	}
	return nil
}

// Close is a no-op; the stream belongs to the caller.
func (s *StreamSink) Close() error { return nil }

var (
	_ policy.Sink = (*FileSink)(nil)
	_ policy.Sink = (*StreamSink)(nil)
)
