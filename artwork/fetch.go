package artwork

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/arnolievens/mpimg/log"
	"github.com/arnolievens/mpimg/metrics"
	"github.com/arnolievens/mpimg/mpd"
	"github.com/arnolievens/mpimg/types"
)

// DefaultMaxSize bounds the buffer allocated for one artwork object.
const DefaultMaxSize int64 = 64 * 1024 * 1024

// Fetcher reassembles artwork objects from chunked responses.
// The zero value fetches with albumart and DefaultMaxSize.
type Fetcher struct {
	// Source is the chunk command, albumart or readpicture.
	Source types.Source
	// MaxSize is the largest total accepted. Zero means DefaultMaxSize.
	MaxSize int64
	// Collector receives chunk counters. May be nil.
	Collector *metrics.Collector
	// Logger receives per-chunk debug entries. May be nil.
	Logger *log.Logger
}

// Command returns the chunk command the fetcher issues.
func (f *Fetcher) Command() types.Source {
	if f.Source == "" {
		return types.SourceAlbumArt
	}
	return f.Source
}

func (f *Fetcher) maxSize() int64 {
	if f.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return f.MaxSize
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger == nil {
		return log.Nop()
	}
	return f.Logger
}

// Fetch requests uri chunk by chunk, each at the running offset, until
// the offset reaches the first reported total.
//
// On success the returned buffer has exactly the reported total length.
// On failure no buffer is returned. Server-side and framing failures leave
// the session usable; transport failures are returned wrapped and the
// session must be discarded.
func (f *Fetcher) Fetch(s Session, uri string) ([]byte, error) {
	if uri == "" {
		return nil, ErrNoTrack
	}

	f.Collector.IncFetchStarted()
	buf, err := f.fetch(s, uri)
	if err != nil {
		f.Collector.IncFetchFailed()
		return nil, err
	}
	f.Collector.IncFetchSucceeded()
	return buf, nil
}

func (f *Fetcher) fetch(s Session, uri string) ([]byte, error) {
	cmd := string(f.Command())
	logger := f.logger()

	var (
		buf    []byte
		offset int64
		total  int64
	)

	for {
		fail := func(kind FetchErrorKind, msg string, err error) error {
			return &FetchError{Kind: kind, URI: uri, Offset: offset, Msg: msg, Err: err}
		}

		if err := s.SendCommand(cmd, uri, strconv.FormatInt(offset, 10)); err != nil {
			return nil, fmt.Errorf("fetch %q at offset %d: %w", uri, offset, err)
		}

		sizeVal, hasSize, err := s.ReceiveNamedPair("size")
		if err != nil {
			return nil, f.responseError(uri, offset, err)
		}
		if hasSize {
			n, perr := strconv.ParseInt(sizeVal, 10, 64)
			if perr != nil || n < 0 {
				return nil, finishAnd(s, fail(Protocol, fmt.Sprintf("invalid size %q", sizeVal), perr))
			}
			switch {
			case buf == nil && total == 0:
				total = n
			case n != total:
				logger.Debug("size changed mid-transfer, keeping first", map[string]any{
					"uri":      uri,
					"offset":   offset,
					"size":     total,
					"reported": n,
				})
			}
		}

		binVal, hasBin, err := s.ReceiveNamedPair("binary")
		if err != nil {
			return nil, f.responseError(uri, offset, err)
		}
		var chunk int64
		if hasBin {
			chunk, err = strconv.ParseInt(binVal, 10, 64)
			if err != nil || chunk < 0 {
				return nil, finishAnd(s, fail(Protocol, fmt.Sprintf("invalid binary length %q", binVal), err))
			}
		}

		if chunk == 0 {
			if err := s.FinishResponse(); err != nil {
				return nil, f.responseError(uri, offset, err)
			}
			if total == 0 {
				return nil, fail(NoArtwork, "", nil)
			}
			return nil, fail(ShortRead, fmt.Sprintf("server stopped at %d of %d bytes", offset, total), nil)
		}

		if buf == nil {
			if total == 0 {
				if hasSize {
					return nil, finishAnd(s, fail(NoArtwork, "", nil))
				}
				return nil, finishAnd(s, fail(AllocationFailed, "no size announced before data", nil))
			}
			if total > f.maxSize() {
				return nil, finishAnd(s, fail(AllocationFailed,
					fmt.Sprintf("size %d exceeds limit %d", total, f.maxSize()), nil))
			}
			buf = make([]byte, total)
		}

		if chunk > total-offset {
			return nil, finishAnd(s, fail(Overflow,
				fmt.Sprintf("chunk of %d bytes with %d remaining", chunk, total-offset), nil))
		}

		if err := s.ReceiveBinary(buf[offset : offset+chunk]); err != nil {
			return nil, fmt.Errorf("fetch %q at offset %d: %w", uri, offset, err)
		}
		if err := s.FinishResponse(); err != nil {
			return nil, f.responseError(uri, offset, err)
		}

		logger.Debug("chunk received", map[string]any{
			"uri":    uri,
			"offset": offset,
			"length": chunk,
			"size":   total,
		})
		f.Collector.AddChunk(chunk)

		offset += chunk
		if offset >= total {
			return buf, nil
		}
	}
}

// responseError maps a failure while reading a chunk response.
// ACK 50 means the track has no artwork; other ACKs reject the request.
// Transport failures are passed through wrapped.
func (f *Fetcher) responseError(uri string, offset int64, err error) error {
	var se *mpd.ServerError
	if errors.As(err, &se) {
		kind := Protocol
		if se.Code == mpd.AckNoExist {
			kind = NoArtwork
		}
		return &FetchError{Kind: kind, URI: uri, Offset: offset, Err: err}
	}
	return fmt.Errorf("fetch %q at offset %d: %w", uri, offset, err)
}

// finishAnd discards the rest of the current response and returns err.
// A transport failure while discarding takes precedence.
func finishAnd(s Session, err error) error {
	if ferr := s.FinishResponse(); ferr != nil && mpd.IsTransportError(ferr) {
		return fmt.Errorf("%w (discarding response: %w)", err, ferr)
	}
	return err
}
