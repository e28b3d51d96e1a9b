package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source selects the protocol command used to fetch artwork.
// Both commands share the same chunked response format.
type Source string

const (
	// SourceAlbumArt fetches the cover file from the track's directory.
	SourceAlbumArt Source = "albumart"
	// SourceReadPicture fetches the picture embedded in the track's tags.
	SourceReadPicture Source = "readpicture"
)

// Artwork is a fully reassembled artwork object, handed to the emit stage.
// Ownership of Data transfers with the value; the producer must not retain it.
type Artwork struct {
	// URI is the track identifier the artwork belongs to.
	URI string
	// Data is the complete binary object.
	Data []byte
	// FetchedAt is when reassembly finished.
	FetchedAt time.Time
}

// NewArtwork wraps a completed buffer.
func NewArtwork(uri string, data []byte, fetchedAt time.Time) *Artwork {
	return &Artwork{URI: uri, Data: data, FetchedAt: fetchedAt}
}

// Size returns the artwork length in bytes.
func (a *Artwork) Size() int {
	return len(a.Data)
}

// Digest returns the hex-encoded SHA-256 of the artwork bytes.
func (a *Artwork) Digest() string {
	sum := sha256.Sum256(a.Data)
	return hex.EncodeToString(sum[:])
}

// ContentType sniffs the image format from magic bytes.
// Unknown formats report "application/octet-stream".
func (a *Artwork) ContentType() string {
	d := a.Data
	switch {
	case bytes.HasPrefix(d, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return "image/png"
	case bytes.HasPrefix(d, []byte{0xff, 0xd8, 0xff}):
		return "image/jpeg"
	case bytes.HasPrefix(d, []byte("GIF87a")), bytes.HasPrefix(d, []byte("GIF89a")):
		return "image/gif"
	case len(d) >= 12 && bytes.Equal(d[0:4], []byte("RIFF")) && bytes.Equal(d[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension matching ContentType, with dot.
func (a *Artwork) Extension() string {
	switch a.ContentType() {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
