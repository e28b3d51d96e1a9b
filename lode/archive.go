package lode

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/arnolievens/mpimg/policy"
	"github.com/arnolievens/mpimg/types"
)

// DatasetID is the manifest dataset.
const DatasetID = "mpimg"

// RecordKindArtwork marks manifest records of archived artwork.
const RecordKindArtwork = "artwork"

// DeriveDay computes the partition day of a fetch time: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ArtworkKey returns the store key of an archived artwork:
// artwork/day=<day>/<unix nanos>-<sha256 prefix><ext>.
func ArtworkKey(art *types.Artwork) string {
	return fmt.Sprintf("artwork/day=%s/%d-%s%s",
		DeriveDay(art.FetchedAt),
		art.FetchedAt.UnixNano(),
		art.Digest()[:8],
		art.Extension(),
	)
}

// ManifestRecord describes one archived artwork in the manifest dataset.
type ManifestRecord struct {
	RecordKind  string `json:"record_kind"`
	Day         string `json:"day"`
	URI         string `json:"uri"`
	Key         string `json:"key"`
	SHA256      string `json:"sha256"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Source      string `json:"source"`
	FetchedAt   string `json:"fetched_at"`
}

// NewManifestRecord builds the record for art stored under key.
func NewManifestRecord(art *types.Artwork, key string, source types.Source) ManifestRecord {
	return ManifestRecord{
		RecordKind:  RecordKindArtwork,
		Day:         DeriveDay(art.FetchedAt),
		URI:         art.URI,
		Key:         key,
		SHA256:      art.Digest(),
		Size:        int64(art.Size()),
		ContentType: art.ContentType(),
		Source:      string(source),
		FetchedAt:   art.FetchedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toMap converts the record to the map form the JSONL codec partitions on.
func (r ManifestRecord) toMap() map[string]any {
	return map[string]any{
		"record_kind":  r.RecordKind,
		"day":          r.Day,
		"uri":          r.URI,
		"key":          r.Key,
		"sha256":       r.SHA256,
		"size":         r.Size,
		"content_type": r.ContentType,
		"source":       r.Source,
		"fetched_at":   r.FetchedAt,
	}
}

// ArchiveSink copies every artwork to a lode Store and appends a manifest
// record to the mpimg dataset. Both use the same store factory; the store
// is created lazily on first write.
type ArchiveSink struct {
	factory lode.StoreFactory
	dataset lode.Dataset
	source  types.Source

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// NewArchiveSink creates an archive sink on factory.
// Use lode.NewMemoryFactory() for testing.
func NewArchiveSink(factory lode.StoreFactory, source types.Source) (*ArchiveSink, error) {
	ds, err := NewManifestDataset(factory)
	if err != nil {
		return nil, wrapError("init", DatasetID, err)
	}
	return &ArchiveSink{factory: factory, dataset: ds, source: source}, nil
}

// NewManifestDataset opens the manifest dataset, partitioned by day.
func NewManifestDataset(factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(DatasetID),
		factory,
		lode.WithHiveLayout("day"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// Write stores art and records it in the manifest. A manifest failure
// leaves the stored object in place.
func (s *ArchiveSink) Write(ctx context.Context, art *types.Artwork) error {
	store, err := s.getOrCreateStore()
	if err != nil {
		return err
	}

	key := ArtworkKey(art)
	if err := store.Put(ctx, key, bytes.NewReader(art.Data)); err != nil {
		return wrapError("put", key, err)
	}

	rec := NewManifestRecord(art, key, s.source)
	if _, err := s.dataset.Write(ctx, []any{rec.toMap()}, lode.Metadata{}); err != nil {
		return wrapError("manifest", key, err)
	}
	return nil
}

// Close releases sink resources. The lode Dataset needs no explicit close.
func (s *ArchiveSink) Close() error {
	return nil
}

func (s *ArchiveSink) getOrCreateStore() (lode.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = s.factory()
		if s.storeErr != nil {
			s.storeErr = wrapError("init", "", s.storeErr)
		}
	})
	return s.store, s.storeErr
}

var _ policy.Sink = (*ArchiveSink)(nil)
