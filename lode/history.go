package lode

import (
	"context"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// QueryHistory reads manifest records, latest first. A non-empty uri keeps
// only records of that track; limit <= 0 returns all.
func QueryHistory(ctx context.Context, ds lode.Dataset, uri string, limit int) ([]ManifestRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, wrapError("snapshots", DatasetID, err)
	}

	var out []ManifestRecord
	// Snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, wrapError("read", fmt.Sprintf("%s/snapshot/%s", DatasetID, snap.ID), err)
		}

		for j := len(data) - 1; j >= 0; j-- {
			m, ok := data[j].(map[string]any)
			if !ok || m["record_kind"] != RecordKindArtwork {
				continue
			}
			rec := recordFromMap(m)
			if uri != "" && rec.URI != uri {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func recordFromMap(m map[string]any) ManifestRecord {
	return ManifestRecord{
		RecordKind:  toString(m["record_kind"]),
		Day:         toString(m["day"]),
		URI:         toString(m["uri"]),
		Key:         toString(m["key"]),
		SHA256:      toString(m["sha256"]),
		Size:        toInt64(m["size"]),
		ContentType: toString(m["content_type"]),
		Source:      toString(m["source"]),
		FetchedAt:   toString(m["fetched_at"]),
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 accepts the numeric types a decoded record may carry.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case interface{ Int64() (int64, error) }:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
