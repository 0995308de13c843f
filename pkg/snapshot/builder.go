// Package snapshot recomputes the denormalized read document from store
// ground truth and overwrites the published object. The builder never
// trusts its trigger: every run re-reads the counter and the recent
// messages, so running it twice (or concurrently) is harmless.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"messagewall/pkg/logger"
	"messagewall/pkg/models"
	"messagewall/pkg/publish"
	"messagewall/pkg/store"
	"messagewall/pkg/telemetry"
)

// RecentLimit is the fixed window size of the published message list.
const RecentLimit = 5

// CacheControl forces downstream caches to revalidate on every fetch so a
// poll never sees a stale snapshot.
const CacheControl = "no-cache, no-store, must-revalidate"

// Store is the read-only slice of the store the builder needs.
type Store interface {
	Count() (int64, error)
	RecentMessages(limit int) ([]store.Record, error)
}

// Builder assembles and publishes the snapshot document.
type Builder struct {
	store     Store
	publisher publish.Publisher
	key       string
}

// New returns a Builder publishing under the given object key.
func New(st Store, pub publish.Publisher, key string) *Builder {
	return &Builder{store: st, publisher: pub, key: key}
}

// Rebuild recomputes the snapshot and overwrites the published object.
// It returns the message count it published. Errors are logged and returned
// as-is; retry policy belongs to whatever triggered the rebuild.
func (b *Builder) Rebuild(ctx context.Context) (int64, error) {
	count, err := b.store.Count()
	if err != nil {
		telemetry.SnapshotFailures.Inc()
		logger.Error("snapshot_count_read_failed", "error", err)
		return 0, fmt.Errorf("read message count: %w", err)
	}

	records, err := b.store.RecentMessages(RecentLimit)
	if err != nil {
		telemetry.SnapshotFailures.Inc()
		logger.Error("snapshot_scan_failed", "error", err)
		return 0, fmt.Errorf("scan recent messages: %w", err)
	}

	snap := models.Snapshot{MessageCount: count, Messages: make([]models.Message, 0, len(records))}
	for _, rec := range records {
		snap.Messages = append(snap.Messages, models.Message{
			ID:        idFromSortKey(rec.SortKey),
			Text:      rec.Text,
			CreatedAt: rec.CreatedAt,
		})
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		telemetry.SnapshotFailures.Inc()
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	meta := publish.Meta{ContentType: "application/json", CacheControl: CacheControl}
	if err := b.publisher.Put(ctx, b.key, body, meta); err != nil {
		telemetry.SnapshotFailures.Inc()
		logger.Error("snapshot_publish_failed", "key", b.key, "error", err)
		return 0, fmt.Errorf("publish snapshot: %w", err)
	}

	telemetry.SnapshotRebuilds.Inc()
	logger.Info("snapshot_published", "key", b.key, "messageCount", count, "recent", len(snap.Messages))
	return count, nil
}

// idFromSortKey extracts the message id from a <timestamp>#<id> sort key.
// A key without a delimiter is returned whole; that conflates key and id,
// but it cannot occur under normal key construction and the degenerate
// behavior is kept on purpose.
func idFromSortKey(sk string) string {
	if strings.Contains(sk, "#") {
		return strings.Split(sk, "#")[1]
	}
	return sk
}
