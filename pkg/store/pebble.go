package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"messagewall/pkg/logger"
	"messagewall/pkg/models"
)

// Key layout mirrors the two logical partitions of the wall:
//
//	MESSAGE#<timestamp>#<id>  -> {"text":...,"createdAt":...}
//	METADATA#METADATA         -> running message count (decimal)
//
// The partition marker and sort key are joined with '#'; within the message
// partition the sort key itself is <timestamp>#<id>, so lexicographic order
// over keys is creation order and same-timestamp messages stay distinct.
const (
	messagePrefix = "MESSAGE#"
	counterKey    = "METADATA#METADATA"
)

// Record is a raw message row as returned by a range scan: the sort key
// (partition marker stripped) plus the stored fields.
type Record struct {
	SortKey   string
	Text      string
	CreatedAt string
}

// row is the on-disk value of a message record.
type row struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// Store is a pebble-backed ordered key-value store. The counter key is only
// ever written through pebble merges, which makes increments atomic with
// respect to concurrent writers.
type Store struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{Merger: counterMerger})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("pebble_closed", "path", s.path)
	return err
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// IncrementCount adds delta to the running message count. A missing counter
// record counts as zero. The merge is applied atomically by pebble, so
// concurrent increments never lose updates.
func (s *Store) IncrementCount(delta int64) error {
	if !s.Ready() {
		return fmt.Errorf("store not open")
	}
	return s.db.Merge([]byte(counterKey), encodeCount(delta), pebble.Sync)
}

// Count returns the current running message count, zero when the counter
// record does not exist yet.
func (s *Store) Count() (int64, error) {
	if !s.Ready() {
		return 0, fmt.Errorf("store not open")
	}
	v, closer, err := s.db.Get([]byte(counterKey))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return decodeCount(v)
}

// PutMessage writes a message record under the given sort key. Keys embed a
// unique id, so concurrent writers cannot clobber each other.
func (s *Store) PutMessage(sortKey string, m models.Message) error {
	if !s.Ready() {
		return fmt.Errorf("store not open")
	}
	data, err := json.Marshal(row{Text: m.Text, CreatedAt: m.CreatedAt})
	if err != nil {
		return fmt.Errorf("marshal message record: %w", err)
	}
	key := messagePrefix + sortKey
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("put_message_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("message_stored", "key", key)
	return nil
}

// RecentMessages scans the message partition in descending sort-key order
// and returns at most limit records, newest first.
func (s *Store) RecentMessages(limit int) ([]Record, error) {
	if !s.Ready() {
		return nil, fmt.Errorf("store not open")
	}
	lower := []byte(messagePrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: keyUpperBound(lower),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Record
	for valid := iter.Last(); valid && len(out) < limit; valid = iter.Prev() {
		var r row
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("decode message record %q: %w", iter.Key(), err)
		}
		out = append(out, Record{
			SortKey:   string(iter.Key()[len(messagePrefix):]),
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, iter.Error()
}

// DiskSize returns the on-disk footprint of the store directory, best effort.
func (s *Store) DiskSize() uint64 {
	var total uint64
	_ = filepath.WalkDir(s.path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, ferr := d.Info(); ferr == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
