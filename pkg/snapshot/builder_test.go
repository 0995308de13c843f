package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"messagewall/pkg/models"
	"messagewall/pkg/publish"
	"messagewall/pkg/store"
)

type fakeStore struct {
	count    int64
	countErr error
	records  []store.Record
	scanErr  error
}

func (f *fakeStore) Count() (int64, error) {
	return f.count, f.countErr
}

func (f *fakeStore) RecentMessages(limit int) ([]store.Record, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type memPublisher struct {
	puts   int
	body   []byte
	meta   publish.Meta
	key    string
	putErr error
}

func (m *memPublisher) Put(_ context.Context, key string, body []byte, meta publish.Meta) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.key = key
	m.body = append([]byte(nil), body...)
	m.meta = meta
	return nil
}

func (m *memPublisher) Get(string) ([]byte, publish.Meta, error) {
	if m.body == nil {
		return nil, publish.Meta{}, errors.New("not published")
	}
	return m.body, m.meta, nil
}

func rec(ts, id, text string) store.Record {
	return store.Record{SortKey: ts + "#" + id, Text: text, CreatedAt: ts}
}

func TestRebuildPublishesSnapshot(t *testing.T) {
	st := &fakeStore{
		count: 3,
		records: []store.Record{
			rec("2026-01-03T00:00:00.000000Z", "c", "third"),
			rec("2026-01-02T00:00:00.000000Z", "b", "second"),
			rec("2026-01-01T00:00:00.000000Z", "a", "first"),
		},
	}
	pub := &memPublisher{}
	n, err := New(st, pub, "state.json").Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n != 3 {
		t.Fatalf("published count = %d, want 3", n)
	}
	if pub.key != "state.json" {
		t.Fatalf("key = %q", pub.key)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(pub.body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.MessageCount != 3 {
		t.Fatalf("messageCount = %d", snap.MessageCount)
	}
	wantIDs := []string{"c", "b", "a"}
	if len(snap.Messages) != 3 {
		t.Fatalf("got %d messages", len(snap.Messages))
	}
	for i, m := range snap.Messages {
		if m.ID != wantIDs[i] {
			t.Fatalf("message %d id = %q, want %q", i, m.ID, wantIDs[i])
		}
	}
	if snap.Messages[0].Text != "third" || snap.Messages[0].CreatedAt != "2026-01-03T00:00:00.000000Z" {
		t.Fatalf("newest message = %+v", snap.Messages[0])
	}
}

func TestRebuildCapsMessageList(t *testing.T) {
	st := &fakeStore{count: 7}
	for i := 7; i >= 1; i-- {
		st.records = append(st.records, rec(fmt.Sprintf("2026-01-0%dT00:00:00.000000Z", i), fmt.Sprintf("id%d", i), "x"))
	}
	pub := &memPublisher{}
	n, err := New(st, pub, "state.json").Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n != 7 {
		t.Fatalf("count = %d, want 7", n)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(pub.body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.MessageCount != 7 {
		t.Fatalf("messageCount = %d, want 7 (count must not be capped)", snap.MessageCount)
	}
	if len(snap.Messages) != RecentLimit {
		t.Fatalf("got %d messages, want %d", len(snap.Messages), RecentLimit)
	}
}

func TestRebuildEmptyStore(t *testing.T) {
	pub := &memPublisher{}
	n, err := New(&fakeStore{}, pub, "state.json").Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(pub.body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.MessageCount != 0 || len(snap.Messages) != 0 {
		t.Fatalf("snapshot = %+v, want empty", snap)
	}
	// the messages field must still serialize as [], not null
	if !bytes.Contains(pub.body, []byte(`"messages": []`)) {
		t.Fatalf("body = %s", pub.body)
	}
}

func TestRebuildIdempotent(t *testing.T) {
	st := &fakeStore{count: 1, records: []store.Record{rec("2026-01-01T00:00:00.000000Z", "a", "one")}}
	pub := &memPublisher{}
	b := New(st, pub, "state.json")
	if _, err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	first := append([]byte(nil), pub.body...)
	if _, err := b.Rebuild(context.Background()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if !bytes.Equal(first, pub.body) {
		t.Fatal("rebuild over unchanged state must publish identical bytes")
	}
	if pub.puts != 2 {
		t.Fatalf("puts = %d, want 2 (each rebuild overwrites)", pub.puts)
	}
}

func TestRebuildSetsServingMetadata(t *testing.T) {
	pub := &memPublisher{}
	if _, err := New(&fakeStore{}, pub, "state.json").Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if pub.meta.ContentType != "application/json" {
		t.Fatalf("content type = %q", pub.meta.ContentType)
	}
	if pub.meta.CacheControl != CacheControl {
		t.Fatalf("cache control = %q", pub.meta.CacheControl)
	}
}

func TestRebuildErrors(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name string
		st   *fakeStore
		pub  *memPublisher
	}{
		{"count read fails", &fakeStore{countErr: boom}, &memPublisher{}},
		{"scan fails", &fakeStore{scanErr: boom}, &memPublisher{}},
		{"publish fails", &fakeStore{}, &memPublisher{putErr: boom}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := New(c.st, c.pub, "state.json").Rebuild(context.Background()); !errors.Is(err, boom) {
				t.Fatalf("err = %v, want wrapped boom", err)
			}
		})
	}
}

func TestIDFromSortKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-01-01T00:00:00.000000Z#abc", "abc"},
		{"a#b#c", "b"},
		{"nodelimiter", "nodelimiter"},
	}
	for _, c := range cases {
		if got := idFromSortKey(c.in); got != c.want {
			t.Fatalf("idFromSortKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
