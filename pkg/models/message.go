package models

// Message is a single wall entry. Immutable once ingested; CreatedAt is the
// ingest timestamp rendered as 2006-01-02T15:04:05.000000Z (UTC,
// microsecond precision).
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// Snapshot is the derived read document published for client polling. It is
// recomputed in full on every build; it has no identity or history of its
// own. MessageCount is the running total of accepted messages, which may be
// ahead of Messages when reads interleave with concurrent ingests.
type Snapshot struct {
	MessageCount int64     `json:"messageCount"`
	Messages     []Message `json:"messages"`
}

// TimestampLayout is the wire format for CreatedAt and for the sort-key
// timestamp component.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"
