// Package publish is the outbound side of the wall: a tiny object store
// holding the single published snapshot document. Writes are full
// overwrites with read-after-write visibility.
package publish

import "context"

// Meta is the serving metadata attached to a published object.
type Meta struct {
	ContentType  string `json:"contentType"`
	CacheControl string `json:"cacheControl"`
}

// Publisher overwrites the object stored under key. There is no versioning
// and no partial write: after Put returns, Get observes the new body.
type Publisher interface {
	Put(ctx context.Context, key string, body []byte, meta Meta) error
	Get(key string) ([]byte, Meta, error)
}
