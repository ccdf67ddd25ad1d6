package docstore

import (
	"context"
)

// DefaultLimit caps every search. There is no pagination beyond it.
const DefaultLimit = 1000

// Refresh controls whether a write blocks until it is visible to reads.
type Refresh int

const (
	// RefreshNone returns as soon as the write is accepted.
	RefreshNone Refresh = iota
	// RefreshWaitFor blocks until subsequent reads observe the write.
	RefreshWaitFor
)

// Document is a stored record and its key.
type Document struct {
	ID     string
	Source map[string]interface{}
}

// Query selects documents of a collection.
//
// An empty Field matches every document. Value is compared for exact,
// case-sensitive equality against the stored string field.
type Query struct {
	Field      string
	Value      string
	SortField  string
	Descending bool
	Limit      int
}

func (q Query) limit() int {
	if q.Limit <= 0 || q.Limit > DefaultLimit {
		return DefaultLimit
	}
	return q.Limit
}

// Store is a collection-oriented document store with search-by-field.
type Store interface {
	// Get returns the document or an error wrapping ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Search returns matching documents in query order.
	Search(ctx context.Context, collection string, q Query) ([]Document, error)
	// Index inserts or replaces the document stored under id.
	Index(ctx context.Context, collection, id string, source map[string]interface{}, refresh Refresh) (string, error)
	// Update merges partial into the stored document.
	Update(ctx context.Context, collection, id string, partial map[string]interface{}, refresh Refresh) error
	// Delete removes the document or returns an error wrapping ErrNotFound.
	Delete(ctx context.Context, collection, id string, refresh Refresh) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

func merge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
