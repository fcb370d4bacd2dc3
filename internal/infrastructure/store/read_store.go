package store

import (
	"context"
	"sync"
)

type docKey struct {
	collection string
	id         string
}

// ReadStore keeps projected documents in memory. It backs the memory storage
// backend and tests.
type ReadStore struct {
	mu   sync.RWMutex
	docs map[docKey]any
	// ids per collection, so GetAll does not scan other collections
	index map[string]map[string]struct{}
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		docs:  make(map[docKey]any),
		index: make(map[string]map[string]struct{}),
	}
}

func (rs *ReadStore) Set(_ context.Context, collection, id string, data any) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.docs[docKey{collection, id}] = data
	ids, ok := rs.index[collection]
	if !ok {
		ids = make(map[string]struct{})
		rs.index[collection] = ids
	}
	ids[id] = struct{}{}
	return nil
}

func (rs *ReadStore) Get(_ context.Context, collection, id string) (any, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	doc, ok := rs.docs[docKey{collection, id}]
	return doc, ok, nil
}

func (rs *ReadStore) GetAll(_ context.Context, collection string) ([]any, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	ids := rs.index[collection]
	out := make([]any, 0, len(ids))
	for id := range ids {
		out = append(out, rs.docs[docKey{collection, id}])
	}
	return out, nil
}

func (rs *ReadStore) Delete(_ context.Context, collection, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.docs, docKey{collection, id})
	delete(rs.index[collection], id)
	return nil
}

// Update runs updateFn under the write lock, so concurrent updates of one
// document never interleave.
func (rs *ReadStore) Update(_ context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	key := docKey{collection, id}
	current, ok := rs.docs[key]
	if !ok {
		return false, nil
	}
	rs.docs[key] = updateFn(current)
	return true, nil
}
