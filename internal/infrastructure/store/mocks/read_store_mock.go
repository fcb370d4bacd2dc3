package mocks

import (
	"context"
	"sync"

	"github.com/example/shopwise/internal/infrastructure/store"
)

// MockReadStore records calls on top of the in-memory read store. Setting
// Err makes every interface method fail after the call is recorded.
type MockReadStore struct {
	docs *store.ReadStore

	mu          sync.Mutex
	SetCalls    []SetCall
	GetCalls    []DocCall
	DeleteCalls []DocCall
	UpdateCalls []DocCall
	Err         error
}

type SetCall struct {
	Collection string
	ID         string
	Data       any
}

// DocCall identifies the document a Get, Delete or Update was aimed at.
type DocCall struct {
	Collection string
	ID         string
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{docs: store.NewReadStore()}
}

var _ store.ReadStoreInterface = (*MockReadStore)(nil)

func (m *MockReadStore) record(log *[]DocCall, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*log = append(*log, DocCall{Collection: collection, ID: id})
	return m.Err
}

func (m *MockReadStore) failure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *MockReadStore) Set(ctx context.Context, collection, id string, data any) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Collection: collection, ID: id, Data: data})
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.docs.Set(ctx, collection, id, data)
}

func (m *MockReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	if err := m.record(&m.GetCalls, collection, id); err != nil {
		return nil, false, err
	}
	return m.docs.Get(ctx, collection, id)
}

func (m *MockReadStore) GetAll(ctx context.Context, collection string) ([]any, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	return m.docs.GetAll(ctx, collection)
}

func (m *MockReadStore) Delete(ctx context.Context, collection, id string) error {
	if err := m.record(&m.DeleteCalls, collection, id); err != nil {
		return err
	}
	return m.docs.Delete(ctx, collection, id)
}

func (m *MockReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	if err := m.record(&m.UpdateCalls, collection, id); err != nil {
		return false, err
	}
	return m.docs.Update(ctx, collection, id, updateFn)
}

// SetData seeds a document without recording a call or consulting Err.
func (m *MockReadStore) SetData(collection, id string, data any) {
	_ = m.docs.Set(context.Background(), collection, id, data)
}

// GetData peeks at a document without recording a call.
func (m *MockReadStore) GetData(collection, id string) (any, bool) {
	data, ok, _ := m.docs.Get(context.Background(), collection, id)
	return data, ok
}
