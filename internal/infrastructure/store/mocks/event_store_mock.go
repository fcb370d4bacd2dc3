package mocks

import (
	"context"
	"sync"

	"github.com/example/shopwise/internal/infrastructure/store"
)

// AppendFunc replaces the default append behaviour when set on the mock.
type AppendFunc func(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error)

// MockEventStore records appends and snapshots over an unpublished
// in-memory event store. AppendCallback takes precedence over AppendErr.
type MockEventStore struct {
	log *store.EventStore

	mu             sync.Mutex
	AppendCalls    []AppendCall
	AppendErr      error
	AppendCallback AppendFunc
	GetEventsErr   error
	SnapshotCalls  []store.Snapshot
}

type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{log: store.NewEventStore(nil)}
}

var _ store.EventStoreInterface = (*MockEventStore)(nil)

func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	callback, err := m.AppendCallback, m.AppendErr
	m.mu.Unlock()

	switch {
	case callback != nil:
		return callback(ctx, aggregateID, aggregateType, eventType, data)
	case err != nil:
		return nil, err
	}
	return m.log.Append(ctx, aggregateID, aggregateType, eventType, data)
}

// AddEvent seeds history without recording an append call.
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	_, err := m.log.Append(context.Background(), aggregateID, aggregateType, eventType, data)
	return err
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]store.Event, error) {
	return m.GetEventsFromVersion(ctx, aggregateID, 0)
}

func (m *MockEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]store.Event, error) {
	m.mu.Lock()
	err := m.GetEventsErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.log.GetEventsFromVersion(ctx, aggregateID, fromVersion)
}

func (m *MockEventStore) GetAllEvents(ctx context.Context) ([]store.Event, error) {
	return m.log.GetAllEvents(ctx)
}

func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	m.SnapshotCalls = append(m.SnapshotCalls, *snapshot)
	m.mu.Unlock()
	return m.log.SaveSnapshot(ctx, snapshot)
}

func (m *MockEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	return m.log.GetSnapshot(ctx, aggregateID)
}
