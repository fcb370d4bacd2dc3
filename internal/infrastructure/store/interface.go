package store

import (
	"context"

	"github.com/example/shopwise/internal/domain"
)

// ErrVersionConflict is returned when another writer appended the same
// aggregate version first. It is a domain conflict, so the request can be
// retried.
var ErrVersionConflict = domain.New(domain.ErrConflict, "The record was changed by another request, please retry")

// Publisher fans appended events out to projections and notifiers. The Kafka
// producer and projection.InlinePublisher both satisfy it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// EventStoreInterface is the write side: an append-only log per aggregate
// plus optional snapshots. Versions start at 1 and increase by one per
// aggregate; an append that races on a version fails.
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	// GetEventsFromVersion returns the events after fromVersion in order.
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)

	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	// GetSnapshot returns nil, nil when the aggregate has no snapshot.
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
}

// ReadStoreInterface holds projected documents keyed by collection and id.
// Collection names and their document types live in the readmodel package.
type ReadStoreInterface interface {
	Set(ctx context.Context, collection, id string, data any) error
	// Get reports false, with a nil error, for a missing document.
	Get(ctx context.Context, collection, id string) (any, bool, error)
	// GetAll returns every document in a collection in no particular order.
	GetAll(ctx context.Context, collection string) ([]any, error)
	Delete(ctx context.Context, collection, id string) error
	// Update replaces a document with updateFn's result and reports false
	// when there is nothing to update.
	Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error)
}
