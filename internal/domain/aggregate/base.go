// Package aggregate rebuilds event-sourced aggregates from their latest
// snapshot plus the events recorded after it.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/shopwise/internal/infrastructure/store"
)

// Root is implemented by every aggregate in the domain packages.
type Root interface {
	GetID() string
	GetVersion() int
	SetVersion(int)
	ApplyEvent(store.Event) error
}

// Load rebuilds the aggregate with id. found is false when the store holds
// neither a snapshot nor an event for it.
func Load[T Root](ctx context.Context, es store.EventStoreInterface, id string, blank func() T) (T, bool, error) {
	var zero T
	agg := blank()

	snap, err := es.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	from := 0
	if snap != nil {
		if err := snap.Restore(agg); err != nil {
			return zero, false, err
		}
		agg.SetVersion(snap.Version)
		from = snap.Version
	}

	events, err := es.GetEventsFromVersion(ctx, id, from)
	if err != nil {
		return zero, false, fmt.Errorf("load events %s: %w", id, err)
	}
	for _, e := range events {
		if err := agg.ApplyEvent(e); err != nil {
			return zero, false, fmt.Errorf("replay %s v%d on %s: %w", e.EventType, e.Version, id, err)
		}
	}

	return agg, snap != nil || len(events) > 0, nil
}

// Snapshot stores agg's state when its version falls on the snapshot
// interval and does nothing otherwise.
func Snapshot(ctx context.Context, es store.EventStoreInterface, agg Root, aggregateType string) error {
	if !store.SnapshotDue(agg.GetVersion()) {
		return nil
	}
	snap, err := store.NewSnapshot(agg.GetID(), aggregateType, agg.GetVersion(), agg)
	if err != nil {
		return err
	}
	return es.SaveSnapshot(ctx, snap)
}

// ApplyAndSnapshot folds a just-appended event into agg so the caller can
// answer with fresh state. The event is already durable, so failures here
// are logged rather than returned.
func ApplyAndSnapshot(ctx context.Context, es store.EventStoreInterface, agg Root, aggregateType string, event *store.Event) {
	if event == nil {
		return
	}
	logger := slog.Default().With("component", "aggregate", "aggregate_type", aggregateType, "aggregate_id", agg.GetID())
	if err := agg.ApplyEvent(*event); err != nil {
		logger.WarnContext(ctx, "apply appended event failed", "event_type", event.EventType, "error", err)
		return
	}
	if err := Snapshot(ctx, es, agg, aggregateType); err != nil {
		logger.WarnContext(ctx, "save snapshot failed", "version", agg.GetVersion(), "error", err)
	}
}
