package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotEvery is the version interval at which aggregate state is
// snapshotted.
const SnapshotEvery = 10

// Snapshot is the serialized state of an aggregate at Version. Loading
// replays only the events after it.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SnapshotDue reports whether an aggregate at version should be snapshotted.
func SnapshotDue(version int) bool {
	return version > 0 && version%SnapshotEvery == 0
}

// NewSnapshot serializes state taken at version.
func NewSnapshot(aggregateID, aggregateType string, version int, state any) (*Snapshot, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s snapshot: %w", aggregateType, aggregateID, err)
	}
	return &Snapshot{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		State:         raw,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Restore decodes the snapshot state into dst.
func (s *Snapshot) Restore(dst any) error {
	if err := json.Unmarshal(s.State, dst); err != nil {
		return fmt.Errorf("decode %s %s snapshot: %w", s.AggregateType, s.AggregateID, err)
	}
	return nil
}
