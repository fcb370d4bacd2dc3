package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderImage(id string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":             events.NewStringAttribute(id),
		"aggregate_id":   events.NewStringAttribute("order-456"),
		"aggregate_type": events.NewStringAttribute("Order"),
		"event_type":     events.NewStringAttribute("OrderPlaced"),
		"data":           events.NewStringAttribute(`{"order_id":"order-456"}`),
		"created_at":     events.NewStringAttribute("2025-01-15T10:30:00.123456789Z"),
		"version":        events.NewNumberAttribute("3"),
	}
}

func kinesisRecord(t *testing.T, seq, eventName string, image map[string]events.DynamoDBAttributeValue) events.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(events.DynamoDBEventRecord{
		EventName: eventName,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	})
	require.NoError(t, err)
	return events.KinesisEventRecord{
		EventID: "shard-0:" + seq,
		Kinesis: events.KinesisRecord{SequenceNumber: seq, Data: data},
	}
}

type recordingHandler struct {
	failOn string
	keys   []string
	events []store.Event
}

func (h *recordingHandler) HandleEvent(_ context.Context, key, value []byte) error {
	event, err := store.DecodeEvent(value)
	if err != nil {
		return err
	}
	if event.ID == h.failOn {
		return errors.New("projection failed")
	}
	h.keys = append(h.keys, string(key))
	h.events = append(h.events, event)
	return nil
}

func TestDecodeImage(t *testing.T) {
	tests := []struct {
		name    string
		image   map[string]events.DynamoDBAttributeValue
		wantErr bool
	}{
		{name: "valid event", image: orderImage("event-123")},
		{name: "nil image", image: nil, wantErr: true},
		{name: "missing required fields", image: map[string]events.DynamoDBAttributeValue{
			"id": events.NewStringAttribute("event-123"),
		}, wantErr: true},
		{name: "bad timestamp", image: func() map[string]events.DynamoDBAttributeValue {
			img := orderImage("event-123")
			img["created_at"] = events.NewStringAttribute("yesterday")
			return img
		}(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := decodeImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "event-123", event.ID)
			assert.Equal(t, "order-456", event.AggregateID)
			assert.Equal(t, "Order", event.AggregateType)
			assert.Equal(t, "OrderPlaced", event.EventType)
			assert.Equal(t, 3, event.Version)
			assert.JSONEq(t, `{"order_id":"order-456"}`, string(event.Data))
			assert.True(t, event.Timestamp.Equal(time.Date(2025, 1, 15, 10, 30, 0, 123456789, time.UTC)))
		})
	}
}

func TestDecodeRecord_SkipsNonInserts(t *testing.T) {
	for _, name := range []string{"MODIFY", "REMOVE"} {
		event, err := DecodeRecord(kinesisRecord(t, "1", name, nil))
		require.NoError(t, err)
		assert.Nil(t, event)
	}
}

func TestBatchProcessor_Handle(t *testing.T) {
	handler := &recordingHandler{failOn: "event-3"}
	processor := NewBatchProcessor("test-processor", handler)

	batch := events.KinesisEvent{Records: []events.KinesisEventRecord{
		kinesisRecord(t, "100", "INSERT", orderImage("event-1")),
		kinesisRecord(t, "101", "MODIFY", orderImage("event-2")),
		kinesisRecord(t, "102", "INSERT", orderImage("event-3")),
		{EventID: "bad", Kinesis: events.KinesisRecord{SequenceNumber: "103", Data: []byte("not json")}},
		kinesisRecord(t, "104", "INSERT", orderImage("event-5")),
	}}

	resp, err := processor.Handle(context.Background(), batch)

	require.NoError(t, err)
	assert.Equal(t, []events.KinesisBatchItemFailure{
		{ItemIdentifier: "102"},
		{ItemIdentifier: "103"},
	}, resp.BatchItemFailures)
	assert.Equal(t, []string{"order-456", "order-456"}, handler.keys)
	require.Len(t, handler.events, 2)
	assert.Equal(t, "event-1", handler.events[0].ID)
	assert.Equal(t, "event-5", handler.events[1].ID)
}
