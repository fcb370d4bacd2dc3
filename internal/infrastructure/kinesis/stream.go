package kinesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/shopwise/internal/infrastructure/store"
	"github.com/example/shopwise/internal/logging"
)

// DynamoDB Kinesis integration delivers records in DynamoDB Streams format.
// Only INSERTs carry new events; the event table is append-only.
const insertEvent = "INSERT"

// EventHandler consumes one published event, like the projector and the
// notifier.
type EventHandler interface {
	HandleEvent(ctx context.Context, key, value []byte) error
}

// DecodeRecord extracts the stored event from a Kinesis record. It returns
// nil for MODIFY and REMOVE records.
func DecodeRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var change events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("unmarshal DynamoDB record: %w", err)
	}
	if change.EventName != insertEvent {
		return nil, nil
	}
	return decodeImage(change.Change.NewImage)
}

func decodeImage(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	event := &store.Event{}
	if v, ok := image["id"]; ok {
		event.ID = v.String()
	}
	if v, ok := image["aggregate_id"]; ok {
		event.AggregateID = v.String()
	}
	if v, ok := image["aggregate_type"]; ok {
		event.AggregateType = v.String()
	}
	if v, ok := image["event_type"]; ok {
		event.EventType = v.String()
	}
	if v, ok := image["data"]; ok {
		event.Data = json.RawMessage(v.String())
	}
	if v, ok := image["created_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		event.Timestamp = t
	}
	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("parse version: %w", err)
		}
		event.Version = int(version)
	}

	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%q aggregate_id=%q event_type=%q",
			event.ID, event.AggregateID, event.EventType)
	}
	return event, nil
}

// BatchProcessor feeds a Kinesis batch to an EventHandler and reports the
// records that failed so Lambda retries only those.
type BatchProcessor struct {
	handler EventHandler
	logger  *slog.Logger
}

func NewBatchProcessor(name string, handler EventHandler) *BatchProcessor {
	return &BatchProcessor{handler: handler, logger: logging.Component(name)}
}

// Handle is the Lambda entry point.
func (p *BatchProcessor) Handle(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	var failures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord, msg string, err error) {
		p.logger.ErrorContext(ctx, msg, "record_id", record.EventID, "error", err)
		failures = append(failures, events.KinesisBatchItemFailure{ItemIdentifier: record.Kinesis.SequenceNumber})
	}

	for _, record := range batch.Records {
		event, err := DecodeRecord(record)
		if err != nil {
			fail(record, "decode record failed", err)
			continue
		}
		if event == nil {
			continue
		}

		value, err := json.Marshal(event)
		if err != nil {
			fail(record, "encode event failed", err)
			continue
		}
		if err := p.handler.HandleEvent(ctx, []byte(event.AggregateID), value); err != nil {
			fail(record, "handle event failed", err)
			continue
		}
		p.logger.DebugContext(ctx, "event processed", "event_id", event.ID, "event_type", event.EventType)
	}

	p.logger.InfoContext(ctx, "batch processed",
		"records", len(batch.Records), "failed", len(failures))
	return events.KinesisEventResponse{BatchItemFailures: failures}, nil
}
