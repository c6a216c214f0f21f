package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher emits client identity events. Callers treat publication as
// fire-and-forget and never let a publish failure affect the durable write
// that triggered it.
type Publisher interface {
	Publish(ctx context.Context, event ClientEvent) error
}

// StreamPublisher appends client events to a Redis stream. The client id
// travels alongside the payload so consumers can key their processing.
type StreamPublisher struct {
	rdb    *redis.Client
	stream string
	logger *slog.Logger
}

// NewStreamPublisher builds a publisher writing to the client events stream.
func NewStreamPublisher(rdb *redis.Client, logger *slog.Logger) *StreamPublisher {
	return &StreamPublisher{rdb: rdb, stream: Stream, logger: logger}
}

// Publish appends the event to the stream.
func (p *StreamPublisher) Publish(ctx context.Context, event ClientEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"client_id": event.ClientID,
			"payload":   string(payload),
		},
	}).Err()
	if err != nil {
		return err
	}

	p.logger.Debug("client event published",
		slog.String("type", event.Type), slog.String("client_id", event.ClientID))
	return nil
}

// LogPublisher writes events to the structured logger instead of a broker.
// Used in development when no Redis instance is wired.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher stub.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event and reports success.
func (p *LogPublisher) Publish(_ context.Context, event ClientEvent) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("client event",
		slog.String("type", event.Type),
		slog.String("client_id", event.ClientID),
		slog.String("identification", event.Identification),
		slog.Bool("active", event.Active))
	return nil
}
