package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andesbank/coreledger/internal/logging"
)

func newTestConsumer(t *testing.T, handler Handler) (*Consumer, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewConsumer(rdb, "replica", "test-consumer", handler, logging.Discard())
	c.Block = -1 // non-blocking reads in tests
	if err := c.ensureGroup(context.Background()); err != nil {
		t.Fatalf("create consumer group: %v", err)
	}
	return c, rdb
}

func TestPublishAndConsumeRoundTrip(t *testing.T) {
	ctx := context.Background()

	var received []ClientEvent
	c, rdb := newTestConsumer(t, func(_ context.Context, event ClientEvent) error {
		received = append(received, event)
		return nil
	})

	pub := NewStreamPublisher(rdb, logging.Discard())
	event := ClientEvent{
		Type:           TypeCreated,
		ClientID:       uuid.NewString(),
		Name:           "Jose Lema",
		Identification: "1710034065",
		Active:         true,
		OccurredAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := pub.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	handled, acked, err := c.Poll(ctx, ">")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if handled != 1 || acked != 1 {
		t.Fatalf("expected 1 handled and acked, got %d/%d", handled, acked)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	got := received[0]
	if got.Type != event.Type || got.ClientID != event.ClientID || got.Name != event.Name || !got.OccurredAt.Equal(event.OccurredAt) {
		t.Fatalf("event round trip mismatch: %+v", got)
	}

	pending, err := rdb.XPending(ctx, Stream, "replica").Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("acknowledged event must not stay pending, got %d", pending.Count)
	}
}

func TestPublishSetsOccurredAt(t *testing.T) {
	ctx := context.Background()

	var received ClientEvent
	c, rdb := newTestConsumer(t, func(_ context.Context, event ClientEvent) error {
		received = event
		return nil
	})

	pub := NewStreamPublisher(rdb, logging.Discard())
	if err := pub.Publish(ctx, ClientEvent{Type: TypeDeleted, ClientID: uuid.NewString()}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, _, err := c.Poll(ctx, ">"); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if received.OccurredAt.IsZero() {
		t.Fatalf("publisher must stamp a missing occurred_at")
	}
}

func TestMalformedPayloadAckedAndDropped(t *testing.T) {
	ctx := context.Background()

	calls := 0
	c, rdb := newTestConsumer(t, func(context.Context, ClientEvent) error {
		calls++
		return nil
	})

	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]interface{}{"client_id": "x", "payload": "{not json"},
	}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}
	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]interface{}{"client_id": "y"},
	}).Err(); err != nil {
		t.Fatalf("xadd: %v", err)
	}

	handled, acked, err := c.Poll(ctx, ">")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if handled != 2 || acked != 2 {
		t.Fatalf("malformed entries must be acked and dropped, got %d/%d", handled, acked)
	}
	if calls != 0 {
		t.Fatalf("handler must not see undecodable entries, got %d calls", calls)
	}
}

func TestHandlerErrorLeavesEntryPending(t *testing.T) {
	ctx := context.Background()

	c, rdb := newTestConsumer(t, func(context.Context, ClientEvent) error {
		return errors.New("replica unavailable")
	})

	pub := NewStreamPublisher(rdb, logging.Discard())
	if err := pub.Publish(ctx, ClientEvent{Type: TypeCreated, ClientID: uuid.NewString(), Active: true}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	handled, acked, err := c.Poll(ctx, ">")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if handled != 1 || acked != 0 {
		t.Fatalf("failed entry must stay unacknowledged, got %d/%d", handled, acked)
	}

	pending, err := rdb.XPending(ctx, Stream, "replica").Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 1 {
		t.Fatalf("expected 1 pending entry, got %d", pending.Count)
	}
}

func TestPendingEntryRedeliveredAfterRestart(t *testing.T) {
	ctx := context.Background()

	fail := true
	var applied []string
	c, rdb := newTestConsumer(t, func(_ context.Context, event ClientEvent) error {
		if fail {
			return errors.New("transient failure")
		}
		applied = append(applied, event.ClientID)
		return nil
	})

	pub := NewStreamPublisher(rdb, logging.Discard())
	clientID := uuid.NewString()
	if err := pub.Publish(ctx, ClientEvent{Type: TypeUpdated, ClientID: clientID, Active: true}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if _, acked, err := c.Poll(ctx, ">"); err != nil || acked != 0 {
		t.Fatalf("first delivery should fail unacked, acked=%d err=%v", acked, err)
	}

	// A restarted consumer reads its pending entries from position 0.
	fail = false
	handled, acked, err := c.Poll(ctx, "0")
	if err != nil {
		t.Fatalf("poll pending: %v", err)
	}
	if handled != 1 || acked != 1 {
		t.Fatalf("pending entry must be redelivered and acked, got %d/%d", handled, acked)
	}
	if len(applied) != 1 || applied[0] != clientID {
		t.Fatalf("expected redelivered event for %s, got %v", clientID, applied)
	}
}

func TestLogPublisherNeverFails(t *testing.T) {
	pub := NewLogPublisher(logging.Discard())
	if err := pub.Publish(context.Background(), ClientEvent{Type: TypeCreated, ClientID: uuid.NewString()}); err != nil {
		t.Fatalf("log publisher must not fail: %v", err)
	}
}
