package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes one decoded client event. A nil return acknowledges the
// message; a non-nil return leaves it pending so the stream redelivers it.
// Handlers must therefore be idempotent.
type Handler func(ctx context.Context, event ClientEvent) error

// Consumer reads client events from a Redis stream consumer group and hands
// them to a Handler. Delivery is at-least-once: messages are acknowledged
// only after the handler succeeds, and entries left pending by a crashed or
// failing consumer are drained again on the next start.
type Consumer struct {
	rdb     *redis.Client
	stream  string
	group   string
	name    string
	handler Handler
	logger  *slog.Logger

	// Block bounds each read; lowered by tests.
	Block time.Duration
}

const readBatch = 32

// NewConsumer builds a consumer bound to a group and consumer name.
func NewConsumer(rdb *redis.Client, group, name string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		rdb:     rdb,
		stream:  Stream,
		group:   group,
		name:    name,
		handler: handler,
		logger:  logger,
		Block:   5 * time.Second,
	}
}

// Run consumes events until the context is cancelled. Previously delivered
// but unacknowledged entries are processed before new ones.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	// Drain this consumer's pending entries from a prior run. Entries whose
	// handler fails again stay pending for the following restart.
	for {
		handled, acked, err := c.Poll(ctx, "0")
		if err != nil {
			return err
		}
		if handled < readBatch || acked == 0 {
			break
		}
	}

	for {
		if _, _, err := c.Poll(ctx, ">"); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("read client events", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

// Poll performs a single group read from the given stream position (">" for
// new entries, "0" for this consumer's pending entries) and processes every
// returned message. It reports how many messages were handled and how many
// of those were acknowledged.
func (c *Consumer) Poll(ctx context.Context, from string) (handled, acked int, err error) {
	res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, from},
		Count:    readBatch,
		Block:    c.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	for _, stream := range res {
		for _, msg := range stream.Messages {
			if c.process(ctx, msg) {
				acked++
			}
			handled++
		}
	}
	return handled, acked, nil
}

// process handles one raw stream entry and reports whether it was acknowledged.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) bool {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Warn("client event without payload, dropping", slog.String("id", msg.ID))
		c.ack(ctx, msg.ID)
		return true
	}

	var event ClientEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		c.logger.Warn("undecodable client event, dropping",
			slog.String("id", msg.ID), slog.Any("error", err))
		c.ack(ctx, msg.ID)
		return true
	}

	if err := c.handler(ctx, event); err != nil {
		// Not acknowledged: the entry stays pending and is redelivered.
		c.logger.Error("process client event",
			slog.String("id", msg.ID),
			slog.String("type", event.Type),
			slog.String("client_id", event.ClientID),
			slog.Any("error", err))
		return false
	}

	c.ack(ctx, msg.ID)
	c.logger.Info("client event processed",
		slog.String("type", event.Type), slog.String("client_id", event.ClientID))
	return true
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		c.logger.Warn("ack client event", slog.String("id", id), slog.Any("error", err))
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}
