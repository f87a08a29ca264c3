// Package bus fans SSE messages out across instances through Redis pub/sub.
// With a single instance (or no REDIS_ADDR configured) the in-process hub is
// used directly and this package stays out of the path.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/sse"
)

type RedisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	hub     *sse.SSEHub
	channel string
}

func NewRedisBus(log *logger.Logger, hub *sse.SSEHub) (*RedisBus, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if channel == "" {
		channel = "events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		log:     log.With("component", "RedisBus"),
		rdb:     rdb,
		hub:     hub,
		channel: channel,
	}, nil
}

// Publish sends the message through Redis; every instance, including this
// one, receives it in Run and forwards it to its local hub.
func (b *RedisBus) Publish(msg sse.SSEMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("Failed to marshal SSE message", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn("Redis publish failed, delivering locally only", "error", err)
		b.hub.Publish(msg)
	}
}

// Run subscribes and pumps messages into the local hub until ctx ends.
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var msg sse.SSEMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.log.Warn("Dropping malformed bus message", "error", err)
				continue
			}
			b.hub.Publish(msg)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
