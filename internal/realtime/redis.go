package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
)

// RedisBus fans events out through a Redis pub/sub channel so that every
// server instance can reach its own connected clients.
type RedisBus struct {
	log     *zap.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisBus(ctx context.Context, addr, channel string, log *zap.Logger) (*RedisBus, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if channel = strings.TrimSpace(channel); channel == "" {
		channel = "notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		log:     logger.OrNop(log).With(zap.String("component", "redis_bus"), zap.String("channel", channel)),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, onEvent func(Event)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// Wait for the subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis event payload", zap.Error(err))
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
