package share

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/redis/go-redis/v9"
)

// OutboxKey is the Redis list shared payloads are pushed to.
const OutboxKey = "archfeed:shared"

// RedisOutbox is a native share target: payloads are queued in Redis for
// another device or process to deliver.
type RedisOutbox struct {
	rdb *redis.Client
}

// NewRedisOutbox connects to Redis at addr.
func NewRedisOutbox(ctx context.Context, addr string) (*RedisOutbox, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisOutbox{rdb: rdb}, nil
}

func (o *RedisOutbox) Share(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return o.rdb.LPush(ctx, OutboxKey, data).Err()
}

func (o *RedisOutbox) Close() error {
	return o.rdb.Close()
}

// OSC52Clipboard sets the terminal clipboard with an OSC 52 escape sequence.
type OSC52Clipboard struct {
	out io.Writer
}

func NewOSC52Clipboard(out io.Writer) *OSC52Clipboard {
	return &OSC52Clipboard{out: out}
}

func (c *OSC52Clipboard) WriteText(_ context.Context, text string) error {
	_, err := osc52.New(text).WriteTo(c.out)
	return err
}
