package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps a session's seen ids in a Redis set so the session
// can be resumed by another process.
type RedisLedger struct {
	rdb *redis.Client
	key string
}

// NewRedisLedger connects to Redis and scopes the ledger to session.
func NewRedisLedger(ctx context.Context, addr, session string) (*RedisLedger, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisLedger{rdb: rdb, key: seenKey(session)}, nil
}

func seenKey(session string) string {
	return fmt.Sprintf("archfeed:seen:%s", session)
}

func (l *RedisLedger) Contains(ctx context.Context, pageID int) (bool, error) {
	return l.rdb.SIsMember(ctx, l.key, strconv.Itoa(pageID)).Result()
}

func (l *RedisLedger) Add(ctx context.Context, pageIDs ...int) error {
	if len(pageIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(pageIDs))
	for i, id := range pageIDs {
		members[i] = strconv.Itoa(id)
	}
	return l.rdb.SAdd(ctx, l.key, members...).Err()
}

func (l *RedisLedger) Reset(ctx context.Context) error {
	return l.rdb.Del(ctx, l.key).Err()
}

func (l *RedisLedger) Len(ctx context.Context) (int, error) {
	n, err := l.rdb.SCard(ctx, l.key).Result()
	return int(n), err
}

func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
