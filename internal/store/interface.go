package store

import (
	"context"
	"errors"
)

var (
	ErrUnknownBackend = errors.New("unknown ledger backend")
)

// Ledger records the page ids a feed session has already shown.
// A ledger belongs to exactly one session.
type Ledger interface {
	Contains(ctx context.Context, pageID int) (bool, error)
	Add(ctx context.Context, pageIDs ...int) error
	Reset(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Close() error
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Options selects and configures a ledger backend.
type Options struct {
	Backend    string
	Session    string
	RedisAddr  string
	BadgerPath string
}

// Open builds the ledger named by opts.Backend.
func Open(ctx context.Context, opts Options) (Ledger, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryLedger(), nil
	case BackendRedis:
		return NewRedisLedger(ctx, opts.RedisAddr, opts.Session)
	case BackendBadger:
		return NewBadgerLedger(opts.BadgerPath, opts.Session)
	default:
		return nil, ErrUnknownBackend
	}
}
