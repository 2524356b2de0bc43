package store

import (
	"context"
	"sync"
)

// MemoryLedger is an in-process set of page ids.
type MemoryLedger struct {
	mu   sync.RWMutex
	seen map[int]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[int]struct{})}
}

func (l *MemoryLedger) Contains(_ context.Context, pageID int) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[pageID]
	return ok, nil
}

func (l *MemoryLedger) Add(_ context.Context, pageIDs ...int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range pageIDs {
		l.seen[id] = struct{}{}
	}
	return nil
}

func (l *MemoryLedger) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = make(map[int]struct{})
	return nil
}

func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen), nil
}

func (l *MemoryLedger) Close() error { return nil }
