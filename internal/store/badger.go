package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// BadgerLedger stores seen ids on local disk, one key per page id.
type BadgerLedger struct {
	db     *badger.DB
	prefix []byte
	owned  bool
}

// NewBadgerLedger opens the Badger directory at path.
// An empty path opens an in-memory database.
func NewBadgerLedger(path, session string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Silence default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	l := newBadgerLedger(db, session)
	l.owned = true
	return l, nil
}

func newBadgerLedger(db *badger.DB, session string) *BadgerLedger {
	return &BadgerLedger{db: db, prefix: []byte("seen:" + session + ":")}
}

func (l *BadgerLedger) key(pageID int) []byte {
	return append(append([]byte{}, l.prefix...), strconv.Itoa(pageID)...)
}

func (l *BadgerLedger) Contains(_ context.Context, pageID int) (bool, error) {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(l.key(pageID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *BadgerLedger) Add(_ context.Context, pageIDs ...int) error {
	return l.db.Update(func(txn *badger.Txn) error {
		for _, id := range pageIDs {
			if err := txn.Set(l.key(id), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset drops only this session's keys.
func (l *BadgerLedger) Reset(_ context.Context) error {
	return l.db.DropPrefix(l.prefix)
}

func (l *BadgerLedger) Len(_ context.Context) (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = l.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (l *BadgerLedger) Close() error {
	if l.owned && l.db != nil {
		return l.db.Close()
	}
	return nil
}
