package database

import (
	"context"
	"sync"
)

// Snapshotter is a store that can capture its state. Calling the returned
// function puts the captured state back.
type Snapshotter interface {
	Snapshot() (restore func())
}

type memoryTxKey struct{}

// MemoryTransactor gives the in-memory repositories all-or-nothing
// commands. Transactions run one at a time; when fn fails or panics every
// registered store is restored to its state before the transaction.
// Writes made outside a transaction while one is running are lost if it
// rolls back.
type MemoryTransactor struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewMemoryTransactor(stores ...Snapshotter) *MemoryTransactor {
	return &MemoryTransactor{stores: stores}
}

func (t *MemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if owner, ok := ctx.Value(memoryTxKey{}).(*MemoryTransactor); ok && owner == t {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.Snapshot())
	}
	rollback := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, memoryTxKey{}, t)); err != nil {
		rollback()
	}
	return err
}
