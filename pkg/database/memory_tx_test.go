package database

import (
	"context"
	"errors"
	"testing"
)

type counterStore struct {
	n int
}

func (s *counterStore) Snapshot() func() {
	saved := s.n
	return func() { s.n = saved }
}

func TestMemoryTransactorRollsBack(t *testing.T) {
	store := &counterStore{n: 1}
	tx := NewMemoryTransactor(store)
	boom := errors.New("boom")

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		store.n = 2
		return tx.WithinTx(ctx, func(context.Context) error {
			store.n = 3
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if store.n != 1 {
		t.Errorf("n = %d after rollback, want 1", store.n)
	}

	if err := tx.WithinTx(context.Background(), func(context.Context) error {
		store.n = 5
		return nil
	}); err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if store.n != 5 {
		t.Errorf("n = %d after commit, want 5", store.n)
	}
}

func TestMemoryTransactorRollsBackOnPanic(t *testing.T) {
	store := &counterStore{n: 1}
	tx := NewMemoryTransactor(store)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic was swallowed")
			}
		}()
		_ = tx.WithinTx(context.Background(), func(context.Context) error {
			store.n = 9
			panic("boom")
		})
	}()
	if store.n != 1 {
		t.Errorf("n = %d after panic, want 1", store.n)
	}
}
