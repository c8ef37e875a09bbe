package cmd

import (
	"context"
	"sync"

	"github.com/bindicator/bindicator/internal/utils"
	"github.com/bindicator/bindicator/pkg/storage"
)

// lockedStore takes the database lock around each write only, so reading
// commands and long fetches never hold it.
type lockedStore struct {
	storage.Store
	lock *utils.DBLock
	mu   sync.Mutex
}

func newLockedStore(inner storage.Store, lock *utils.DBLock) *lockedStore {
	return &lockedStore{Store: inner, lock: lock}
}

func (s *lockedStore) Put(ctx context.Context, key, value string) error {
	return s.withLock(func() error { return s.Store.Put(ctx, key, value) })
}

func (s *lockedStore) Delete(ctx context.Context, key string) error {
	return s.withLock(func() error { return s.Store.Delete(ctx, key) })
}

func (s *lockedStore) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			utils.Log.Warn(err)
		}
	}()
	return fn()
}
