package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Store is a string key/value medium. Get returns ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// NamespaceStats summarises the entries sharing a key namespace.
type NamespaceStats struct {
	Namespace   string
	Count       int
	LastUpdated time.Time
}

func (s *NamespaceStats) bump(t time.Time) {
	if t.After(s.LastUpdated) {
		s.LastUpdated = t
	}
}
