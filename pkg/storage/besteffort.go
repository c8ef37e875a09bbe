package storage

import (
	"context"
	"errors"
	"time"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

const opTimeout = 2 * time.Second

// BestEffort wraps a Store so that no operation ever fails. Callers cannot
// tell "absent" from "failed"; losing local state degrades to asking again.
type BestEffort struct {
	store Store
	log   Logger
}

func NewBestEffort(store Store, log Logger) *BestEffort {
	if log == nil {
		log = nopLogger{}
	}
	return &BestEffort{store: store, log: log}
}

func (b *BestEffort) Read(key string) (string, bool) {
	if b == nil || b.store == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	v, err := b.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.log.Debugf("storage: read %s: %v", key, err)
		}
		return "", false
	}
	return v, true
}

func (b *BestEffort) Write(key, value string) {
	if b == nil || b.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := b.store.Put(ctx, key, value); err != nil {
		b.log.Debugf("storage: write %s: %v", key, err)
	}
}

func (b *BestEffort) Clear(key string) {
	if b == nil || b.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := b.store.Delete(ctx, key); err != nil {
		b.log.Debugf("storage: clear %s: %v", key, err)
	}
}

// Keys lists keys under prefix; failures yield an empty list.
func (b *BestEffort) Keys(prefix string) []string {
	if b == nil || b.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	keys, err := b.store.Keys(ctx, prefix)
	if err != nil {
		b.log.Debugf("storage: keys %s: %v", prefix, err)
		return nil
	}
	return keys
}
