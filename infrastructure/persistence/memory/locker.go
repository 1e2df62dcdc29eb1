package memory

import (
	"context"
	"sync"
	"time"

	"ponydocs/application/ports"
)

// KeyedLocker is an in-process per-key mutex. Entries are reference
// counted and dropped when the last holder releases.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates a keyed locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

// Acquire blocks until key is free or ctx is done. ttl is ignored in process.
func (l *KeyedLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return &keyedLock{locker: l, key: key, entry: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) unref(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

type keyedLock struct {
	locker *KeyedLocker
	key    string
	entry  *keyedEntry
	once   sync.Once
}

// Release frees the key; repeated calls are no-ops
func (k *keyedLock) Release(ctx context.Context) error {
	k.once.Do(func() {
		<-k.entry.ch
		k.locker.unref(k.key, k.entry)
	})
	return nil
}
