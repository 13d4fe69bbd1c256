package service

import (
	"context"
	"slices"
	"sync"
)

// dayLocks serialises operations per key. A waiter holds a reference so the
// entry is only dropped once nobody needs it.
type dayLocks struct {
	mu      sync.Mutex
	entries map[string]*dayLock
}

type dayLock struct {
	ch   chan struct{}
	refs int
}

func newDayLocks() *dayLocks {
	return &dayLocks{entries: make(map[string]*dayLock)}
}

// lock acquires every key in sorted order, so two callers locking the same
// pair of days cannot deadlock. The returned func releases all of them.
func (l *dayLocks) lock(ctx context.Context, keys ...string) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			release()
			return nil, err
		}
		held = append(held, k)
	}
	return release, nil
}

func (l *dayLocks) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &dayLock{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.drop(key, e)
		return ctx.Err()
	}
}

func (l *dayLocks) unlock(key string) {
	l.mu.Lock()
	e := l.entries[key]
	l.mu.Unlock()
	<-e.ch
	l.drop(key, e)
}

func (l *dayLocks) drop(key string, e *dayLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *dayLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
