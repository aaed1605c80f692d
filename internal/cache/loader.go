package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc loads or reloads a store
type LoadFunc func(ctx context.Context) error

// Loader owns the lifecycle of one store load. Concurrent calls collapse into a
// single load, and a successful load stays fresh for the configured TTL.
type Loader struct {
	name  string
	load  LoadFunc
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time

	mu       sync.RWMutex
	loadedAt time.Time
	lastErr  error
}

// NewLoader creates a loader. A ttl of zero keeps a successful load fresh until invalidated.
func NewLoader(name string, ttl time.Duration, load LoadFunc) *Loader {
	return &Loader{
		name: name,
		load: load,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Name returns the loader name
func (l *Loader) Name() string {
	return l.name
}

// Load runs the load unconditionally, sharing it with concurrent callers
func (l *Loader) Load(ctx context.Context) error {
	_, err, _ := l.group.Do(l.name, func() (interface{}, error) {
		err := l.load(ctx)

		l.mu.Lock()
		defer l.mu.Unlock()
		l.lastErr = err
		if err != nil {
			l.loadedAt = time.Time{}
			return nil, err
		}
		l.loadedAt = l.now()
		return nil, nil
	})
	return err
}

// Ensure loads only when nothing is loaded or the last load has expired
func (l *Loader) Ensure(ctx context.Context) error {
	if l.Fresh() {
		return nil
	}
	return l.Load(ctx)
}

// Fresh reports whether the last successful load is still within its TTL
func (l *Loader) Fresh() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.loadedAt.IsZero() {
		return false
	}
	return l.ttl <= 0 || l.now().Sub(l.loadedAt) < l.ttl
}

// Invalidate marks the load stale so the next Ensure reloads
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadedAt = time.Time{}
}

// LoadedAt returns the time of the last successful load
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

// LastError returns the error of the most recent load, if any
func (l *Loader) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}
