// Package blacklist tracks revoked or reused refresh-token identifiers.
// Presence of a jti means "reject this token outright regardless of signature
// validity"; entries are added on rotation retirement and on reuse detection,
// and expire when the underlying token would have.
package blacklist

import (
	"context"
	"sync"
	"time"
)

// Store is the injectable blacklist contract. The memory store serves tests
// and single-instance deployments; the redis store serves shared deployments.
type Store interface {
	// Add records jti as rejected until expiresAt.
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	// Has reports whether jti is currently blacklisted.
	Has(ctx context.Context, jti string) (bool, error)
	// Remove drops jti from the blacklist.
	Remove(ctx context.Context, jti string) error
	// Cleanup drops expired entries and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
	// Shutdown stops any background maintenance.
	Shutdown()
}

// MemoryStore is an in-memory Store with an optional janitor goroutine that
// sweeps expired entries.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]time.Time
	nowF func() time.Time

	janitorStop chan struct{}
	janitorDone chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore returns a new in-memory blacklist. If cleanupInterval > 0 a
// janitor goroutine sweeps expired entries on that interval until Shutdown.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		m:    make(map[string]time.Time),
		nowF: func() time.Time { return time.Now().UTC() },
	}
	if cleanupInterval > 0 {
		s.janitorStop = make(chan struct{})
		s.janitorDone = make(chan struct{})
		go s.janitor(cleanupInterval)
	}
	return s
}

// Add records jti as rejected until expiresAt.
func (s *MemoryStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[jti] = expiresAt
	return nil
}

// Has reports whether jti is blacklisted and not yet expired. Expired entries
// are dropped on read.
func (s *MemoryStore) Has(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.m[jti]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !exp.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, jti)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Remove drops jti from the blacklist.
func (s *MemoryStore) Remove(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, jti)
	return nil
}

// Cleanup drops all expired entries and returns how many were removed.
func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for jti, exp := range s.m {
		if !exp.After(now) {
			delete(s.m, jti)
			removed++
		}
	}
	return removed, nil
}

// Shutdown stops the janitor goroutine, if any. Safe to call more than once.
func (s *MemoryStore) Shutdown() {
	s.stopOnce.Do(func() {
		if s.janitorStop != nil {
			close(s.janitorStop)
			<-s.janitorDone
		}
	})
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.janitorDone)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_, _ = s.Cleanup(context.Background())
		case <-s.janitorStop:
			return
		}
	}
}
