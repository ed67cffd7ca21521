package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// MemoryTabLocker serializes tab mutations within a single process. Used
// in development and tests where Redis is not available.
type MemoryTabLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryTabLocker creates an in-process tab locker
func NewMemoryTabLocker() *MemoryTabLocker {
	return &MemoryTabLocker{held: make(map[string]struct{})}
}

// Acquire takes the per-tab lock or fails fast when it is already held
func (l *MemoryTabLocker) Acquire(ctx context.Context, tenantID, tabID uuid.UUID) (func(), error) {
	key := tenantID.String() + ":" + tabID.String()

	l.mu.Lock()
	if _, taken := l.held[key]; taken {
		l.mu.Unlock()
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "Tab is being modified by another operation")
	}
	l.held[key] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, nil
}
