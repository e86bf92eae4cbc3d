package cache

import (
	"context"
	"sync"
	"time"

	"kioskpos/internal/domain"
)

// Snapshot is one fetch of the upstream catalog.
type Snapshot struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

// Store holds at most one catalog snapshot. A miss is (zero, false, nil).
type Store interface {
	Get(ctx context.Context) (Snapshot, bool, error)
	Set(ctx context.Context, s Snapshot) error
	Invalidate(ctx context.Context) error
}

// Memory is the in-process store used when no redis is configured.
type Memory struct {
	TTL time.Duration
	Now func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{TTL: ttl, Now: time.Now}
}

func (m *Memory) Get(_ context.Context) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return Snapshot{}, false, nil
	}
	if m.TTL > 0 && m.now().Sub(m.snap.FetchedAt) >= m.TTL {
		return Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *Memory) Set(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.FetchedAt.IsZero() {
		s.FetchedAt = m.now()
	}
	m.snap = &s
	return nil
}

// Invalidate drops the snapshot; call it after any catalog mutation.
func (m *Memory) Invalidate(_ context.Context) error {
	m.mu.Lock()
	m.snap = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
