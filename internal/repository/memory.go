package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryEngagementStore is the in-process fallback used when redis is
// absent or unreachable.
type MemoryEngagementStore struct {
	mu         sync.Mutex
	viewers    map[string]map[string]struct{}
	rateLimits map[string]*rateLimitEntry
}

func NewMemoryEngagementStore() *MemoryEngagementStore {
	return &MemoryEngagementStore{
		viewers:    make(map[string]map[string]struct{}),
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

func (r *MemoryEngagementStore) TrackView(ctx context.Context, rfqID, workshopID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.viewers[rfqID]
	if !ok {
		set = make(map[string]struct{})
		r.viewers[rfqID] = set
	}
	set[workshopID] = struct{}{}
	return nil
}

func (r *MemoryEngagementStore) ViewCount(ctx context.Context, rfqID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.viewers[rfqID])), nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryEngagementStore) CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.rateLimits[actorID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
		r.rateLimits[actorID] = entry
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}
