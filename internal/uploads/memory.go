package uploads

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/collectionmap/pkg/constants"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// MemoryStore keeps uploads in process. Its go-cache janitor is the reaper.
type MemoryStore struct {
	cache     *gocache.Cache
	retention time.Duration
	consumed  sync.Map // ids removed by Delete, so eviction is not reported as expiry
	onExpired atomic.Pointer[ExpiredFunc]
	closeOnce sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithExpiredFunc registers a callback for reaped uploads.
func WithExpiredFunc(fn ExpiredFunc) MemoryOption {
	return func(s *MemoryStore) {
		s.SetExpiredFunc(fn)
	}
}

// NewMemoryStore creates a store that keeps uploads for retention and sweeps
// expired ones every reapInterval.
func NewMemoryStore(retention, reapInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	if retention <= 0 {
		retention = constants.DefaultUploadRetention
	}
	if reapInterval <= 0 {
		reapInterval = constants.DefaultReapInterval
	}

	s := &MemoryStore{
		cache:     gocache.New(retention, reapInterval),
		retention: retention,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache.OnEvicted(s.evicted)
	return s
}

func (s *MemoryStore) evicted(id string, value any) {
	if _, wasDeleted := s.consumed.LoadAndDelete(id); wasDeleted {
		return
	}
	fn := s.onExpired.Load()
	if fn == nil || *fn == nil {
		return
	}
	if u, ok := value.(*Upload); ok {
		(*fn)(u)
	}
}

// SetExpiredFunc replaces the callback for reaped uploads. Safe to call while
// the janitor is running.
func (s *MemoryStore) SetExpiredFunc(fn ExpiredFunc) {
	s.onExpired.Store(&fn)
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, u *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored := stamp(u, time.Now(), s.retention)
	if err := s.cache.Add(stored.ID, stored, s.retention); err != nil {
		return "", pkgerrors.NewConflictError("upload", stored.ID, err)
	}
	return stored.ID, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Upload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := s.cache.Get(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("upload", id)
	}
	return value.(*Upload), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.cache.Get(id); !ok {
		return pkgerrors.NewNotFoundError("upload", id)
	}
	s.consumed.Store(id, struct{}{})
	s.cache.Delete(id)
	return nil
}

// Len implements Store. Expired uploads the janitor has not swept yet are not counted.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	return len(s.cache.Items()), nil
}

// Reap removes expired uploads now instead of waiting for the janitor.
func (s *MemoryStore) Reap() {
	s.cache.DeleteExpired()
}

// Close implements Store. The janitor goroutine stops when the cache is
// garbage collected, so Close only flushes remaining uploads without
// reporting them as expired.
func (s *MemoryStore) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		s.cache.OnEvicted(nil)
		s.cache.Flush()
	})
	return nil
}
