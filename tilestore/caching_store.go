package tilestore

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// CachingStore wraps a Store and caches tiles read through Get in an LRU
// bounded by total bytes. Writes and deletes go to the inner store and
// invalidate the cached entry once the inner write has landed.
type CachingStore struct {
	inner Store

	mu sync.Mutex
	// epoch counts invalidations. A miss only caches what it read if no
	// write finished while it was reading.
	epoch     uint64
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name  string
	value []byte
}

// NewCachingStore creates a new CachingStore.
// capacity defaults to 64MB if <= 0.
func NewCachingStore(inner Store, capacity int64) *CachingStore {
	if capacity <= 0 {
		capacity = 64 << 20
	}
	return &CachingStore{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached tile or reads it from the inner store.
// Returned slices are shared with the cache and must be treated as read-only.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.lookup(name); ok {
		s.hits.Add(1)
		return data, nil
	}
	s.misses.Add(1)

	epoch := s.currentEpoch()
	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.add(name, data, epoch)
	return data, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	defer s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Create opens a streaming write. The cached entry is dropped again when
// the returned blob is closed or aborted.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{WritableBlob: w, store: s, name: name}, nil
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	defer s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

type cachingBlob struct {
	WritableBlob
	store *CachingStore
	name  string
}

func (b *cachingBlob) Close() error {
	defer b.store.invalidate(b.name)
	return b.WritableBlob.Close()
}

func (b *cachingBlob) Abort() error {
	defer b.store.invalidate(b.name)
	return b.WritableBlob.Abort()
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
	Bytes   int64
}

// Stats returns a snapshot of the cache counters.
func (s *CachingStore) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CacheStats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: len(s.items),
		Bytes:   s.size,
	}
}

func (s *CachingStore) lookup(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items[name]
	if !ok {
		return nil, false
	}
	s.evictList.MoveToFront(ent)
	return ent.Value.(*cacheEntry).value, true
}

func (s *CachingStore) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// add caches data read at epoch, unless a write was invalidated since.
func (s *CachingStore) add(name string, data []byte, epoch uint64) {
	n := int64(len(data))
	if n > s.capacity {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return
	}

	if ent, ok := s.items[name]; ok {
		s.size -= int64(len(ent.Value.(*cacheEntry).value))
		ent.Value.(*cacheEntry).value = data
		s.size += n
		s.evictList.MoveToFront(ent)
	} else {
		s.items[name] = s.evictList.PushFront(&cacheEntry{name: name, value: data})
		s.size += n
	}

	for s.size > s.capacity {
		oldest := s.evictList.Back()
		if oldest == nil {
			break
		}
		s.removeElement(oldest)
	}
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}
}

func (s *CachingStore) removeElement(ent *list.Element) {
	s.evictList.Remove(ent)
	e := ent.Value.(*cacheEntry)
	delete(s.items, e.name)
	s.size -= int64(len(e.value))
}
