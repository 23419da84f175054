package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache keeps sessions in a size-bounded expirable LRU visible to one process only.
// A hit restarts the entry's TTL, matching the redis provider's GETEX behaviour.
type memoryCache struct {
	// mu makes the read-then-refresh in Get atomic with respect to Delete
	mu    sync.Mutex
	inner *lru.LRU[string, []byte]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	var onEvict func(string, []byte)
	if cfg.OnEvict != nil {
		onEvict = func(key string, value []byte) { cfg.OnEvict(key, value) }
	}
	return &memoryCache{
		inner: lru.NewLRU[string, []byte](cfg.Size, onEvict, cfg.TTL),
	}, nil
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.inner.Get(key)
	if ok {
		m.inner.Add(key, val)
	}
	return val, ok
}

func (m *memoryCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inner.Add(key, value)
}

func (m *memoryCache) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inner.Remove(key)
}

func (m *memoryCache) Contains(key string) bool {
	return m.inner.Contains(key)
}

func (m *memoryCache) Len() int {
	return m.inner.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
