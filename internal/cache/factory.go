package cache

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// ProviderConfig is passed to every Provider. Fields that do not apply to a provider are ignored.
type ProviderConfig struct {
	// Size caps the memory provider. Redis relies on the server's maxmemory policy.
	Size int

	// TTL is the idle lifetime of an entry; reads restart it.
	TTL time.Duration

	OnEvict EvictCallback

	// Logger is optional
	Logger Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces keys in a shared Redis; empty means "moviematch:".
	KeyPrefix string

	// Group turns on metrics and becomes the "cache" label value.
	Group string
}

// Provider builds a Cache; providers register themselves from init.
type Provider func(cfg ProviderConfig) (Cache, error)

var registry = struct {
	sync.RWMutex
	byName map[string]Provider
}{byName: make(map[string]Provider)}

// Register makes a provider available to New. Registering a nil provider or the same name twice panics.
func Register(name string, p Provider) {
	if p == nil {
		panic("cache: nil provider for " + name)
	}

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.byName[name]; dup {
		panic(fmt.Sprintf("cache: provider %q registered twice", name))
	}
	registry.byName[name] = p
}

// New builds the cache provided by name. A non-empty cfg.Group wraps it in
// lookup/write counters and chains an eviction counter in front of cfg.OnEvict.
func New(name string, cfg ProviderConfig) (Cache, error) {
	registry.RLock()
	build, ok := registry.byName[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cache: no provider named %q, have %v", name, RegisteredProviders())
	}

	if cfg.Group == "" {
		return build(cfg)
	}

	evicted := EvictionsTotal.WithLabelValues(cfg.Group)
	next := cfg.OnEvict
	cfg.OnEvict = func(key string, value []byte) {
		evicted.Inc()
		if next != nil {
			next(key, value)
		}
	}

	inner, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return newInstrumentedCache(inner, cfg.Group), nil
}

// RegisteredProviders lists provider names in sorted order.
func RegisteredProviders() []string {
	registry.RLock()
	names := make([]string, 0, len(registry.byName))
	for name := range registry.byName {
		names = append(names, name)
	}
	registry.RUnlock()

	slices.Sort(names)
	return names
}
