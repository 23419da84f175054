package cache

// EvictCallback is called when the memory provider drops an entry.
// Redis expires keys server-side and never calls it.
type EvictCallback func(key string, value []byte)

// Logger receives errors from providers that talk to an external backend
type Logger interface {
	Error(msg string, err error)
}

// Cache is a TTL-bounded key-value store used to keep session state between API calls.
// Implementations may live in process memory or in Redis/Valkey so several API replicas can share sessions.
type Cache interface {
	// Get returns the value and true if found, or nil and false if not.
	Get(key string) ([]byte, bool)

	// Set stores a value, replacing any previous value and restarting its TTL.
	Set(key string, value []byte)

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)

	Contains(key string) bool

	// Len returns the number of live entries.
	Len() int

	// Close releases network connections. A no-op for in-memory caches.
	Close() error
}
