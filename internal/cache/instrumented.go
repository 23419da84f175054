package cache

// instrumentedCache counts lookups and writes of the embedded Cache under a group label
type instrumentedCache struct {
	Cache
	group string
}

func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	// Entries expire on their own, so the count is read from the backend when scraped
	trackEntries(group, inner.Len)
	return &instrumentedCache{Cache: inner, group: group}
}

func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.Cache.Get(key)
	result := "miss"
	if ok {
		result = "hit"
	}
	LookupsTotal.WithLabelValues(c.group, result).Inc()
	return val, ok
}

func (c *instrumentedCache) Set(key string, value []byte) {
	WritesTotal.WithLabelValues(c.group, "set").Inc()
	c.Cache.Set(key, value)
}

func (c *instrumentedCache) Delete(key string) {
	WritesTotal.WithLabelValues(c.group, "delete").Inc()
	c.Cache.Delete(key)
}

func (c *instrumentedCache) Close() error {
	untrackEntries(c.group)
	return c.Cache.Close()
}
