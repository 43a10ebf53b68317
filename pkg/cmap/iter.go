// Package cmap provides a concurrent-safe sharded map.
package cmap

// Range iterates over all key-value pairs. The callback returns false to stop.
//
// Locks are taken shard by shard, so fn must not call back into the map for
// a write. Use Values when the caller needs to mutate while iterating.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns a point-in-time copy of all values, one shard at a time.
// The returned slice is safe to iterate while the map is being mutated.
func (m *Map[V]) Values() []V {
	values := make([]V, 0, m.Count())
	m.Range(func(_ string, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}
