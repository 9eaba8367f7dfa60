package ds

// BucketMap assigns sets of unique values to keys. A value may live in many
// buckets at once and can be removed from all of them in one call.
//
// A BucketMap is not safe for concurrent use.
type BucketMap[K comparable, V comparable] struct {
	buckets map[K]*Set[V]
	keys    []K
}

// NewBucketMap creates an empty BucketMap.
func NewBucketMap[K comparable, V comparable]() *BucketMap[K, V] {
	return &BucketMap[K, V]{buckets: make(map[K]*Set[V])}
}

// Add adds v to the bucket for k, creating the bucket if needed.
// Adding the same value twice is a no-op. (mutates)
func (m *BucketMap[K, V]) Add(k K, v V) {
	b, ok := m.buckets[k]
	if !ok {
		b = NewSet[V]()
		m.buckets[k] = b
		m.keys = append(m.keys, k)
	}
	b.Add(v)
}

// Delete removes v from every bucket and reports whether any bucket was
// affected. Emptied buckets are kept. (mutates)
func (m *BucketMap[K, V]) Delete(v V) bool {
	affected := false
	for _, b := range m.buckets {
		if b.Remove(v) {
			affected = true
		}
	}
	return affected
}

// Get returns the bucket for k. The returned set is owned by the map.
func (m *BucketMap[K, V]) Get(k K) (*Set[V], bool) {
	b, ok := m.buckets[k]
	return b, ok
}

// Has reports whether a bucket for k exists.
func (m *BucketMap[K, V]) Has(k K) bool {
	_, ok := m.buckets[k]
	return ok
}

// Keys returns all bucket keys in creation order.
func (m *BucketMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of buckets.
func (m *BucketMap[K, V]) Len() int { return len(m.keys) }

// Values returns the deduplicated union of the buckets for keys, in
// first-seen order. Without keys it returns the union of all buckets.
// Missing keys contribute nothing.
func (m *BucketMap[K, V]) Values(keys ...K) []V {
	if len(keys) == 0 {
		keys = m.keys
	}
	union := NewSet[V]()
	for _, k := range keys {
		if b, ok := m.buckets[k]; ok {
			union.Merge(b)
		}
	}
	return union.order
}
