// Package ordered provides a map that remembers the order in which keys were
// last written.
package ordered

// node is an entry in the doubly linked recency list.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// Map associates keys with values and keeps keys ordered by last write:
// the least recently written key is first, the most recent is last.
// Upsert on an existing key relocates it to the end. All operations are
// O(1) except Keys, which is O(n).
//
// Map is not safe for concurrent use.
type Map[K comparable, V any] struct {
	index map[K]*node[K, V]
	head  *node[K, V] // least recently written
	tail  *node[K, V] // most recently written
}

// New creates an empty Map with room for sizeHint keys.
func New[K comparable, V any](sizeHint int) *Map[K, V] {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Map[K, V]{index: make(map[K]*node[K, V], sizeHint)}
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int { return len(m.index) }

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if n, ok := m.index[key]; ok {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key and moves key to the end.
func (m *Map[K, V]) Set(key K, value V) {
	m.Upsert(key, func(V, bool) V { return value })
}

// Upsert computes the new value for key from the current one (zero value
// and false if absent), stores it, and moves key to the end.
func (m *Map[K, V]) Upsert(key K, fn func(current V, exists bool) V) {
	if n, ok := m.index[key]; ok {
		n.value = fn(n.value, true)
		m.moveToBack(n)
		return
	}
	var zero V
	n := &node[K, V]{key: key, value: fn(zero, false)}
	m.index[key] = n
	m.pushBack(n)
}

// Delete removes key. It reports whether the key was present.
func (m *Map[K, V]) Delete(key K) bool {
	n, ok := m.index[key]
	if !ok {
		return false
	}
	m.unlink(n)
	delete(m.index, key)
	return true
}

// Keys returns keys from least to most recently written.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m.index))
	for n := m.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for n := m.head; n != nil; n = n.next {
		if !fn(n.key, n.value) {
			return
		}
	}
}

func (m *Map[K, V]) pushBack(n *node[K, V]) {
	n.prev = m.tail
	n.next = nil
	if m.tail != nil {
		m.tail.next = n
	} else {
		m.head = n
	}
	m.tail = n
}

func (m *Map[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (m *Map[K, V]) moveToBack(n *node[K, V]) {
	if m.tail == n {
		return
	}
	m.unlink(n)
	m.pushBack(n)
}
