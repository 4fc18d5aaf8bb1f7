package usage

import "sort"

// NameSet is an insertion-ordered set of identifiers.
type NameSet struct {
	order []string
	index map[string]struct{}
}

func NewNameSet() *NameSet {
	return &NameSet{index: make(map[string]struct{})}
}

// Add inserts name and reports whether it was new.
func (s *NameSet) Add(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *NameSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *NameSet) Len() int {
	return len(s.order)
}

func (s *NameSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *NameSet) Sorted() []string {
	out := s.Values()
	sort.Strings(out)
	return out
}

// OrderedMap keeps string keys in first-insertion order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. An existing key keeps its original position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetIfAbsent stores value only when key is new and reports whether it did.
func (m *OrderedMap[V]) SetIfAbsent(key string, value V) bool {
	if _, ok := m.values[key]; ok {
		return false
	}
	m.keys = append(m.keys, key)
	m.values[key] = value
	return true
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Each visits entries in insertion order.
func (m *OrderedMap[V]) Each(fn func(key string, value V)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}
