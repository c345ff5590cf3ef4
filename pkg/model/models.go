package model

import (
	"sort"
	"strings"
)

// Models is an ordered name to value store built for a single request. It is
// not safe for concurrent use; a store belongs to the request that created it.
type Models struct {
	names  []string
	values map[string]any
}

// New returns an empty store, optionally seeded from the provided map. Seeded
// names are inserted in sorted order so snapshots stay deterministic.
func New(seed ...map[string]any) *Models {
	m := &Models{values: make(map[string]any)}
	for _, values := range seed {
		m.Merge(values)
	}
	return m
}

// Put stores value under name, replacing an existing entry in place. Blank
// names are ignored.
func (m *Models) Put(name string, value any) *Models {
	if m == nil {
		return m
	}
	key := strings.TrimSpace(name)
	if key == "" {
		return m
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.names = append(m.names, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under name.
func (m *Models) Get(name string) (any, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	value, ok := m.values[strings.TrimSpace(name)]
	return value, ok
}

// Has reports whether name has been stored.
func (m *Models) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Names returns the stored names in insertion order.
func (m *Models) Names() []string {
	if m == nil || len(m.names) == 0 {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Len returns the number of entries.
func (m *Models) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Merge copies every entry of values into the store. Map iteration order is
// not stable, so new names are appended in sorted order.
func (m *Models) Merge(values map[string]any) *Models {
	if m == nil || len(values) == 0 {
		return m
	}
	for _, name := range sortedKeys(values) {
		m.Put(name, values[name])
	}
	return m
}

// Clone returns an independent store with the same entries in the same
// order. A nil store clones to an empty one.
func (m *Models) Clone() *Models {
	out := New()
	if m == nil {
		return out
	}
	for _, name := range m.names {
		out.Put(name, m.values[name])
	}
	return out
}

// AsMap returns a copy of the store contents. The dispatcher uses it to take
// a complete snapshot before any engine runs.
func (m *Models) AsMap() map[string]any {
	if m == nil || len(m.values) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(m.values))
	for key, value := range m.values {
		out[key] = value
	}
	return out
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
