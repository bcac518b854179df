// Package enum maps closed sets of wire strings to typed values and back.
//
// Lookup is exact and case-sensitive. Strings outside the set map to the zero value,
// which every enum in this module reserves for "not set". A server that adds a new
// value therefore never breaks an older client, and the unrecognized value maps back
// to "" so it is never re-serialized.
package enum

import (
	"fmt"
	"sort"
	"sync"
)

// Entry pairs a value with its wire name.
type Entry[T comparable] struct {
	Value T
	Name  string
}

// Mapper is an immutable bidirectional table. It is safe for concurrent use.
type Mapper[T comparable] struct {
	byName  map[string]T
	byValue map[T]string
	order   []Entry[T]
}

// NewMapper builds a table from entries. It panics on an empty name, a duplicate
// name or value, or an entry using the zero value, since tables are built once at
// package init from literals.
func NewMapper[T comparable](entries ...Entry[T]) *Mapper[T] {
	m := &Mapper[T]{
		byName:  make(map[string]T, len(entries)),
		byValue: make(map[T]string, len(entries)),
		order:   make([]Entry[T], 0, len(entries)),
	}
	var zero T
	for _, e := range entries {
		if e.Name == "" {
			panic(fmt.Sprintf("enum: empty name for %v", e.Value))
		}
		if e.Value == zero {
			panic(fmt.Sprintf("enum: %q uses the reserved not-set value", e.Name))
		}
		if _, dup := m.byName[e.Name]; dup {
			panic(fmt.Sprintf("enum: duplicate name %q", e.Name))
		}
		if _, dup := m.byValue[e.Value]; dup {
			panic(fmt.Sprintf("enum: duplicate value %v", e.Value))
		}
		m.byName[e.Name] = e.Value
		m.byValue[e.Value] = e.Name
		m.order = append(m.order, e)
	}
	return m
}

// Value returns the value for name, or the zero (not set) value.
func (m *Mapper[T]) Value(name string) T {
	return m.byName[name]
}

// Name returns the wire name for v, or "" for not-set and unknown values.
func (m *Mapper[T]) Name(v T) string {
	return m.byValue[v]
}

// Known reports whether v is a member of the set.
func (m *Mapper[T]) Known(v T) bool {
	_, ok := m.byValue[v]
	return ok
}

// Values returns the members in declaration order.
func (m *Mapper[T]) Values() []T {
	out := make([]T, len(m.order))
	for i, e := range m.order {
		out[i] = e.Value
	}
	return out
}

// Names returns the wire names in declaration order.
func (m *Mapper[T]) Names() []string {
	out := make([]string, len(m.order))
	for i, e := range m.order {
		out[i] = e.Name
	}
	return out
}

// Len returns the number of members.
func (m *Mapper[T]) Len() int { return len(m.order) }

// MarshalText returns the wire form of v for encoding.TextMarshaler implementations.
func (m *Mapper[T]) MarshalText(v T) ([]byte, error) {
	return []byte(m.Name(v)), nil
}

// UnmarshalText decodes the wire form into *v. It never fails.
func (m *Mapper[T]) UnmarshalText(text []byte, v *T) error {
	*v = m.Value(string(text))
	return nil
}

// Table describes one registered enum for listing.
type Table struct {
	Type  string
	Names []string
}

var (
	registryMu sync.RWMutex
	registry   = map[string][]string{}
)

// Register records the names of an enum under a type name so tools can list them.
// It returns m to allow use in package-level var declarations.
func Register[T comparable](typeName string, m *Mapper[T]) *Mapper[T] {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = m.Names()
	return m
}

// Registered returns every registered enum, sorted by type name.
func Registered() []Table {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Table, 0, len(registry))
	for name, names := range registry {
		out = append(out, Table{Type: name, Names: append([]string(nil), names...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
