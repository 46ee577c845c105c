// Package pool provides an append-only interning store.
//
// A Pool assigns small integer identities to values. Structurally equal
// values (as decided by the pool's key function) always receive the same
// identity, and an identity is never reused or invalidated: the pool only
// grows. Callers that need to "shrink" a composite value intern a new value
// and drop the old id.
package pool

import "fmt"

// ID identifies an interned value. IDs are dense and start at zero.
type ID int

// Pool interns values of type T, using K as the equality key.
// The zero value is not usable; create pools with New.
type Pool[T any, K comparable] struct {
	values []T
	index  map[K]ID
	key    func(T) K
}

// New creates an empty pool. The key function must return equal keys for
// structurally equal values.
func New[T any, K comparable](key func(T) K) *Pool[T, K] {
	return &Pool[T, K]{
		index: make(map[K]ID),
		key:   key,
	}
}

// Intern returns the id for v, appending v if no equal value exists.
func (p *Pool[T, K]) Intern(v T) ID {
	k := p.key(v)
	if id, ok := p.index[k]; ok {
		return id
	}
	id := ID(len(p.values))
	p.values = append(p.values, v)
	p.index[k] = id
	return id
}

// Lookup returns the id for v without interning it.
func (p *Pool[T, K]) Lookup(v T) (ID, bool) {
	id, ok := p.index[p.key(v)]
	return id, ok
}

// Value returns the value for id. An id the pool never issued is a
// programming error and panics.
func (p *Pool[T, K]) Value(id ID) T {
	if !p.Valid(id) {
		panic(fmt.Sprintf("pool: id %d out of range [0,%d)", id, len(p.values)))
	}
	return p.values[id]
}

// Valid reports whether id was issued by this pool.
func (p *Pool[T, K]) Valid(id ID) bool {
	return id >= 0 && int(id) < len(p.values)
}

// Len returns the number of interned values.
func (p *Pool[T, K]) Len() int {
	return len(p.values)
}

// Values returns a copy of all values in id order.
func (p *Pool[T, K]) Values() []T {
	out := make([]T, len(p.values))
	copy(out, p.values)
	return out
}

// Restore replaces the pool contents with values, assigning ids in order.
// Duplicate values keep the id of their first occurrence in the index but
// still occupy their slot, so ids persisted alongside the values stay valid.
func (p *Pool[T, K]) Restore(values []T) {
	p.values = make([]T, len(values))
	copy(p.values, values)
	p.index = make(map[K]ID, len(values))
	for i, v := range p.values {
		k := p.key(v)
		if _, ok := p.index[k]; !ok {
			p.index[k] = ID(i)
		}
	}
}
