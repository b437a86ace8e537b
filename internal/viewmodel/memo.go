// Package viewmodel holds the pure projections behind every screen:
// derived metrics, the item form state machine, execution entry checks,
// and the item table and dashboard list models. Nothing here performs I/O.
package viewmodel

// Memo caches the result of one computation keyed by a comparable
// snapshot. The value is recomputed only when the key changes by ==.
type Memo[K comparable, V any] struct {
	key      K
	val      V
	ok       bool
	computes int
}

// Get returns the cached value for key, computing it when key differs from
// the previous call.
func (m *Memo[K, V]) Get(key K, compute func() V) V {
	if m.ok && m.key == key {
		return m.val
	}
	m.key = key
	m.val = compute()
	m.ok = true
	m.computes++
	return m.val
}

// Reset drops the cached value.
func (m *Memo[K, V]) Reset() {
	var zeroK K
	var zeroV V
	m.key, m.val, m.ok = zeroK, zeroV, false
}
