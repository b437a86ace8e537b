// Package store caches fetched resources by key and fences responses with
// monotonic request ids, so a slow response can never overwrite the result
// of a request issued after it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrStale reports a response discarded because a newer request for the
// same key was issued, or the key was invalidated, while it was in flight.
var ErrStale = errors.New("stale response discarded")

// Key names a cached resource.
type Key string

const Plans Key = "plans"

// Items prefixes every item key; a version status change stales them all.
const Items Key = "item/"

func Plan(id int64) Key { return Key(fmt.Sprintf("plan/%d", id)) }
func Item(id int64) Key { return Key(fmt.Sprintf("item/%d", id)) }
func Executions(itemID int64) Key { return Key(fmt.Sprintf("executions/item/%d", itemID)) }
func Catalog(kind string) Key { return Key("catalog/" + kind) }
func (k Key) HasPrefix(p Key) bool { return strings.HasPrefix(string(k), string(p)) }

// Ticket identifies one request for a key.
type Ticket struct {
	Key Key
	ID  uint64
}

// Snapshot is a committed value and the request id that produced it.
type Snapshot[T any] struct {
	Value    T
	Revision uint64
}

type entry struct {
	value    any
	revision uint64
	valid    bool
	latest   uint64
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	next    uint64
	entries map[Key]*entry
}

func New() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

func (s *Store) entry(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// Begin issues a request id for key and records it as the latest.
func (s *Store) Begin(key Key) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.entry(key).latest = s.next
	return Ticket{Key: key, ID: s.next}
}

// Commit stores value when t is still the latest request for its key.
func (s *Store) Commit(t Ticket, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(t.Key)
	if e.latest != t.ID {
		return fmt.Errorf("%s request %d: %w", t.Key, t.ID, ErrStale)
	}
	e.value = value
	e.revision = t.ID
	e.valid = true
	return nil
}

// IsLatest reports whether t is still the newest request for its key.
func (s *Store) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(t.Key).latest == t.ID
}

// Lookup returns the cached value for key when it is valid.
func (s *Store) Lookup(key Key) (any, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.valid {
		return nil, 0, false
	}
	return e.value, e.revision, true
}

// Revision returns the revision of the last commit for key, valid or not.
func (s *Store) Revision(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.revision
	}
	return 0
}

// Invalidate marks keys stale and fences off their in-flight requests.
func (s *Store) Invalidate(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.invalidate(s.entry(k))
	}
}

// InvalidatePrefix invalidates every known key starting with prefix.
func (s *Store) InvalidatePrefix(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if k.HasPrefix(prefix) {
			s.invalidate(e)
		}
	}
}

// InvalidateAll drops every cached value.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		s.invalidate(e)
	}
}

func (s *Store) invalidate(e *entry) {
	s.next++
	e.valid = false
	e.latest = s.next
}

// Fetch serves a valid cached snapshot of key or loads and commits a fresh
// one. A load that loses the race to a newer request returns ErrStale.
func Fetch[T any](ctx context.Context, s *Store, key Key, load func(context.Context) (T, error)) (Snapshot[T], error) {
	if v, rev, ok := s.Lookup(key); ok {
		if typed, ok := v.(T); ok {
			return Snapshot[T]{Value: typed, Revision: rev}, nil
		}
	}
	return Reload(ctx, s, key, load)
}

// Reload loads key regardless of the cache.
func Reload[T any](ctx context.Context, s *Store, key Key, load func(context.Context) (T, error)) (Snapshot[T], error) {
	t := s.Begin(key)
	v, err := load(ctx)
	if err != nil {
		var zero Snapshot[T]
		return zero, err
	}
	if err := s.Commit(t, v); err != nil {
		var zero Snapshot[T]
		return zero, err
	}
	return Snapshot[T]{Value: v, Revision: t.ID}, nil
}
