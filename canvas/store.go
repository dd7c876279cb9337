// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces element identifiers.
type IDGenerator func() string

// UUIDv7 is the default generator: time-sortable RFC 9562 identifiers.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store is the authoritative ordered collection of elements.
//
// Store is safe for concurrent use. Every mutation is atomic with respect
// to Snapshot, so a snapshot sees either the state before or after a
// ReplaceAll, never a mix.
type Store struct {
	mu    sync.RWMutex
	elems []Element
	newID IDGenerator
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator overrides the identifier strategy.
func WithIDGenerator(gen IDGenerator) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{newID: UUIDv7}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends partial to the store. The ID is always assigned by the
// store and Z is set to the element count plus one, so stacking follows
// insertion order. Caller-supplied fields are trusted as is.
func (s *Store) Add(partial Element) Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := partial
	e.ID = s.uniqueIDLocked()
	e.Z = len(s.elems) + 1
	s.elems = append(s.elems, e)
	return e
}

// uniqueIDLocked draws IDs until one is unused. With the default UUIDv7
// generator the loop body runs once.
func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if s.indexLocked(id) < 0 {
			return id
		}
	}
}

// Update applies p to the element with the given id. Unknown ids are
// ignored: an edit racing a ReplaceAll is not an error.
func (s *Store) Update(id string, p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	p.apply(&s.elems[i])
}

// ReplaceAll swaps the whole collection. IDs and Z values are kept
// exactly as supplied; elems is copied, so the caller may reuse it.
func (s *Store) ReplaceAll(elems []Element) {
	next := slices.Clone(elems)

	s.mu.Lock()
	s.elems = next
	s.mu.Unlock()
}

// Get returns the element with the given id.
func (s *Store) Get(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Element{}, false
	}
	return s.elems[i], true
}

// Snapshot returns a copy of the elements in stored order. The copy does
// not alias internal state; later mutations are not observed through it.
func (s *Store) Snapshot() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.elems)
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elems)
}

// HitTest returns the topmost element containing p.
func (s *Store) HitTest(p Point) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return HitTest(s.elems, p)
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.elems, func(e Element) bool { return e.ID == id })
}

// HitTest returns the topmost element of elems whose rectangle contains p.
// The highest Z wins; among equal Z the element stored later wins, since
// it is painted later.
func HitTest(elems []Element, p Point) (Element, bool) {
	best := -1
	for i, e := range elems {
		if !e.Contains(p) {
			continue
		}
		if best < 0 || e.Z >= elems[best].Z {
			best = i
		}
	}
	if best < 0 {
		return Element{}, false
	}
	return elems[best], true
}
