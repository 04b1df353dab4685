// Package store keeps the canonical in-memory event collection. Nothing
// is persisted: a restart goes back to whatever the static source holds.
package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"monthcal/internal/model"
)

// ErrNotFound is returned when no event carries the requested ID.
var ErrNotFound = errors.New("event not found")

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	events  []model.Event
	version uint64

	// newID is swapped out in tests.
	newID func() string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		events: []model.Event{},
		newID:  func() string { return uuid.NewString() },
	}
}

// Replace swaps the whole collection, e.g. after the source file changed.
func (s *Store) Replace(events []model.Event) {
	cp := append([]model.Event(nil), events...)
	for i := range cp {
		if cp[i].Color == "" {
			cp[i].Color = model.DefaultColor
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = cp
	s.version++
}

// List returns a copy of every event in insertion order.
func (s *Store) List() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event(nil), s.events...)
}

// Snapshot returns a copy of the events together with the version they
// belong to, read under one lock.
func (s *Store) Snapshot() ([]model.Event, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event(nil), s.events...), s.version
}

// Get returns the first event with the given ID.
func (s *Store) Get(id string) mo.Option[model.Event] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return mo.Some(ev)
		}
	}
	return mo.None[model.Event]()
}

// Add appends a new, not yet completed event and returns it with its
// generated ID. The title is trimmed; an empty color gets the default.
func (s *Store) Add(in model.NewEvent) model.Event {
	ev := model.Event{
		Title:     strings.TrimSpace(in.Title),
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Color:     in.Color,
		Completed: false,
	}
	if ev.Color == "" {
		ev.Color = model.DefaultColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.newID()
	s.events = append(s.events, ev)
	s.version++
	return ev
}

// ToggleCompleted flips Completed on every event with the given ID.
func (s *Store) ToggleCompleted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Completed = !s.events[i].Completed
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	s.version++
	return nil
}

// Delete removes every event with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.ID != id {
			kept = append(kept, ev)
		}
	}
	if len(kept) == len(s.events) {
		return ErrNotFound
	}
	s.events = kept
	s.version++
	return nil
}

// Version increases on every change. Derived views use it as a cache key.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
