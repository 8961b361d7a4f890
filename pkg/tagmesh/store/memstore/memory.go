// Package memstore provides an in-memory store.Store used as the reference
// implementation and as the test double for the engine packages.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// Store is a mutex-guarded in-memory implementation of store.Store.
// Collections are returned as copies sorted by name then id, matching the
// ordering contract of the interface.
type Store struct {
	mu     sync.RWMutex
	tags   map[string]store.Tag
	items  map[string]store.Item
	boards map[string]store.Board
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tags:   make(map[string]store.Tag),
		items:  make(map[string]store.Item),
		boards: make(map[string]store.Board),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertTag inserts or replaces a tag, keyed by id.
func (s *Store) UpsertTag(ctx context.Context, t store.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		return nil
	}
	s.tags[t.ID] = copyTag(t)
	return nil
}

// GetTag returns a tag by id.
func (s *Store) GetTag(ctx context.Context, id string) (store.Tag, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tags[id]; ok {
		return copyTag(t), true, nil
	}
	return store.Tag{}, false, nil
}

// AllTags returns every tag sorted by name then id.
func (s *Store) AllTags(ctx context.Context) ([]store.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, copyTag(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteTag removes a tag by id. Deleting an absent tag is a no-op.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tags, id)
	return nil
}

// UpsertItem inserts or replaces an item, keyed by id.
func (s *Store) UpsertItem(ctx context.Context, it store.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == "" {
		return nil
	}
	s.items[it.ID] = copyItem(it)
	return nil
}

// GetItem returns an item by id.
func (s *Store) GetItem(ctx context.Context, id string) (store.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.items[id]; ok {
		return copyItem(it), true, nil
	}
	return store.Item{}, false, nil
}

// AllItems returns every item sorted by title then id.
func (s *Store) AllItems(ctx context.Context) ([]store.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyItem(it))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteItem removes an item by id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// UpsertBoard inserts or replaces a board, keyed by id.
func (s *Store) UpsertBoard(ctx context.Context, b store.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		return nil
	}
	s.boards[b.ID] = copyBoard(b)
	return nil
}

// GetBoard returns a board by id.
func (s *Store) GetBoard(ctx context.Context, id string) (store.Board, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[id]; ok {
		return copyBoard(b), true, nil
	}
	return store.Board{}, false, nil
}

// AllBoards returns every board sorted by name then id.
func (s *Store) AllBoards(ctx context.Context) ([]store.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Board, 0, len(s.boards))
	for _, b := range s.boards {
		out = append(out, copyBoard(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func copySlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyTag(t store.Tag) store.Tag {
	t.ItemIDs = copySlice(t.ItemIDs)
	return t
}

func copyItem(it store.Item) store.Item {
	it.TagIDs = copySlice(it.TagIDs)
	return it
}

func copyBoard(b store.Board) store.Board {
	b.RuleTagIDs = copySlice(b.RuleTagIDs)
	return b
}
