package store

import (
	"context"
	"time"
)

// Store is the persistence boundary for the tag graph. The engine reads
// whole collections, mutates entities through the Upsert methods, and
// removes a superseded tag with DeleteTag.
//
// Implementations must return collections in a stable order (name, then id)
// so that downstream tie-breaks are reproducible across runs. The item↔tag
// relationship is stored on both sides; callers are responsible for keeping
// the two edge lists symmetric.
type Store interface {
	Close() error

	// Tags
	UpsertTag(ctx context.Context, t Tag) error
	GetTag(ctx context.Context, id string) (Tag, bool, error)
	AllTags(ctx context.Context) ([]Tag, error)
	DeleteTag(ctx context.Context, id string) error

	// Items
	UpsertItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, id string) (Item, bool, error)
	AllItems(ctx context.Context) ([]Item, error)
	DeleteItem(ctx context.Context, id string) error

	// Boards
	UpsertBoard(ctx context.Context, b Board) error
	GetBoard(ctx context.Context, id string) (Board, bool, error)
	AllBoards(ctx context.Context) ([]Board, error)
}

// Tag is a named label attachable to many items. ParentID is a plain
// back-pointer, never an owning reference; the empty string means no
// parent. ItemIDs holds the membership edge list with no duplicates.
type Tag struct {
	ID                string
	Name              string
	ParentID          string
	ItemIDs           []string
	PreviousItemCount int
	TrendCalculatedAt time.Time // zero when trends were never computed
}

// Item is a knowledge-base entry attachable to many tags.
type Item struct {
	ID     string
	Title  string
	TagIDs []string
}

// Board auto-includes items carrying any tag in RuleTagIDs.
type Board struct {
	ID         string
	Name       string
	RuleTagIDs []string
}

// ContainsID reports whether id occurs in ids.
func ContainsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// AddID appends id to ids unless already present, preserving order.
func AddID(ids []string, id string) []string {
	if ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID deletes every occurrence of id from ids, preserving order.
func RemoveID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
