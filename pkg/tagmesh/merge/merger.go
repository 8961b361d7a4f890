package merge

import (
	"context"
	"fmt"

	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// Merger folds one tag into another while keeping item memberships, child
// hierarchy links, and board rules consistent. The engine assumes exclusive
// access to the store for the duration of a merge; no other mutation may
// interleave.
type Merger struct {
	Store store.Store
}

// Merge folds remove into keep:
//
//  1. every item of remove joins keep's membership (deduplicated) and drops
//     its reference to remove,
//  2. children of remove are re-parented onto keep,
//  3. board rules referencing remove are rewritten to reference keep,
//  4. keep inherits remove's parent when keep has none,
//  5. remove is deleted from the store.
//
// All rewiring is applied before the delete; the delete is the last,
// irreversible step. If a write fails mid-way the merge stops with an
// ErrPersistenceFailed wrap and remove still exists, so re-running the
// merge converges to the same end state.
func (m *Merger) Merge(ctx context.Context, keepID, removeID string) error {
	if keepID == "" || removeID == "" || keepID == removeID {
		return fmt.Errorf("merge tags: %w: keep=%q remove=%q", internalerr.ErrInvalidInput, keepID, removeID)
	}

	keep, ok, err := m.Store.GetTag(ctx, keepID)
	if err != nil {
		return persistErr("load keep tag", err)
	}
	if !ok {
		return fmt.Errorf("merge tags: keep %q: %w", keepID, internalerr.ErrNotFound)
	}
	remove, ok, err := m.Store.GetTag(ctx, removeID)
	if err != nil {
		return persistErr("load remove tag", err)
	}
	if !ok {
		return fmt.Errorf("merge tags: remove %q: %w", removeID, internalerr.ErrNotFound)
	}

	// Rewire item memberships on both sides of the join.
	for _, itemID := range remove.ItemIDs {
		keep.ItemIDs = store.AddID(keep.ItemIDs, itemID)

		item, found, err := m.Store.GetItem(ctx, itemID)
		if err != nil {
			return persistErr("load item", err)
		}
		if !found {
			continue
		}
		item.TagIDs = store.RemoveID(item.TagIDs, removeID)
		item.TagIDs = store.AddID(item.TagIDs, keepID)
		if err := m.Store.UpsertItem(ctx, item); err != nil {
			return persistErr("rewire item", err)
		}
	}

	// Re-parent children of the removed tag.
	tags, err := m.Store.AllTags(ctx)
	if err != nil {
		return persistErr("list tags", err)
	}
	for _, child := range tags {
		if child.ParentID != removeID || child.ID == removeID {
			continue
		}
		if child.ID == keepID {
			// keep was a child of remove; it inherits remove's parent
			// below instead of becoming its own parent.
			continue
		}
		child.ParentID = keepID
		if err := m.Store.UpsertTag(ctx, child); err != nil {
			return persistErr("re-parent child", err)
		}
	}

	// Rewrite board rules.
	boards, err := m.Store.AllBoards(ctx)
	if err != nil {
		return persistErr("list boards", err)
	}
	for _, board := range boards {
		if !store.ContainsID(board.RuleTagIDs, removeID) {
			continue
		}
		board.RuleTagIDs = store.AddID(board.RuleTagIDs, keepID)
		board.RuleTagIDs = store.RemoveID(board.RuleTagIDs, removeID)
		if err := m.Store.UpsertBoard(ctx, board); err != nil {
			return persistErr("rewrite board rule", err)
		}
	}

	// keep inherits remove's parent only when keep has none. A parent link
	// back onto keep itself would be a self-cycle and is dropped.
	if keep.ParentID == removeID {
		keep.ParentID = ""
	}
	if keep.ParentID == "" && remove.ParentID != "" && remove.ParentID != keepID {
		keep.ParentID = remove.ParentID
	}

	if err := m.Store.UpsertTag(ctx, keep); err != nil {
		return persistErr("save keep tag", err)
	}

	// Last, irreversible step.
	if err := m.Store.DeleteTag(ctx, removeID); err != nil {
		return persistErr("delete removed tag", err)
	}
	return nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("merge tags: %s: %w: %v", op, internalerr.ErrPersistenceFailed, err)
}
