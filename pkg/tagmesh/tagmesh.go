// Package tagmesh is the tag relationship and clustering engine behind a
// personal knowledge base: it detects near-duplicate tags, infers tag
// hierarchies, merges tags without breaking the tag↔item graph, and groups
// items into topical clusters from tag co-occurrence.
//
// The engine is synchronous and single-threaded by design. It assumes
// exclusive access to the store during a mutation (merge, hierarchy edit,
// trend refresh); read-only calls may run concurrently with each other but
// not with a mutation. The underlying scoring functions live in the
// similarity, cooccur and cluster packages and are pure, so they are safe
// from any goroutine.
package tagmesh

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/tagmesh/pkg/tagmesh/cluster"
	"github.com/cognicore/tagmesh/pkg/tagmesh/config"
	"github.com/cognicore/tagmesh/pkg/tagmesh/cooccur"
	"github.com/cognicore/tagmesh/pkg/tagmesh/hierarchy"
	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/maintenance"
	"github.com/cognicore/tagmesh/pkg/tagmesh/merge"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// Engine is the main facade over a tag store.
type Engine struct {
	store  store.Store
	cfg    config.Config
	merger *merge.Merger
	now    func() time.Time
}

// Options configures an Engine instance.
type Options struct {
	Store store.Store

	// Config holds the engine thresholds; nil means config.Default().
	Config *config.Config

	// Now overrides the clock, used by trend refresh. nil means time.Now.
	Now func() time.Time
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:  opts.Store,
		cfg:    cfg,
		merger: &merge.Merger{Store: opts.Store},
		now:    now,
	}
}

// Close cleanly shuts down the engine.
func (e *Engine) Close() error {
	return e.store.Close()
}

// FindMergeSuggestions scans all tags for near-duplicate pairs.
func (e *Engine) FindMergeSuggestions(ctx context.Context) ([]merge.Suggestion, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("find merge suggestions: %w", err)
	}
	return merge.FindSuggestions(tags, e.cfg.Merge.SimilarityThreshold), nil
}

// MergeTags folds the remove tag into keep, rewiring memberships, child
// links, and board rules, then deletes remove.
func (e *Engine) MergeTags(ctx context.Context, keepID, removeID string) error {
	return e.merger.Merge(ctx, keepID, removeID)
}

// FindHierarchySuggestions scans all tags for parent/child evidence.
func (e *Engine) FindHierarchySuggestions(ctx context.Context) ([]hierarchy.Suggestion, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("find hierarchy suggestions: %w", err)
	}
	return hierarchy.FindSuggestions(tags), nil
}

// ApplyHierarchy makes parent the parent of child, refusing cycles.
func (e *Engine) ApplyHierarchy(ctx context.Context, parentID, childID string) error {
	return hierarchy.Apply(ctx, e.store, parentID, childID)
}

// RemoveHierarchy clears child's parent link.
func (e *Engine) RemoveHierarchy(ctx context.Context, childID string) error {
	return hierarchy.Remove(ctx, e.store, childID)
}

// UpdateTrends refreshes the item-count snapshot of every tag whose last
// snapshot is older than the configured interval.
func (e *Engine) UpdateTrends(ctx context.Context) (maintenance.Result, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return maintenance.Result{}, fmt.Errorf("update trends: %w", err)
	}
	return maintenance.RefreshTrends(ctx, e.store, tags, e.now(), time.Duration(e.cfg.Trends.RefreshInterval))
}

// TagCooccurrence computes the shared-item count matrix over all tags.
func (e *Engine) TagCooccurrence(ctx context.Context) (cooccur.Matrix, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("tag cooccurrence: %w", err)
	}
	return cooccur.Build(tags), nil
}

// Clusters partitions all items into topical clusters. The result is
// ephemeral display state and is never written back to the store.
func (e *Engine) Clusters(ctx context.Context) ([]cluster.Cluster, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("clusters: %w", err)
	}
	items, err := e.store.AllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("clusters: %w", err)
	}
	return cluster.Build(items, tags, e.cfg.Cluster.CooccurrenceRatio), nil
}

// Audit runs the read-only integrity scan over the whole graph.
func (e *Engine) Audit(ctx context.Context) (maintenance.OrphanReport, error) {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		return maintenance.OrphanReport{}, fmt.Errorf("audit: %w", err)
	}
	items, err := e.store.AllItems(ctx)
	if err != nil {
		return maintenance.OrphanReport{}, fmt.Errorf("audit: %w", err)
	}
	return maintenance.Orphans(tags, items), nil
}

// CreateTag adds a new tag with a fresh id.
func (e *Engine) CreateTag(ctx context.Context, name string) (store.Tag, error) {
	if name == "" {
		return store.Tag{}, fmt.Errorf("create tag: %w: empty name", internalerr.ErrInvalidInput)
	}
	t := store.Tag{ID: store.NewID(), Name: name}
	if err := e.store.UpsertTag(ctx, t); err != nil {
		return store.Tag{}, fmt.Errorf("create tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	return t, nil
}

// CreateItem adds a new item with a fresh id and attaches the given tags,
// keeping both sides of each membership edge consistent.
func (e *Engine) CreateItem(ctx context.Context, title string, tagIDs ...string) (store.Item, error) {
	item := store.Item{ID: store.NewID(), Title: title}
	if err := e.store.UpsertItem(ctx, item); err != nil {
		return store.Item{}, fmt.Errorf("create item: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	for _, tagID := range tagIDs {
		if err := e.AttachTag(ctx, tagID, item.ID); err != nil {
			return store.Item{}, err
		}
	}
	got, _, err := e.store.GetItem(ctx, item.ID)
	if err != nil {
		return store.Item{}, fmt.Errorf("create item: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	return got, nil
}

// AttachTag records the membership edge on both the tag and the item.
func (e *Engine) AttachTag(ctx context.Context, tagID, itemID string) error {
	tag, ok, err := e.store.GetTag(ctx, tagID)
	if err != nil {
		return fmt.Errorf("attach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if !ok {
		return fmt.Errorf("attach tag: tag %q: %w", tagID, internalerr.ErrNotFound)
	}
	item, ok, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("attach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if !ok {
		return fmt.Errorf("attach tag: item %q: %w", itemID, internalerr.ErrNotFound)
	}

	tag.ItemIDs = store.AddID(tag.ItemIDs, itemID)
	item.TagIDs = store.AddID(item.TagIDs, tagID)
	if err := e.store.UpsertTag(ctx, tag); err != nil {
		return fmt.Errorf("attach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if err := e.store.UpsertItem(ctx, item); err != nil {
		return fmt.Errorf("attach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	return nil
}

// DetachTag removes the membership edge from both sides.
func (e *Engine) DetachTag(ctx context.Context, tagID, itemID string) error {
	tag, ok, err := e.store.GetTag(ctx, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if ok {
		tag.ItemIDs = store.RemoveID(tag.ItemIDs, itemID)
		if err := e.store.UpsertTag(ctx, tag); err != nil {
			return fmt.Errorf("detach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
		}
	}
	item, ok, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("detach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if ok {
		item.TagIDs = store.RemoveID(item.TagIDs, tagID)
		if err := e.store.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("detach tag: %w: %v", internalerr.ErrPersistenceFailed, err)
		}
	}
	return nil
}
