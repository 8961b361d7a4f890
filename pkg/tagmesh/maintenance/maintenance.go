// Package maintenance holds periodic upkeep passes over the tag graph:
// trend snapshots and integrity audits.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// DefaultTrendInterval is how long a trend snapshot stays fresh.
const DefaultTrendInterval = 24 * time.Hour

// Result summarizes a maintenance pass.
type Result struct {
	Processed int
	Updated   int
}

// RefreshTrends snapshots the current item count of every tag whose last
// snapshot is older than interval (DefaultTrendInterval when interval <= 0).
// Tags refreshed within the window are left untouched, which makes the pass
// idempotent inside one interval.
func RefreshTrends(ctx context.Context, st store.Store, tags []store.Tag, now time.Time, interval time.Duration) (Result, error) {
	if interval <= 0 {
		interval = DefaultTrendInterval
	}

	var res Result
	for _, t := range tags {
		res.Processed++
		if !t.TrendCalculatedAt.IsZero() && now.Sub(t.TrendCalculatedAt) < interval {
			continue
		}
		t.PreviousItemCount = len(t.ItemIDs)
		t.TrendCalculatedAt = now
		if err := st.UpsertTag(ctx, t); err != nil {
			return res, fmt.Errorf("refresh trends: save tag %q: %w: %v", t.ID, internalerr.ErrPersistenceFailed, err)
		}
		res.Updated++
	}
	return res, nil
}

// OrphanReport lists integrity problems found in the tag graph.
type OrphanReport struct {
	// EmptyTags are tags with no item memberships.
	EmptyTags []store.Tag

	// DanglingTagIDs maps item id → tag ids the item references that no
	// longer exist.
	DanglingTagIDs map[string][]string

	// AsymmetricEdges maps item id → tag ids where one side of the
	// item↔tag join is missing the edge the other side records.
	AsymmetricEdges map[string][]string
}

// Empty reports whether the audit found nothing.
func (r OrphanReport) Empty() bool {
	return len(r.EmptyTags) == 0 && len(r.DanglingTagIDs) == 0 && len(r.AsymmetricEdges) == 0
}

// Orphans audits tags and items for empty tags, dangling references, and
// one-sided membership edges. It is a pure read-only scan.
func Orphans(tags []store.Tag, items []store.Item) OrphanReport {
	report := OrphanReport{
		DanglingTagIDs:  make(map[string][]string),
		AsymmetricEdges: make(map[string][]string),
	}

	tagByID := make(map[string]store.Tag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t
		if len(t.ItemIDs) == 0 {
			report.EmptyTags = append(report.EmptyTags, t)
		}
	}

	itemIDs := make(map[string]struct{}, len(items))
	for _, it := range items {
		itemIDs[it.ID] = struct{}{}
	}

	for _, it := range items {
		for _, tagID := range it.TagIDs {
			t, ok := tagByID[tagID]
			if !ok {
				report.DanglingTagIDs[it.ID] = append(report.DanglingTagIDs[it.ID], tagID)
				continue
			}
			if !store.ContainsID(t.ItemIDs, it.ID) {
				report.AsymmetricEdges[it.ID] = append(report.AsymmetricEdges[it.ID], tagID)
			}
		}
	}

	for _, t := range tags {
		for _, itemID := range t.ItemIDs {
			if _, ok := itemIDs[itemID]; !ok {
				report.DanglingTagIDs[itemID] = append(report.DanglingTagIDs[itemID], t.ID)
			}
		}
	}

	if len(report.DanglingTagIDs) == 0 {
		report.DanglingTagIDs = nil
	}
	if len(report.AsymmetricEdges) == 0 {
		report.AsymmetricEdges = nil
	}
	return report
}
