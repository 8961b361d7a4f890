// Package cooccur computes pairwise shared-item counts across a tag set.
// Build is a pure function over immutable inputs and is safe to call from
// any goroutine.
package cooccur

import "github.com/cognicore/tagmesh/pkg/tagmesh/store"

// Matrix maps tag id → co-occurring tag id → shared-item count. Storage is
// directional but the value is symmetric: Matrix[a][b] == Matrix[b][a]
// whenever both entries are present, since both are the same set
// intersection. Zero overlaps are omitted.
type Matrix map[string]map[string]int

// Build computes the co-occurrence matrix for the given tags. Cost is
// O(n²·m) over n tags with item sets of size m; fine for tag sets in the
// hundreds, which is the intended scale.
func Build(tags []store.Tag) Matrix {
	sets := make(map[string]map[string]struct{}, len(tags))
	for _, t := range tags {
		set := make(map[string]struct{}, len(t.ItemIDs))
		for _, id := range t.ItemIDs {
			set[id] = struct{}{}
		}
		sets[t.ID] = set
	}

	m := make(Matrix, len(tags))
	for _, a := range tags {
		for _, b := range tags {
			if a.ID == b.ID {
				continue
			}
			overlap := intersectionSize(sets[a.ID], sets[b.ID])
			if overlap == 0 {
				continue
			}
			if m[a.ID] == nil {
				m[a.ID] = make(map[string]int)
			}
			m[a.ID][b.ID] = overlap
		}
	}
	return m
}

// Overlap returns the shared-item count for a pair, zero when absent.
func (m Matrix) Overlap(a, b string) int {
	return m[a][b]
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for id := range a {
		if _, ok := b[id]; ok {
			n++
		}
	}
	return n
}
