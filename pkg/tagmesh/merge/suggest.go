// Package merge detects near-duplicate tags and folds a chosen duplicate
// into its survivor while keeping the tag graph consistent.
package merge

import (
	"sort"
	"strings"

	"github.com/cognicore/tagmesh/pkg/tagmesh/similarity"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// DefaultThreshold is the minimum similarity for a merge suggestion.
const DefaultThreshold = 0.75

// Human-readable reasons attached to suggestions.
const (
	ReasonSameName = "Same name with different separators"
	ReasonContains = "One name contains the other"
	ReasonSimilar  = "Very similar names"
)

// Suggestion pairs two tags that look like duplicates. Which one survives
// is a decision for the caller; the finder only reports the evidence.
type Suggestion struct {
	First  store.Tag
	Second store.Tag
	Score  float64
	Reason string
}

// FindSuggestions scans all unordered tag pairs and returns candidates with
// similarity at or above threshold (DefaultThreshold when threshold <= 0),
// sorted by score descending with ties keeping input order. Pairs already
// related as parent/child are skipped, as are repeated pairs when the input
// contains duplicate ids.
//
// The scan is O(n²) pairs, each costing an edit-distance computation. That
// is fine for tag sets in the hundreds and is not optimized further.
func FindSuggestions(tags []store.Tag, threshold float64) []Suggestion {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	seen := make(map[string]struct{})
	var out []Suggestion
	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			a, b := tags[i], tags[j]
			if a.ParentID == b.ID || b.ParentID == a.ID {
				continue
			}
			key := pairKey(a.ID, b.ID)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			score := similarity.Score(a.Name, b.Name)
			if score < threshold {
				continue
			}
			out = append(out, Suggestion{
				First:  a,
				Second: b,
				Score:  score,
				Reason: reasonFor(a.Name, b.Name),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func reasonFor(a, b string) string {
	na := similarity.Normalize(a)
	nb := similarity.Normalize(b)
	switch {
	case na == nb:
		return ReasonSameName
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return ReasonContains
	default:
		return ReasonSimilar
	}
}

// pairKey builds a canonical unordered key for two tag ids, "" when the ids
// are equal or either is empty.
func pairKey(a, b string) string {
	if a == "" || b == "" || a == b {
		return ""
	}
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
