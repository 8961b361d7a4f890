// Package hierarchy infers parent/child relationships between tags from
// their names and item memberships, and applies accepted relationships to
// the store.
package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/similarity"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// minParentLen is the minimum normalized parent-name length considered;
// shorter names produce too many false positives.
const minParentLen = 3

// Evidence reasons, checked in this order with first match winning.
const (
	ReasonPrefix    = "starts with"
	ReasonComponent = "contains as a component"
	ReasonSubset    = "all items tagged child are also tagged parent"
)

// Suggestion proposes parent as the parent of child.
type Suggestion struct {
	Parent store.Tag
	Child  store.Tag
	Reason string
}

// FindSuggestions scans all ordered tag pairs for parent→child evidence.
// Children that already have a parent are never suggested. Each child keeps
// at most one suggestion: the one with the longest parent name, where a
// strictly longer name replaces and an equal-length name keeps the first
// found. Output is sorted by child name using locale-aware comparison.
func FindSuggestions(tags []store.Tag) []Suggestion {
	best := make(map[string]Suggestion)
	var childOrder []string

	for _, parent := range tags {
		for _, child := range tags {
			if parent.ID == child.ID {
				continue
			}
			if child.ParentID != "" {
				continue
			}
			parentNorm := similarity.Normalize(parent.Name)
			childNorm := similarity.Normalize(child.Name)
			if len([]rune(childNorm)) <= len([]rune(parentNorm)) {
				continue
			}
			if len([]rune(parentNorm)) < minParentLen {
				continue
			}
			reason, ok := evidence(parent, child)
			if !ok {
				continue
			}

			cur, seen := best[child.ID]
			if !seen {
				best[child.ID] = Suggestion{Parent: parent, Child: child, Reason: reason}
				childOrder = append(childOrder, child.ID)
				continue
			}
			if len([]rune(parent.Name)) > len([]rune(cur.Parent.Name)) {
				best[child.ID] = Suggestion{Parent: parent, Child: child, Reason: reason}
			}
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, childID := range childOrder {
		out = append(out, best[childID])
	}

	c := collate.New(language.Und, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Child.Name, out[j].Child.Name) < 0
	})
	return out
}

// evidence checks the three signals in order; first match wins.
func evidence(parent, child store.Tag) (string, bool) {
	parentLower := strings.ToLower(parent.Name)
	childLower := strings.ToLower(child.Name)

	if strings.HasPrefix(childLower, parentLower) {
		return ReasonPrefix, true
	}

	parentTokens := tokenize(parentLower)
	if len(parentTokens) == 1 {
		childTokens := tokenize(childLower)
		if len(childTokens) > 1 && containsToken(childTokens, parentTokens[0]) {
			return ReasonComponent, true
		}
	}

	if len(parent.ItemIDs) > 0 && len(child.ItemIDs) > 0 &&
		len(child.ItemIDs) < len(parent.ItemIDs) &&
		isSubset(child.ItemIDs, parent.ItemIDs) {
		return ReasonSubset, true
	}

	return "", false
}

// tokenize splits a lowercased name on whitespace and punctuation.
func tokenize(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func containsToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

func isSubset(sub, super []string) bool {
	set := make(map[string]struct{}, len(super))
	for _, id := range super {
		set[id] = struct{}{}
	}
	for _, id := range sub {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Apply sets child's parent after verifying the edge keeps the hierarchy
// acyclic: the would-be parent must not be the child itself or one of its
// descendants. Refused edges return ErrHierarchyCycle.
func Apply(ctx context.Context, st store.Store, parentID, childID string) error {
	if parentID == "" || childID == "" {
		return fmt.Errorf("apply hierarchy: %w: empty tag id", internalerr.ErrInvalidInput)
	}
	if parentID == childID {
		return fmt.Errorf("apply hierarchy: %w: tag %q cannot parent itself", internalerr.ErrHierarchyCycle, childID)
	}

	// Walk the would-be parent's ancestor chain; reaching child means the
	// new edge would close a loop.
	seen := make(map[string]struct{})
	cur := parentID
	for cur != "" {
		if cur == childID {
			return fmt.Errorf("apply hierarchy: %w: %q is an ancestor of %q", internalerr.ErrHierarchyCycle, childID, parentID)
		}
		if _, visited := seen[cur]; visited {
			break
		}
		seen[cur] = struct{}{}
		t, ok, err := st.GetTag(ctx, cur)
		if err != nil {
			return fmt.Errorf("apply hierarchy: walk ancestors: %w: %v", internalerr.ErrPersistenceFailed, err)
		}
		if !ok {
			break
		}
		cur = t.ParentID
	}

	if _, ok, err := st.GetTag(ctx, parentID); err != nil {
		return fmt.Errorf("apply hierarchy: load parent: %w: %v", internalerr.ErrPersistenceFailed, err)
	} else if !ok {
		return fmt.Errorf("apply hierarchy: parent %q: %w", parentID, internalerr.ErrNotFound)
	}
	child, ok, err := st.GetTag(ctx, childID)
	if err != nil {
		return fmt.Errorf("apply hierarchy: load child: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if !ok {
		return fmt.Errorf("apply hierarchy: child %q: %w", childID, internalerr.ErrNotFound)
	}

	child.ParentID = parentID
	if err := st.UpsertTag(ctx, child); err != nil {
		return fmt.Errorf("apply hierarchy: save child: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	return nil
}

// Remove clears child's parent link. Clearing an already clear link is a
// no-op.
func Remove(ctx context.Context, st store.Store, childID string) error {
	child, ok, err := st.GetTag(ctx, childID)
	if err != nil {
		return fmt.Errorf("remove hierarchy: load child: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	if !ok {
		return fmt.Errorf("remove hierarchy: child %q: %w", childID, internalerr.ErrNotFound)
	}
	if child.ParentID == "" {
		return nil
	}
	child.ParentID = ""
	if err := st.UpsertTag(ctx, child); err != nil {
		return fmt.Errorf("remove hierarchy: save child: %w: %v", internalerr.ErrPersistenceFailed, err)
	}
	return nil
}
