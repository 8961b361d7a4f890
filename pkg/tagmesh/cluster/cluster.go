// Package cluster partitions items into topical clusters by greedily
// grouping tags on co-occurrence strength. The algorithm is intentionally
// greedy and order-sensitive; it does not attempt a globally optimal
// grouping. Build is pure and never mutates the store.
package cluster

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cognicore/tagmesh/pkg/tagmesh/cooccur"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// DefaultRatio is the minimum overlap/min(|A|,|B|) ratio for two tags to
// share a group.
const DefaultRatio = 0.4

// Labels for the fallback buckets.
const (
	LabelAll           = "All Items"
	LabelOther         = "Other"
	LabelUncategorized = "Uncategorized"
)

// Cluster is an ephemeral grouping of items under a set of related tags.
// It is computed on demand and never written back to the store.
type Cluster struct {
	Label string
	Tags  []store.Tag
	Items []store.Item
}

// Build partitions items into clusters using the given tags and ratio
// (DefaultRatio when ratio <= 0). Every input item lands in exactly one
// cluster: a tag-group cluster, the "Other" bucket for tagged items no
// group matched, or the "Uncategorized" bucket for untagged items.
func Build(items []store.Item, tags []store.Tag, ratio float64) []Cluster {
	if ratio <= 0 {
		ratio = DefaultRatio
	}

	var tagged, untagged []store.Item
	for _, it := range items {
		if len(it.TagIDs) > 0 {
			tagged = append(tagged, it)
		} else {
			untagged = append(untagged, it)
		}
	}

	if len(tagged) == 0 {
		if len(items) == 0 {
			return nil
		}
		return []Cluster{{Label: LabelAll, Items: items}}
	}

	groups := buildGroups(tags, ratio)

	collator := collate.New(language.Und, collate.Loose)
	itemAssigned := make(map[string]bool, len(tagged))
	var clusters []Cluster
	for _, group := range groups {
		groupIDs := make(map[string]struct{}, len(group))
		for _, t := range group {
			groupIDs[t.ID] = struct{}{}
		}

		var members []store.Item
		for _, it := range tagged {
			if itemAssigned[it.ID] {
				continue
			}
			if hasAnyTag(it, groupIDs) {
				members = append(members, it)
				itemAssigned[it.ID] = true
			}
		}
		if len(members) == 0 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return collator.CompareString(group[i].Name, group[j].Name) < 0
		})
		clusters = append(clusters, Cluster{
			Label: labelFor(group),
			Tags:  group,
			Items: members,
		})
	}

	var leftovers []store.Item
	for _, it := range tagged {
		if !itemAssigned[it.ID] {
			leftovers = append(leftovers, it)
		}
	}
	if len(leftovers) > 0 {
		clusters = append(clusters, Cluster{Label: LabelOther, Items: leftovers})
	}
	if len(untagged) > 0 {
		clusters = append(clusters, Cluster{Label: LabelUncategorized, Items: untagged})
	}

	if len(clusters) == 0 {
		return []Cluster{{Label: LabelAll, Items: items}}
	}
	return clusters
}

// buildGroups greedily assigns each tag to at most one group. Tags are
// visited by item count descending (stable, so ties keep input order); each
// unassigned tag seeds a group and pulls in unassigned partners whose
// co-occurrence ratio clears the threshold.
func buildGroups(tags []store.Tag, ratio float64) [][]store.Tag {
	matrix := cooccur.Build(tags)

	byID := make(map[string]store.Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}

	sorted := make([]store.Tag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].ItemIDs) > len(sorted[j].ItemIDs)
	})

	assigned := make(map[string]bool, len(tags))
	var groups [][]store.Tag
	for _, seed := range sorted {
		if assigned[seed.ID] {
			continue
		}
		assigned[seed.ID] = true
		group := []store.Tag{seed}

		for _, partner := range partnersByOverlap(matrix, seed.ID) {
			if assigned[partner.id] {
				continue
			}
			other, ok := byID[partner.id]
			if !ok {
				continue
			}
			smaller := len(seed.ItemIDs)
			if len(other.ItemIDs) < smaller {
				smaller = len(other.ItemIDs)
			}
			if smaller == 0 {
				continue
			}
			if float64(partner.overlap)/float64(smaller) >= ratio {
				group = append(group, other)
				assigned[partner.id] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

type partner struct {
	id      string
	overlap int
}

// partnersByOverlap returns a tag's co-occurring partners sorted by overlap
// descending. Ties break on tag id ascending: matrix rows are maps, so a
// secondary key is required for reproducible output.
func partnersByOverlap(matrix cooccur.Matrix, id string) []partner {
	row := matrix[id]
	if len(row) == 0 {
		return nil
	}
	out := make([]partner, 0, len(row))
	for partnerID, overlap := range row {
		out = append(out, partner{id: partnerID, overlap: overlap})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].overlap != out[j].overlap {
			return out[i].overlap > out[j].overlap
		}
		return out[i].id < out[j].id
	})
	return out
}

func hasAnyTag(it store.Item, ids map[string]struct{}) bool {
	for _, tagID := range it.TagIDs {
		if _, ok := ids[tagID]; ok {
			return true
		}
	}
	return false
}

func labelFor(group []store.Tag) string {
	names := make([]string, len(group))
	for i, t := range group {
		names[i] = t.Name
	}
	return strings.Join(names, " & ")
}
