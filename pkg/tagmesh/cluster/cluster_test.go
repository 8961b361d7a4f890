package cluster

import (
	"testing"

	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

func tg(id, name string, itemIDs ...string) store.Tag {
	return store.Tag{ID: id, Name: name, ItemIDs: itemIDs}
}

func it(id string, tagIDs ...string) store.Item {
	return store.Item{ID: id, Title: id, TagIDs: tagIDs}
}

// assertPartition checks the core guarantee: every item in exactly one
// cluster, none dropped, none duplicated.
func assertPartition(t *testing.T, items []store.Item, clusters []Cluster) {
	t.Helper()
	seen := make(map[string]int)
	total := 0
	for _, c := range clusters {
		total += len(c.Items)
		for _, member := range c.Items {
			seen[member.ID]++
		}
	}
	if total != len(items) {
		t.Errorf("cluster items total %d, want %d", total, len(items))
	}
	for _, item := range items {
		if seen[item.ID] != 1 {
			t.Errorf("item %s appears in %d clusters, want exactly 1", item.ID, seen[item.ID])
		}
	}
}

func TestBuildOverlappingPair(t *testing.T) {
	items := []store.Item{
		it("i1", "a", "b"),
		it("i2", "a", "b"),
		it("i3", "c"),
	}
	tags := []store.Tag{
		tg("a", "A", "i1", "i2"),
		tg("b", "B", "i1", "i2"),
		tg("c", "C", "i3"),
	}

	clusters := Build(items, tags, 0)
	assertPartition(t, items, clusters)

	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2: %+v", len(clusters), clusters)
	}
	if clusters[0].Label != "A & B" {
		t.Errorf("first cluster label = %q, want \"A & B\"", clusters[0].Label)
	}
	if len(clusters[0].Items) != 2 {
		t.Errorf("A & B cluster has %d items, want 2", len(clusters[0].Items))
	}
	if len(clusters[1].Items) != 1 || clusters[1].Items[0].ID != "i3" {
		t.Errorf("second cluster = %+v, want just i3", clusters[1])
	}
}

func TestBuildNoTaggedItems(t *testing.T) {
	items := []store.Item{it("i1"), it("i2")}
	clusters := Build(items, nil, 0)
	if len(clusters) != 1 || clusters[0].Label != LabelAll {
		t.Fatalf("got %+v, want single %q cluster", clusters, LabelAll)
	}
	assertPartition(t, items, clusters)
}

func TestBuildEmptyInput(t *testing.T) {
	if clusters := Build(nil, nil, 0); clusters != nil {
		t.Errorf("Build(nil, nil) = %+v, want nil", clusters)
	}
}

func TestBuildUncategorizedBucket(t *testing.T) {
	items := []store.Item{
		it("i1", "a"),
		it("i2"),
		it("i3"),
	}
	tags := []store.Tag{tg("a", "A", "i1")}

	clusters := Build(items, tags, 0)
	assertPartition(t, items, clusters)

	last := clusters[len(clusters)-1]
	if last.Label != LabelUncategorized {
		t.Fatalf("last cluster label = %q, want %q", last.Label, LabelUncategorized)
	}
	if len(last.Items) != 2 {
		t.Errorf("uncategorized bucket has %d items, want 2", len(last.Items))
	}
}

func TestBuildOtherBucket(t *testing.T) {
	// i2 is tagged, but with a tag unknown to the board's tag list, so no
	// group can claim it.
	items := []store.Item{
		it("i1", "a"),
		it("i2", "ghost"),
	}
	tags := []store.Tag{tg("a", "A", "i1")}

	clusters := Build(items, tags, 0)
	assertPartition(t, items, clusters)

	var other *Cluster
	for i := range clusters {
		if clusters[i].Label == LabelOther {
			other = &clusters[i]
		}
	}
	if other == nil {
		t.Fatalf("no %q bucket in %+v", LabelOther, clusters)
	}
	if len(other.Items) != 1 || other.Items[0].ID != "i2" {
		t.Errorf("other bucket = %+v, want just i2", other.Items)
	}
}

func TestBuildRatioThreshold(t *testing.T) {
	// a and b share one of five items: ratio 1/3 < 0.4 keeps them apart.
	items := []store.Item{
		it("i1", "a"),
		it("i2", "a"),
		it("i3", "a", "b"),
		it("i4", "b"),
		it("i5", "b"),
	}
	tags := []store.Tag{
		tg("a", "A", "i1", "i2", "i3"),
		tg("b", "B", "i3", "i4", "i5"),
	}

	clusters := Build(items, tags, 0)
	assertPartition(t, items, clusters)
	for _, c := range clusters {
		if c.Label == "A & B" || c.Label == "B & A" {
			t.Errorf("weakly overlapping tags were grouped: %+v", c)
		}
	}
}

func TestBuildGreedySeedOrder(t *testing.T) {
	// The biggest tag seeds first and absorbs its strong partner, leaving
	// the rest to form their own groups.
	items := []store.Item{
		it("i1", "big", "sub"),
		it("i2", "big", "sub"),
		it("i3", "big"),
		it("i4", "solo"),
	}
	tags := []store.Tag{
		tg("solo", "Solo", "i4"),
		tg("sub", "Sub", "i1", "i2"),
		tg("big", "Big", "i1", "i2", "i3"),
	}

	clusters := Build(items, tags, 0)
	assertPartition(t, items, clusters)

	if clusters[0].Label != "Big & Sub" {
		t.Errorf("first cluster label = %q, want \"Big & Sub\" (localized name order)", clusters[0].Label)
	}
}

func TestBuildPartitionProperty(t *testing.T) {
	items := []store.Item{
		it("i1", "a", "b", "c"),
		it("i2", "a"),
		it("i3", "b", "d"),
		it("i4", "d"),
		it("i5"),
		it("i6", "e"),
		it("i7", "missing"),
	}
	tags := []store.Tag{
		tg("a", "Alpha", "i1", "i2"),
		tg("b", "Beta", "i1", "i3"),
		tg("c", "Gamma", "i1"),
		tg("d", "Delta", "i3", "i4"),
		tg("e", "Epsilon", "i6"),
	}
	for _, ratio := range []float64{0.2, 0.4, 0.8, 1.0} {
		assertPartition(t, items, Build(items, tags, ratio))
	}
}
