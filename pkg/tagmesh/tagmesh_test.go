package tagmesh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/tagmesh/pkg/tagmesh/config"
	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store/memstore"
)

func newEngine(t *testing.T) (*Engine, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	eng := New(Options{Store: st})
	t.Cleanup(func() { eng.Close() })
	return eng, st
}

func TestEngineEndToEnd(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)

	swift, err := eng.CreateTag(ctx, "Swift")
	if err != nil {
		t.Fatal(err)
	}
	swiftUI, err := eng.CreateTag(ctx, "SwiftUI")
	if err != nil {
		t.Fatal(err)
	}
	dup, err := eng.CreateTag(ctx, "swift-ui")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.CreateItem(ctx, "views", swiftUI.ID, dup.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateItem(ctx, "language", swift.ID); err != nil {
		t.Fatal(err)
	}

	// The duplicate pair is detected once.
	suggestions, err := eng.FindMergeSuggestions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := 0
	for _, s := range suggestions {
		ids := map[string]bool{s.First.ID: true, s.Second.ID: true}
		if ids[swiftUI.ID] && ids[dup.ID] {
			found++
			if s.Score != 1.0 {
				t.Errorf("duplicate pair score = %f, want 1.0", s.Score)
			}
		}
	}
	if found != 1 {
		t.Fatalf("duplicate pair suggested %d times, want exactly once", found)
	}

	// Merge the duplicate away and check the graph is still symmetric.
	if err := eng.MergeTags(ctx, swiftUI.ID, dup.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.GetTag(ctx, dup.ID); ok {
		t.Error("merged-away tag still in store")
	}
	report, err := eng.Audit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.DanglingTagIDs) != 0 || len(report.AsymmetricEdges) != 0 {
		t.Errorf("graph inconsistent after merge: %+v", report)
	}

	// Hierarchy inference now sees SwiftUI as a child of Swift.
	hs, err := eng.FindHierarchySuggestions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var matched bool
	for _, s := range hs {
		if s.Parent.ID == swift.ID && s.Child.ID == swiftUI.ID {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("SwiftUI→Swift not suggested: %+v", hs)
	}
	if err := eng.ApplyHierarchy(ctx, swift.ID, swiftUI.ID); err != nil {
		t.Fatal(err)
	}
	if err := eng.ApplyHierarchy(ctx, swiftUI.ID, swift.ID); !errors.Is(err, internalerr.ErrHierarchyCycle) {
		t.Errorf("reverse edge error = %v, want ErrHierarchyCycle", err)
	}

	// Clusters partition every item exactly once.
	clusters, err := eng.Clusters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := st.AllItems(ctx)
	seen := make(map[string]int)
	for _, c := range clusters {
		for _, member := range c.Items {
			seen[member.ID]++
		}
	}
	for _, item := range items {
		if seen[item.ID] != 1 {
			t.Errorf("item %s in %d clusters, want 1", item.ID, seen[item.ID])
		}
	}
}

func TestEngineUpdateTrends(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	clock := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	eng := New(Options{Store: st, Now: func() time.Time { return clock }})

	tag, err := eng.CreateTag(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateItem(ctx, "first", tag.ID); err != nil {
		t.Fatal(err)
	}

	res, err := eng.UpdateTrends(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 {
		t.Fatalf("updated = %d, want 1", res.Updated)
	}

	// Second run inside the window is a no-op even though the count grew.
	if _, err := eng.CreateItem(ctx, "second", tag.ID); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Hour)
	res, err = eng.UpdateTrends(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 0 {
		t.Errorf("updated = %d within window, want 0", res.Updated)
	}
	got, _, _ := st.GetTag(ctx, tag.ID)
	if got.PreviousItemCount != 1 {
		t.Errorf("previous item count = %d, want the first snapshot 1", got.PreviousItemCount)
	}
}

func TestEngineAttachDetach(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)

	tag, err := eng.CreateTag(ctx, "travel")
	if err != nil {
		t.Fatal(err)
	}
	item, err := eng.CreateItem(ctx, "itinerary")
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.AttachTag(ctx, tag.ID, item.ID); err != nil {
		t.Fatal(err)
	}
	// Attaching twice must not duplicate the edge.
	if err := eng.AttachTag(ctx, tag.ID, item.ID); err != nil {
		t.Fatal(err)
	}
	gotTag, _, _ := st.GetTag(ctx, tag.ID)
	gotItem, _, _ := st.GetItem(ctx, item.ID)
	if len(gotTag.ItemIDs) != 1 || len(gotItem.TagIDs) != 1 {
		t.Errorf("edges duplicated: tag=%v item=%v", gotTag.ItemIDs, gotItem.TagIDs)
	}

	if err := eng.DetachTag(ctx, tag.ID, item.ID); err != nil {
		t.Fatal(err)
	}
	gotTag, _, _ = st.GetTag(ctx, tag.ID)
	gotItem, _, _ = st.GetItem(ctx, item.ID)
	if len(gotTag.ItemIDs) != 0 || len(gotItem.TagIDs) != 0 {
		t.Errorf("edges not removed: tag=%v item=%v", gotTag.ItemIDs, gotItem.TagIDs)
	}

	if err := eng.AttachTag(ctx, "ghost", item.ID); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("attach to missing tag error = %v, want ErrNotFound", err)
	}
}

// failingStore wraps a store and fails every tag upsert, to check that
// persistence failures surface instead of being swallowed.
type failingStore struct {
	store.Store
}

func (f *failingStore) UpsertTag(ctx context.Context, t store.Tag) error {
	return errors.New("disk full")
}

func TestEngineSurfacesPersistenceFailures(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	for _, tg := range []store.Tag{
		{ID: "p", Name: "parent"},
		{ID: "c", Name: "child", ItemIDs: []string{}},
	} {
		if err := inner.UpsertTag(ctx, tg); err != nil {
			t.Fatal(err)
		}
	}
	eng := New(Options{Store: &failingStore{Store: inner}})

	if err := eng.ApplyHierarchy(ctx, "p", "c"); !errors.Is(err, internalerr.ErrPersistenceFailed) {
		t.Errorf("apply hierarchy error = %v, want ErrPersistenceFailed", err)
	}
	if _, err := eng.UpdateTrends(ctx); !errors.Is(err, internalerr.ErrPersistenceFailed) {
		t.Errorf("update trends error = %v, want ErrPersistenceFailed", err)
	}
	if _, err := eng.CreateTag(ctx, "anything"); !errors.Is(err, internalerr.ErrPersistenceFailed) {
		t.Errorf("create tag error = %v, want ErrPersistenceFailed", err)
	}
}

func TestEngineConfigThreshold(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	cfg := config.Default()
	cfg.Merge.SimilarityThreshold = 0.99
	eng := New(Options{Store: st, Config: &cfg})

	for _, name := range []string{"rust", "dust"} {
		if _, err := eng.CreateTag(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	got, err := eng.FindMergeSuggestions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("0.75-scoring pair passed a 0.99 threshold: %+v", got)
	}
}
