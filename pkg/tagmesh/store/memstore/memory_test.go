package memstore

import (
	"context"
	"testing"

	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

func TestTagCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tag := store.Tag{ID: "t1", Name: "go", ItemIDs: []string{"i1"}}
	if err := s.UpsertTag(ctx, tag); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetTag(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != "go" || len(got.ItemIDs) != 1 {
		t.Errorf("got %+v", got)
	}

	if err := s.DeleteTag(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetTag(ctx, "t1"); ok {
		t.Error("tag present after delete")
	}
	// Deleting again is a no-op.
	if err := s.DeleteTag(ctx, "t1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestCopyIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpsertTag(ctx, store.Tag{ID: "t1", Name: "go", ItemIDs: []string{"i1"}}); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.GetTag(ctx, "t1")
	got.ItemIDs[0] = "mutated"
	got.ItemIDs = append(got.ItemIDs, "extra")

	fresh, _, _ := s.GetTag(ctx, "t1")
	if len(fresh.ItemIDs) != 1 || fresh.ItemIDs[0] != "i1" {
		t.Errorf("store state leaked through returned copy: %v", fresh.ItemIDs)
	}
}

func TestAllTagsSorted(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, tag := range []store.Tag{
		{ID: "b", Name: "same"},
		{ID: "a", Name: "same"},
		{ID: "c", Name: "earlier"},
	} {
		if err := s.UpsertTag(ctx, tag); err != nil {
			t.Fatal(err)
		}
	}
	tags, _ := s.AllTags(ctx)
	want := []string{"c", "a", "b"}
	for i, tag := range tags {
		if tag.ID != want[i] {
			t.Fatalf("order = %v, want %v", tags, want)
		}
	}
}

func TestEmptyIDIgnored(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.UpsertTag(ctx, store.Tag{Name: "no id"}); err != nil {
		t.Fatal(err)
	}
	tags, _ := s.AllTags(ctx)
	if len(tags) != 0 {
		t.Errorf("tag with empty id was stored: %+v", tags)
	}
}

func TestItemsAndBoards(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.UpsertItem(ctx, store.Item{ID: "i1", Title: "note", TagIDs: []string{"t1"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertBoard(ctx, store.Board{ID: "b1", Name: "Tech", RuleTagIDs: []string{"t1"}}); err != nil {
		t.Fatal(err)
	}

	items, _ := s.AllItems(ctx)
	if len(items) != 1 || items[0].Title != "note" {
		t.Errorf("items = %+v", items)
	}
	boards, _ := s.AllBoards(ctx)
	if len(boards) != 1 || len(boards[0].RuleTagIDs) != 1 {
		t.Errorf("boards = %+v", boards)
	}

	if err := s.DeleteItem(ctx, "i1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetItem(ctx, "i1"); ok {
		t.Error("item present after delete")
	}
}
