package datapath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleSnapshot() map[string]any {
	return map[string]any{
		"name": "x",
		"note": nil,
		"items": []any{
			map[string]any{"sku": "A"},
			map[string]any{"sku": "B"},
			map[string]any{"sku": "D", MarkerKey: 3},
		},
		"tags": []any{"a", "b"},
	}
}

func TestGetNeverPanicsOnShapeMismatch(t *testing.T) {
	snap := sampleSnapshot()
	for _, raw := range []string{"name.first", "tags.name", "items[9].sku", "items[-1]", "missing[0]", "name[0]"} {
		if value, ok := Get(snap, MustParse(raw)); ok {
			t.Fatalf("expected %q to be absent, got %v", raw, value)
		}
	}
	if value, ok := Get(snap, MustParse("note")); !ok || value != nil {
		t.Fatalf("expected explicit null to be present, got %v %v", value, ok)
	}
}

func TestResolveUsesLogicalMarkers(t *testing.T) {
	snap := sampleSnapshot()

	storage, ok := Resolve(snap, MustParse("items[3].sku"))
	if !ok {
		t.Fatalf("expected logical index 3 to resolve")
	}
	if storage.String() != "items[2].sku" {
		t.Fatalf("expected storage path items[2].sku, got %q", storage)
	}
	if _, ok := Resolve(snap, MustParse("items[2]")); ok {
		t.Fatalf("expected logical index 2 to be absent")
	}
	value, ok := Lookup(snap, MustParse("items[1].sku"))
	if !ok || value != "B" {
		t.Fatalf("expected unmarked item to resolve by position, got %v", value)
	}
}

func TestSetCreatesIntermediateObjects(t *testing.T) {
	snap := map[string]any{}
	if err := Set(snap, MustParse("meta.owner.name"), "ops"); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := map[string]any{"meta": map[string]any{"owner": map[string]any{"name": "ops"}}}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	err := Set(snap, MustParse("list[0].name"), "x")
	if !errors.Is(err, ErrPathResolution) {
		t.Fatalf("expected ErrPathResolution for missing array, got %v", err)
	}
}

func TestAppendAndSplice(t *testing.T) {
	snap := sampleSnapshot()
	original := Clone(snap)

	pos, err := Append(snap, MustParse("tags"), "c")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if pos != 2 {
		t.Fatalf("expected new position 2, got %d", pos)
	}
	if err := Splice(snap, MustParse("tags"), 0); err != nil {
		t.Fatalf("splice: %v", err)
	}
	if diff := cmp.Diff([]any{"b", "c"}, snap["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a", "b"}, original["tags"]); diff != "" {
		t.Fatalf("clone was modified (-want +got):\n%s", diff)
	}

	if _, err := Append(snap, MustParse("fresh"), 1); err != nil {
		t.Fatalf("append to absent array: %v", err)
	}
	if diff := cmp.Diff([]any{1}, snap["fresh"]); diff != "" {
		t.Fatalf("fresh mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkersAndStripping(t *testing.T) {
	items := []any{
		map[string]any{"sku": "A"},
		map[string]any{"sku": "B", MarkerKey: 7.0},
		"plain",
	}
	if got := HighestIndex(items); got != 7 {
		t.Fatalf("expected highest index 7, got %d", got)
	}
	StampArray(items)
	if idx, ok := LogicalIndex(items[0]); !ok || idx != 0 {
		t.Fatalf("expected item 0 stamped with 0, got %d %v", idx, ok)
	}
	if idx, _ := LogicalIndex(items[1]); idx != 7 {
		t.Fatalf("expected existing marker to survive, got %d", idx)
	}

	nested := map[string]any{
		"_id":     "db-1",
		MarkerKey: 2,
		"parts":   []any{map[string]any{MarkerKey: 0, "_id": "db-2", "sku": "p"}},
	}
	StripMarkers(nested, "_id")
	want := map[string]any{"parts": []any{map[string]any{"sku": "p"}}}
	if diff := cmp.Diff(want, nested); diff != "" {
		t.Fatalf("strip mismatch (-want +got):\n%s", diff)
	}
}
