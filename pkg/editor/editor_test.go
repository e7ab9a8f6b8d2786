package editor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/mutation"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/tree"
)

const inventorySchema = `
Inventory:
  type: object
  properties:
    owner:
      type: string
    items:
      type: array
      items:
        $ref: "#/Item"
Item:
  type: object
  properties:
    _id:
      type: string
      server_populated: true
    name:
      type: string
`

func newEditor(t *testing.T, baseline map[string]any, options ...Option) *Editor {
	t.Helper()
	doc, err := schema.Parse([]byte(inventorySchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	e, err := New(doc, "Inventory", baseline, nil, options...)
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	return e
}

func inventory(names ...string) map[string]any {
	items := make([]any, 0, len(names))
	for i, name := range names {
		items = append(items, map[string]any{"_id": "db-" + name, "name": name, "rank": i})
	}
	return map[string]any{"owner": "ops", "items": items}
}

func TestEditorRequiresRegenerationBetweenMutations(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("A", "B"))

	if _, err := e.Remove(ctx, datapath.MustParse("items[0]")); !errors.Is(err, ErrRegenerationRequired) {
		t.Fatalf("expected mutations before the first build to be refused, got %v", err)
	}
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := e.Remove(ctx, datapath.MustParse("items[0]")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := e.Add(ctx, datapath.MustParse("items"), ""); !errors.Is(err, ErrRegenerationRequired) {
		t.Fatalf("expected second mutation to be refused, got %v", err)
	}
	if !e.Stale() {
		t.Fatalf("expected editor to report a stale tree")
	}

	if _, err := e.Rebuild(ctx, datapath.MustParse("items")); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := e.Add(ctx, datapath.MustParse("items"), ""); err != nil {
		t.Fatalf("add after rebuild: %v", err)
	}
}

func TestEditorScenarioRemoveThenRemoveSurvivor(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("A", "B", "C", "D"))
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := e.Remove(ctx, datapath.MustParse("items[2]")); err != nil {
		t.Fatalf("remove C: %v", err)
	}
	result, err := e.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := result.Visual["items[2]"]; got != session.VisualRemoved {
		t.Fatalf("expected items[2] marked for removal, got %s", got)
	}
	if _, err := e.Remove(ctx, datapath.MustParse("items[3]")); err != nil {
		t.Fatalf("remove D: %v", err)
	}

	var names []string
	for _, item := range e.Export()["items"].([]any) {
		names = append(names, item.(map[string]any)["name"].(string))
	}
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorDuplicateTagsOnlyTheCopy(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("A", "B"))
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := e.Duplicate(ctx, datapath.MustParse("items[0]"))
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	result, err := e.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := map[string]session.VisualState{
		"items[2]":      session.VisualDuplicated,
		"items[2].name": session.VisualAdded,
	}
	if diff := cmp.Diff(want, result.Visual); diff != "" {
		t.Fatalf("visual mismatch (-want +got):\n%s", diff)
	}
	copied, ok := datapath.Lookup(e.Working(), out.Path)
	if !ok {
		t.Fatalf("expected copy at %s", out.Path)
	}
	if _, has := copied.(map[string]any)["_id"]; has {
		t.Fatalf("expected copy without record id, got %v", copied)
	}
}

func TestEditorLogsRejectedMutations(t *testing.T) {
	var logs bytes.Buffer
	e := newEditor(t, inventory("A"), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}

	before := e.Working()
	_, err := e.Remove(ctx, datapath.MustParse("owner"))
	if !errors.Is(err, mutation.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e.Stale() {
		t.Fatalf("expected a rejected mutation to leave the tree current")
	}
	if diff := cmp.Diff(before, e.Working()); diff != "" {
		t.Fatalf("rejected mutation changed the snapshot (-before +after):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "mutation rejected") {
		t.Fatalf("expected rejection to be logged, got %q", logs.String())
	}
}

func TestEditorSessionOperations(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("a", "b", "c", "d", "e"), WithPageSize(2), WithMode(tree.ModeView))
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}

	e.SetOpen("items", false)
	e.SetOpen("items", false)
	if e.Session().IsOpen("items") {
		t.Fatalf("expected items collapsed")
	}
	if _, err := e.ChangePage(ctx, "items", tree.DirectionLast); err != nil {
		t.Fatalf("change page: %v", err)
	}
	result, err := e.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	items := result.Find("items")
	if items.Open || items.Pagination == nil || items.Pagination.Page != 2 {
		t.Fatalf("unexpected items container %+v", items)
	}
	if items.Affordances.Add {
		t.Fatalf("expected no affordances in view mode")
	}
}

func TestEditorCommitPromotesWorking(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("A"))
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := e.Add(ctx, datapath.MustParse("items"), ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	e.Commit()
	if !e.Stale() {
		t.Fatalf("expected commit to require a rebuild")
	}
	if items := e.Baseline()["items"].([]any); len(items) != 2 {
		t.Fatalf("expected committed baseline with two items, got %d", len(items))
	}
	result, err := e.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Visual) != 0 {
		t.Fatalf("expected no highlights after commit, got %v", result.Visual)
	}
}

func TestEditorCommitForgetsStateOfRenumberedItems(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, inventory("A", "B", "C"))
	if _, err := e.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := e.Remove(ctx, datapath.MustParse("items[0]")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	e.SetOpen("items[1]", false)
	e.SetOpen("items", false)

	e.Commit()
	if !e.Session().IsOpen("items[1]") {
		t.Fatalf("expected the collapsed flag of B not to carry over to C at items[1]")
	}
	if e.Session().IsOpen("items") {
		t.Fatalf("expected the container flag to survive commit")
	}

	result, err := e.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	c := result.Find("items[1].name")
	if c == nil || c.Value != "C" {
		t.Fatalf("expected C at items[1] after commit, got %+v", c)
	}
}

func TestNewRejectsUnknownRoot(t *testing.T) {
	doc, err := schema.Parse([]byte(inventorySchema))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := New(doc, "Missing", nil, nil); !errors.Is(err, schema.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if _, err := New(nil, "Inventory", nil, nil); err == nil {
		t.Fatalf("expected error without document")
	}
}
