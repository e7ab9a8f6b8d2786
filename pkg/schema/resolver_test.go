package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-datatree/pkg/datapath"
)

func TestResolverResolveFollowsAliases(t *testing.T) {
	resolver := NewResolver(loadFixture(t))

	got, err := resolver.Resolve("#/Alias")
	if err != nil {
		t.Fatalf("resolve alias: %v", err)
	}
	if diff := cmp.Diff([]string{"street", "city"}, got.PropertyNames()); diff != "" {
		t.Fatalf("alias target mismatch (-want +got):\n%s", diff)
	}

	status, err := resolver.Resolve("#/enums/Status")
	if err != nil {
		t.Fatalf("resolve grouped enum: %v", err)
	}
	if status.Type != TypeEnum {
		t.Fatalf("expected enum type, got %q", status.Type)
	}
}

func TestResolverResolveRejectsBadReferences(t *testing.T) {
	cyclic := NewDocument(map[string]Schema{
		"A": {Ref: "#/B"},
		"B": {Ref: "#/A"},
	})
	cases := []struct {
		name string
		doc  *Document
		ref  string
	}{
		{name: "dangling", doc: cyclic, ref: "#/Missing"},
		{name: "malformed", doc: cyclic, ref: "Address"},
		{name: "empty pointer", doc: cyclic, ref: "#/"},
		{name: "cycle", doc: cyclic, ref: "#/A"},
		{name: "nil document", doc: nil, ref: "#/A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewResolver(tc.doc).Resolve(tc.ref)
			if !errors.Is(err, ErrSchema) {
				t.Fatalf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestResolverClassifiesEveryShape(t *testing.T) {
	doc := loadFixture(t)
	resolver := NewResolver(doc)
	root, err := resolver.Root("Order")
	if err != nil {
		t.Fatalf("root: %v", err)
	}

	cases := map[string]struct {
		kind Kind
		typ  string
		enum []any
	}{
		"id":       {kind: KindPrimitive, typ: TypeString},
		"status":   {kind: KindPrimitive, typ: TypeEnum, enum: []any{"draft", "placed", "shipped"}},
		"priority": {kind: KindPrimitive, typ: TypeInt32},
		"lines":    {kind: KindArrayOfObjects, typ: TypeObject},
		"tags":     {kind: KindArrayOfPrimitives, typ: TypeString},
		"labels":   {kind: KindArrayOfPrimitives, typ: TypeEnum, enum: []any{"draft", "placed", "shipped"}},
		"shipping": {kind: KindObject, typ: TypeObject},
		"metadata": {kind: KindObjectMap, typ: TypeObject},
	}
	for name, want := range cases {
		got, err := resolver.Classify(root.Schema.Properties[name], root.Policy)
		if err != nil {
			t.Fatalf("%s: classify: %v", name, err)
		}
		if got.Kind != want.kind || got.Type != want.typ {
			t.Fatalf("%s: expected %s/%s, got %s/%s", name, want.kind, want.typ, got.Kind, got.Type)
		}
		if diff := cmp.Diff(want.enum, got.Enum); diff != "" {
			t.Fatalf("%s: enum mismatch (-want +got):\n%s", name, diff)
		}
	}

	metadata, _ := resolver.Classify(root.Schema.Properties["metadata"], root.Policy)
	if diff := cmp.Diff([]string{"street", "city"}, metadata.Shape().PropertyNames()); diff != "" {
		t.Fatalf("object map shape mismatch (-want +got):\n%s", diff)
	}
	lines, _ := resolver.Classify(root.Schema.Properties["lines"], root.Policy)
	if lines.ItemRef != "#/Line" {
		t.Fatalf("expected item ref #/Line, got %q", lines.ItemRef)
	}
}

func TestResolverCollapsesNumericElementTypes(t *testing.T) {
	resolver := NewResolver(NewDocument(nil))
	for _, typ := range []string{TypeInteger, TypeInt32, TypeInt64, TypeFloat} {
		got, err := resolver.Classify(Schema{Type: TypeArray, Items: &Schema{Type: typ}}, Policy{})
		if err != nil {
			t.Fatalf("%s: classify: %v", typ, err)
		}
		if got.Type != TypeNumber {
			t.Fatalf("%s: expected number element type, got %q", typ, got.Type)
		}
	}

	got, err := resolver.Classify(Schema{Type: TypeArray, UnderlyingType: TypeInt64}, Policy{})
	if err != nil {
		t.Fatalf("underlying type: %v", err)
	}
	if got.Kind != KindArrayOfPrimitives || got.Type != TypeNumber {
		t.Fatalf("expected array of numbers, got %s/%s", got.Kind, got.Type)
	}
}

func TestResolverClassifyReportsMissingTypes(t *testing.T) {
	resolver := NewResolver(NewDocument(nil))
	inputs := []Schema{
		{},
		{Type: "tuple"},
		{Type: TypeArray},
		{Ref: "#/Nowhere"},
		{Type: TypeEnum},
	}
	for _, input := range inputs {
		if _, err := resolver.Classify(input, Policy{}); !errors.Is(err, ErrSchema) {
			t.Fatalf("expected ErrSchema for %+v, got %v", input, err)
		}
	}
}

func TestResolverSanitizesHelpText(t *testing.T) {
	doc := loadFixture(t)

	root, err := NewResolver(doc).Root("Order")
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if root.Help != "Customer order & lines" {
		t.Fatalf("unexpected sanitized help %q", root.Help)
	}

	raw, err := NewResolver(doc, WithHelpSanitizer(false)).Root("Order")
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if raw.Help != "<b>Customer</b> order &amp; lines" {
		t.Fatalf("expected untouched help, got %q", raw.Help)
	}
}

func TestResolverAtWalksLogicalPaths(t *testing.T) {
	resolver := NewResolver(loadFixture(t))

	cases := []struct {
		path string
		kind Kind
		typ  string
	}{
		{path: "", kind: KindObject},
		{path: "lines", kind: KindArrayOfObjects, typ: TypeObject},
		{path: "lines[4]", kind: KindObject, typ: TypeObject},
		{path: "lines[4].quantity", kind: KindPrimitive, typ: TypeInteger},
		{path: "tags[0]", kind: KindPrimitive, typ: TypeString},
		{path: "metadata.city", kind: KindPrimitive, typ: TypeString},
	}
	for _, tc := range cases {
		got, err := resolver.At("Order", datapath.MustParse(tc.path))
		if err != nil {
			t.Fatalf("%q: %v", tc.path, err)
		}
		if got.Kind != tc.kind || got.Type != tc.typ {
			t.Fatalf("%q: expected %s/%q, got %s/%q", tc.path, tc.kind, tc.typ, got.Kind, got.Type)
		}
	}

	for _, bad := range []string{"missing", "customer[0]", "customer.first"} {
		if _, err := resolver.At("Order", datapath.MustParse(bad)); !errors.Is(err, ErrSchema) {
			t.Fatalf("%q: expected ErrSchema, got %v", bad, err)
		}
	}
}

func TestResolverInheritsPolicyIntoChildren(t *testing.T) {
	doc := NewDocument(map[string]Schema{
		"Root": {Type: TypeObject, Properties: map[string]Schema{
			"locked": {Type: TypeObject, ReadOnlyAfterCreate: Bool(true), Properties: map[string]Schema{
				"inner":    {Type: TypeString},
				"override": {Type: TypeString, ReadOnlyAfterCreate: Bool(false)},
			}},
		}},
	})
	resolver := NewResolver(doc)

	inner, err := resolver.At("Root", datapath.MustParse("locked.inner"))
	if err != nil {
		t.Fatalf("inner: %v", err)
	}
	if !inner.Policy.ReadOnlyAfterCreate {
		t.Fatalf("expected inner to inherit read-only-after-create")
	}
	override, err := resolver.At("Root", datapath.MustParse("locked.override"))
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if override.Policy.ReadOnlyAfterCreate {
		t.Fatalf("expected explicit override to win")
	}
}

func TestResolverOptionsReadsAutocompleteLists(t *testing.T) {
	resolver := NewResolver(loadFixture(t))
	leaf, err := resolver.At("Order", datapath.MustParse("lines[0].sku"))
	if err != nil {
		t.Fatalf("sku: %v", err)
	}
	values, ok := resolver.Options("sku", leaf.Policy)
	if !ok {
		t.Fatalf("expected options for sku")
	}
	if diff := cmp.Diff([]any{"widget", "gadget"}, values); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if _, ok := resolver.Options("quantity", leaf.Policy); ok {
		t.Fatalf("expected field-scoped autocomplete to skip other fields")
	}
}
