package schema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const openAPIDocument = `{
  "openapi": "3.0.0",
  "info": { "title": "Orders", "version": "1.0.0" },
  "paths": {},
  "components": {
    "schemas": {
      "Order": {
        "type": "object",
        "required": ["customer"],
        "x-datatree": { "autocomplete": { "Products": ["widget", "gadget"] } },
        "properties": {
          "id": { "type": "string", "readOnly": true },
          "customer": { "type": "string", "x-datatree": { "read_only_after_create": true } },
          "placed_at": { "type": "string", "format": "date-time" },
          "lines": { "type": "array", "items": { "$ref": "#/components/schemas/Line" } },
          "status": { "$ref": "#/components/schemas/Status" }
        }
      },
      "Line": {
        "type": "object",
        "properties": {
          "sku": { "type": "string", "x-datatree": { "auto_complete": "Products" } },
          "quantity": { "type": "integer" }
        }
      },
      "Status": { "type": "string", "enum": ["draft", "placed"] }
    }
  }
}`

func TestFromOpenAPIConvertsComponents(t *testing.T) {
	doc, err := FromOpenAPI(context.Background(), []byte(openAPIDocument))
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if diff := cmp.Diff([]string{"Line", "Order", "Status"}, doc.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	order, _ := doc.Definition("Order")
	if got := order.Properties["lines"].Items.Ref; got != "#/Line" {
		t.Fatalf("expected rewritten item ref, got %q", got)
	}
	if got := order.Properties["placed_at"].Type; got != TypeDateTime {
		t.Fatalf("expected date_time type, got %q", got)
	}
	if policy := order.Properties["id"].Policy(Policy{}); !policy.ServerPopulated {
		t.Fatalf("expected readOnly to mark id as server populated")
	}
	if policy := order.Properties["customer"].Policy(Policy{}); !policy.ReadOnlyAfterCreate {
		t.Fatalf("expected extension flag on customer")
	}
	if values, ok := doc.Options("Products"); !ok || len(values) != 2 {
		t.Fatalf("expected Products autocomplete list, got %v", values)
	}

	resolver := NewResolver(doc)
	root, err := resolver.Root("Order")
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	status, err := resolver.Classify(root.Schema.Properties["status"], root.Policy)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if diff := cmp.Diff([]any{"draft", "placed"}, status.Enum); diff != "" {
		t.Fatalf("status enum mismatch (-want +got):\n%s", diff)
	}
}

func TestFromOpenAPIRejectsBadInput(t *testing.T) {
	if _, err := FromOpenAPI(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	noComponents := `{"openapi": "3.0.0", "info": {"title": "x", "version": "1"}, "paths": {}}`
	if _, err := FromOpenAPI(context.Background(), []byte(noComponents)); err == nil {
		t.Fatalf("expected error without components")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FromOpenAPI(ctx, []byte(openAPIDocument)); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
