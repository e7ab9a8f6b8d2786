package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	openAPISchemaPrefix = "#/components/schemas/"
	extensionNamespace  = "x-datatree"
)

// FromOpenAPI builds a Document from the `components.schemas` section of an
// OpenAPI 3 document. Component references are rewritten to local pointers
// (`#/components/schemas/Order` becomes `#/Order`). Update-policy flags come
// from the `x-datatree` extension; `readOnly` marks a field as server-populated.
func FromOpenAPI(ctx context.Context, raw []byte) (*Document, error) {
	if ctx == nil {
		return nil, errors.New("schema openapi: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("schema openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schema openapi: load document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("schema openapi: document does not define components.schemas")
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make(map[string]Schema, len(names))
	lists := make(map[string][]any)
	for _, name := range names {
		ref := spec.Components.Schemas[name]
		defs[name] = convertOpenAPISchema(ref, true)
		if ref != nil && ref.Value != nil {
			for list, values := range autocompleteFromExtensions(ref.Value.Extensions) {
				lists[list] = values
			}
		}
	}
	return NewDocument(defs).WithAutocomplete(lists), nil
}

func convertOpenAPISchema(ref *openapi3.SchemaRef, top bool) Schema {
	if ref == nil {
		return Schema{}
	}
	// Named components stay references so cycles terminate and the resolver
	// remains the single place that dereferences them.
	if !top && ref.Ref != "" {
		return Schema{Ref: localRef(ref.Ref)}
	}
	src := ref.Value
	if src == nil {
		return Schema{Ref: localRef(ref.Ref)}
	}

	out := Schema{
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Help:        src.Description,
		Description: src.Description,
		Default:     src.Default,
	}
	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}
	if len(src.Required) > 0 {
		out.Required = append([]string(nil), src.Required...)
	}
	if len(src.Properties) > 0 {
		out.Properties = make(map[string]Schema, len(src.Properties))
		for name, prop := range src.Properties {
			out.Properties[name] = convertOpenAPISchema(prop, false)
			out.Order = append(out.Order, name)
		}
		sort.Strings(out.Order)
	}
	if src.Items != nil {
		item := convertOpenAPISchema(src.Items, false)
		out.Items = &item
	}
	if out.Type == TypeString && src.Format == "date-time" {
		out.Type = TypeDateTime
	}
	if src.ReadOnly {
		out.ServerPopulated = Bool(true)
	}
	applyExtensionPolicy(&out, src.Extensions)
	return out
}

func localRef(ref string) string {
	if strings.HasPrefix(ref, openAPISchemaPrefix) {
		return "#/" + strings.TrimPrefix(ref, openAPISchemaPrefix)
	}
	return ref
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}

func applyExtensionPolicy(target *Schema, ext map[string]any) {
	raw, ok := ext[extensionNamespace].(map[string]any)
	if !ok || len(raw) == 0 {
		return
	}
	for key, value := range raw {
		switch key {
		case "read_only_after_create", "orm_no_update":
			target.ReadOnlyAfterCreate = Bool(true)
		case "server_populated", "server_populate":
			target.ServerPopulated = extensionFlag(value)
		case "ui_update_only":
			target.UIUpdateOnly = extensionFlag(value)
		case "hidden", "hide":
			target.Hidden = extensionFlag(value)
		case "button":
			target.Button = extensionFlag(value)
		case "help":
			if str, ok := value.(string); ok && str != "" {
				target.Help = str
			}
		case "underlying_type":
			if str, ok := value.(string); ok {
				target.UnderlyingType = str
			}
		case "auto_complete":
			if str, ok := value.(string); ok {
				target.AutoComplete = str
			}
		case "type":
			// Allows `type: string` plus `x-datatree.type: enum` to opt into
			// option-list editing.
			if str, ok := value.(string); ok && IsPrimitive(str) {
				target.Type = str
			}
		}
	}
}

func autocompleteFromExtensions(ext map[string]any) map[string][]any {
	raw, ok := ext[extensionNamespace].(map[string]any)
	if !ok {
		return nil
	}
	lists, ok := raw[autocompleteKey].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]any, len(lists))
	for name, value := range lists {
		if values, ok := value.([]any); ok {
			out[name] = append([]any(nil), values...)
		}
	}
	return out
}

func extensionFlag(value any) *bool {
	switch v := value.(type) {
	case bool:
		return Bool(v)
	case string:
		return Bool(v != "" && !strings.EqualFold(v, "false"))
	case nil:
		return nil
	default:
		return Bool(true)
	}
}
