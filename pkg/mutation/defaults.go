package mutation

import (
	"github.com/goliatone/go-datatree/pkg/schema"
)

const maxDefaultDepth = 16

// DefaultItem synthesises a new element for s: primitives are null, enums take
// their first value, objects are defaulted property by property and arrays
// start empty. Recursion through self-referencing object types stops at a
// fixed depth with a null member.
func DefaultItem(resolver *schema.Resolver, s schema.Schema) any {
	return defaultValue(resolver, s, 0)
}

func defaultValue(resolver *schema.Resolver, s schema.Schema, depth int) any {
	if depth > maxDefaultDepth {
		return nil
	}
	resolved, err := resolver.Classify(s, schema.Policy{})
	if err != nil {
		return nil
	}
	switch resolved.Kind {
	case schema.KindPrimitive:
		if len(resolved.Enum) > 0 {
			return resolved.Enum[0]
		}
		return nil
	case schema.KindArrayOfObjects, schema.KindArrayOfPrimitives:
		return []any{}
	default:
		shape := resolved.Shape()
		out := make(map[string]any, len(shape.Properties))
		for _, name := range shape.PropertyNames() {
			out[name] = defaultValue(resolver, shape.Properties[name], depth+1)
		}
		return out
	}
}
