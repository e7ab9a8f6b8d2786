package schema

import "sort"

// Document is an immutable set of named type definitions. Definitions are
// keyed by their pointer path below the document root: `Order` for `#/Order`
// and `enums/Status` for `#/enums/Status`.
type Document struct {
	definitions  map[string]Schema
	autocomplete map[string][]any
}

// NewDocument wraps definitions. The map is copied so later edits by the
// caller do not leak into a generation pass.
func NewDocument(definitions map[string]Schema) *Document {
	defs := make(map[string]Schema, len(definitions))
	for name, def := range definitions {
		defs[name] = def
	}
	return &Document{definitions: defs, autocomplete: make(map[string][]any)}
}

// WithAutocomplete returns a copy of the document carrying named option lists
// that autocomplete fields draw from.
func (d *Document) WithAutocomplete(lists map[string][]any) *Document {
	if d == nil {
		d = NewDocument(nil)
	}
	out := &Document{definitions: d.definitions, autocomplete: make(map[string][]any, len(d.autocomplete)+len(lists))}
	for name, values := range d.autocomplete {
		out.autocomplete[name] = values
	}
	for name, values := range lists {
		out.autocomplete[name] = append([]any(nil), values...)
	}
	return out
}

// Definition looks up a definition by pointer path.
func (d *Document) Definition(name string) (Schema, bool) {
	if d == nil {
		return Schema{}, false
	}
	def, ok := d.definitions[name]
	return def, ok
}

// Names returns the sorted definition keys.
func (d *Document) Names() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.definitions))
	for name := range d.definitions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Options returns the autocomplete list registered under name.
func (d *Document) Options(name string) ([]any, bool) {
	if d == nil {
		return nil, false
	}
	values, ok := d.autocomplete[name]
	return values, ok
}
