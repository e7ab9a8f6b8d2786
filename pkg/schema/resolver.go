package schema

import (
	"errors"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-datatree/pkg/datapath"
)

const defaultMaxRefDepth = 64

// Kind is the closed set of node shapes the tree builder understands. The
// resolver classifies every property once; the builder switches on the result.
type Kind int

const (
	KindPrimitive Kind = iota
	KindObject
	KindObjectMap
	KindArrayOfObjects
	KindArrayOfPrimitives
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindObjectMap:
		return "object-map"
	case KindArrayOfObjects:
		return "array-of-objects"
	case KindArrayOfPrimitives:
		return "array-of-primitives"
	default:
		return "unknown"
	}
}

// IsArray reports whether the kind describes an array container.
func (k Kind) IsArray() bool {
	return k == KindArrayOfObjects || k == KindArrayOfPrimitives
}

// Resolved is a classified schema node with references followed and
// presentation metadata extracted.
type Resolved struct {
	Kind   Kind
	Schema Schema
	// Item is the element schema for arrays and the member shape for
	// object maps.
	Item *Schema
	// ItemRef is the reference the item schema was loaded from, when any. Add
	// uses it to synthesise new elements.
	ItemRef string
	// Type is the leaf type for primitives and the element type for arrays of
	// primitives.
	Type   string
	Enum   []any
	Title  string
	Help   string
	Policy Policy
}

// Shape returns the schema whose properties describe the children of an
// object or object-map node.
func (r Resolved) Shape() Schema {
	if r.Kind == KindObjectMap && r.Item != nil {
		return *r.Item
	}
	return r.Schema
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHelpSanitizer toggles stripping markup from help and title text.
// Enabled by default.
func WithHelpSanitizer(enabled bool) Option {
	return func(r *Resolver) {
		r.sanitize = enabled
	}
}

// WithMaxRefDepth caps the length of reference chains.
func WithMaxRefDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// Resolver follows references inside a Document and classifies schema nodes.
type Resolver struct {
	doc      *Document
	sanitize bool
	maxDepth int
}

// NewResolver constructs a resolver over doc.
func NewResolver(doc *Document, options ...Option) *Resolver {
	r := &Resolver{doc: doc, sanitize: true, maxDepth: defaultMaxRefDepth}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Document returns the underlying schema document.
func (r *Resolver) Document() *Document {
	if r == nil {
		return nil
	}
	return r.doc
}

// Resolve returns the definition a reference points to, following alias
// chains. Accepted forms are `#/Name` and `#/group/Name`.
func (r *Resolver) Resolve(ref string) (Schema, error) {
	if r == nil || r.doc == nil {
		return Schema{}, &SchemaError{Ref: ref, Reason: "document is nil"}
	}
	current := strings.TrimSpace(ref)
	for depth := 0; depth <= r.maxDepth; depth++ {
		if !strings.HasPrefix(current, "#/") || len(current) == 2 {
			return Schema{}, &SchemaError{Ref: ref, Reason: "malformed reference"}
		}
		def, ok := r.doc.Definition(strings.TrimPrefix(current, "#/"))
		if !ok {
			return Schema{}, &SchemaError{Ref: ref, Reason: "dangling reference"}
		}
		if def.Ref == "" || def.Type != "" || len(def.Properties) > 0 {
			return def, nil
		}
		current = strings.TrimSpace(def.Ref)
	}
	return Schema{}, &SchemaError{Ref: ref, Reason: "reference chain too deep"}
}

// Root returns the named definition classified as the tree root.
func (r *Resolver) Root(name string) (Resolved, error) {
	if r == nil || r.doc == nil {
		return Resolved{}, &SchemaError{Path: name, Reason: "document is nil"}
	}
	def, ok := r.doc.Definition(name)
	if !ok {
		return Resolved{}, &SchemaError{Path: name, Reason: "unknown root definition"}
	}
	if def.Ref != "" && len(def.Properties) == 0 {
		target, err := r.Resolve(def.Ref)
		if err != nil {
			return Resolved{}, err
		}
		def = overlay(target, def)
	}
	if !def.IsObject() {
		return Resolved{}, &SchemaError{Path: name, Reason: "root definition is not an object"}
	}
	return Resolved{
		Kind:   KindObject,
		Schema: def,
		Title:  r.text(firstNonEmpty(def.Title, name)),
		Help:   r.text(def.Help),
		Policy: def.Policy(Policy{}),
	}, nil
}

// Classify resolves prop into one of the Kind variants. parent carries the
// effective policy of the enclosing node for inheritance.
func (r *Resolver) Classify(prop Schema, parent Policy) (Resolved, error) {
	switch {
	case IsPrimitive(prop.Type):
		return r.classifyPrimitive(prop, parent)
	case prop.Type == TypeArray:
		return r.classifyArray(prop, parent)
	case prop.Type == TypeObject || prop.Type == "":
		return r.classifyObject(prop, parent)
	default:
		return Resolved{}, &SchemaError{Ref: prop.Ref, Reason: "unsupported type " + prop.Type}
	}
}

func (r *Resolver) classifyPrimitive(prop Schema, parent Policy) (Resolved, error) {
	out := Resolved{
		Kind:   KindPrimitive,
		Schema: prop,
		Type:   prop.Type,
		Title:  r.text(prop.Title),
		Help:   r.text(prop.Help),
		Policy: prop.Policy(parent),
	}
	if prop.Type == TypeEnum || len(prop.Enum) > 0 {
		values, err := r.EnumValues(prop)
		if err != nil {
			return Resolved{}, err
		}
		out.Enum = values
	}
	return out, nil
}

func (r *Resolver) classifyObject(prop Schema, parent Policy) (Resolved, error) {
	if prop.Items != nil {
		item, ref, err := r.deref(*prop.Items)
		if err != nil {
			return Resolved{}, err
		}
		if !item.IsObject() {
			return Resolved{}, &SchemaError{Ref: ref, Reason: "object items do not describe an object"}
		}
		policy := prop.Policy(parent)
		return Resolved{
			Kind:    KindObjectMap,
			Schema:  prop,
			Item:    &item,
			ItemRef: ref,
			Type:    TypeObject,
			Title:   r.text(firstNonEmpty(prop.Title, item.Title)),
			Help:    r.text(firstNonEmpty(prop.Help, item.Help)),
			Policy:  item.Policy(policy),
		}, nil
	}

	if prop.Ref == "" && len(prop.Properties) == 0 && prop.Type == "" {
		return Resolved{}, &SchemaError{Reason: "missing type"}
	}
	shape := prop
	if prop.Ref != "" && len(prop.Properties) == 0 {
		target, err := r.Resolve(prop.Ref)
		if err != nil {
			return Resolved{}, err
		}
		if IsPrimitive(target.Type) || len(target.Enum) > 0 {
			// A bare reference to an enum or scalar definition is a leaf.
			leaf := overlay(target, prop)
			if leaf.Type == "" {
				leaf.Type = TypeEnum
			}
			return r.classifyPrimitive(leaf, parent)
		}
		if target.Type == TypeArray {
			return r.classifyArray(overlay(target, prop), parent)
		}
		shape = overlay(target, prop)
	}
	if !shape.IsObject() {
		return Resolved{}, &SchemaError{Ref: prop.Ref, Reason: "reference does not describe an object"}
	}
	return Resolved{
		Kind:   KindObject,
		Schema: shape,
		Type:   TypeObject,
		Title:  r.text(shape.Title),
		Help:   r.text(shape.Help),
		Policy: shape.Policy(parent),
	}, nil
}

func (r *Resolver) classifyArray(prop Schema, parent Policy) (Resolved, error) {
	policy := prop.Policy(parent)
	out := Resolved{
		Schema: prop,
		Title:  r.text(prop.Title),
		Help:   r.text(prop.Help),
		Policy: policy,
	}

	if prop.Items == nil {
		if !IsPrimitive(prop.UnderlyingType) {
			return Resolved{}, &SchemaError{Reason: "array without items"}
		}
		out.Kind = KindArrayOfPrimitives
		out.Type = ElementType(prop.UnderlyingType)
		return out, nil
	}

	item, ref, err := r.deref(*prop.Items)
	if err != nil {
		return Resolved{}, err
	}
	out.ItemRef = ref

	switch {
	case item.IsObject() && !IsPrimitive(item.Type):
		out.Kind = KindArrayOfObjects
		out.Item = &item
		out.Type = TypeObject
		if out.Title == "" {
			out.Title = r.text(item.Title)
		}
	case len(item.Enum) > 0 || item.Type == TypeEnum || prop.UnderlyingType == TypeEnum:
		out.Kind = KindArrayOfPrimitives
		out.Item = &item
		out.Type = TypeEnum
		values, err := r.EnumValues(Schema{Type: TypeEnum, Enum: item.Enum, Ref: ref})
		if err != nil {
			return Resolved{}, err
		}
		out.Enum = values
	case IsPrimitive(item.Type):
		out.Kind = KindArrayOfPrimitives
		out.Item = &item
		out.Type = ElementType(item.Type)
	case IsPrimitive(prop.UnderlyingType):
		out.Kind = KindArrayOfPrimitives
		out.Item = &item
		out.Type = ElementType(prop.UnderlyingType)
	default:
		return Resolved{}, &SchemaError{Ref: ref, Reason: "array items are neither objects nor primitives"}
	}
	return out, nil
}

// Element classifies the item of an array node. Items of an array of objects
// are objects; items of an array of primitives are leaves of the element type.
func (r *Resolver) Element(array Resolved) (Resolved, error) {
	switch array.Kind {
	case KindArrayOfObjects:
		if array.Item == nil {
			return Resolved{}, &SchemaError{Ref: array.ItemRef, Reason: "array item schema missing"}
		}
		item := *array.Item
		return Resolved{
			Kind:    KindObject,
			Schema:  item,
			ItemRef: array.ItemRef,
			Type:    TypeObject,
			Title:   r.text(item.Title),
			Help:    r.text(item.Help),
			Policy:  item.Policy(array.Policy),
		}, nil
	case KindArrayOfPrimitives:
		leaf := Schema{Type: array.Type, Enum: array.Enum}
		if array.Item != nil {
			leaf.Title = array.Item.Title
			leaf.Help = array.Item.Help
		}
		return Resolved{
			Kind:   KindPrimitive,
			Schema: leaf,
			Type:   array.Type,
			Enum:   append([]any(nil), array.Enum...),
			Title:  r.text(leaf.Title),
			Help:   r.text(leaf.Help),
			Policy: leaf.Policy(array.Policy),
		}, nil
	default:
		return Resolved{}, &SchemaError{Reason: "node is not an array"}
	}
}

// At walks from the named root definition along a logical path and returns
// the classified node found there. Key segments select properties, item
// segments select array elements regardless of their index.
func (r *Resolver) At(root string, p datapath.Path) (Resolved, error) {
	current, err := r.Root(root)
	if err != nil {
		return Resolved{}, err
	}
	for i, seg := range p {
		if seg.Item {
			if !current.Kind.IsArray() {
				return Resolved{}, &SchemaError{Path: p[:i+1].String(), Reason: "indexed segment on a non-array node"}
			}
			if current, err = r.Element(current); err != nil {
				return Resolved{}, err
			}
			continue
		}
		if current.Kind != KindObject && current.Kind != KindObjectMap {
			return Resolved{}, &SchemaError{Path: p[:i+1].String(), Reason: "property of a non-object node"}
		}
		prop, ok := current.Shape().Properties[seg.Key]
		if !ok {
			return Resolved{}, &SchemaError{Path: p[:i+1].String(), Reason: "unknown property"}
		}
		if current, err = r.Classify(prop, current.Policy); err != nil {
			var se *SchemaError
			if errors.As(err, &se) && se.Path == "" {
				se.Path = p[:i+1].String()
			}
			return Resolved{}, err
		}
	}
	return current, nil
}

// EnumValues resolves the options of an enumeration: listed directly, through
// `$ref` to an enum definition, or through `items.$ref`.
func (r *Resolver) EnumValues(prop Schema) ([]any, error) {
	if len(prop.Enum) > 0 {
		return append([]any(nil), prop.Enum...), nil
	}
	for _, ref := range []string{prop.Ref, itemRef(prop)} {
		if ref == "" {
			continue
		}
		target, err := r.Resolve(ref)
		if err != nil {
			return nil, err
		}
		if len(target.Enum) > 0 {
			return append([]any(nil), target.Enum...), nil
		}
	}
	return nil, &SchemaError{Ref: prop.Ref, Reason: "enumeration without values"}
}

// Options resolves the autocomplete option list for a leaf named name. The
// policy's AutoComplete spec is a comma separated list of `field:List` pairs;
// a bare `List` applies to every field.
func (r *Resolver) Options(name string, policy Policy) ([]any, bool) {
	if r == nil || r.doc == nil || strings.TrimSpace(policy.AutoComplete) == "" {
		return nil, false
	}
	for _, entry := range strings.Split(policy.AutoComplete, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		field, list, found := strings.Cut(entry, ":")
		if !found {
			list, field = field, ""
		}
		if field != "" && strings.TrimSpace(field) != name {
			continue
		}
		if values, ok := r.doc.Options(strings.TrimSpace(list)); ok {
			return append([]any(nil), values...), true
		}
	}
	return nil, false
}

func (r *Resolver) deref(s Schema) (Schema, string, error) {
	if s.Ref == "" || len(s.Properties) > 0 {
		return s, "", nil
	}
	target, err := r.Resolve(s.Ref)
	if err != nil {
		return Schema{}, s.Ref, err
	}
	return overlay(target, s), s.Ref, nil
}

func (r *Resolver) text(raw string) string {
	if raw == "" || !r.sanitize {
		return raw
	}
	cleaned := strings.TrimSpace(textSanitizer().Sanitize(raw))
	return html.UnescapeString(cleaned)
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// overlay layers the locally declared fields of local over the referenced
// definition target. Local title, help and policy flags win.
func overlay(target, local Schema) Schema {
	out := target
	out.Ref = ""
	if local.Type != "" && local.Type != TypeObject {
		out.Type = local.Type
	}
	if local.Title != "" {
		out.Title = local.Title
	}
	if local.Help != "" {
		out.Help = local.Help
	}
	if local.Description != "" {
		out.Description = local.Description
	}
	if local.Default != nil {
		out.Default = local.Default
	}
	if len(local.Enum) > 0 {
		out.Enum = local.Enum
	}
	if local.UnderlyingType != "" {
		out.UnderlyingType = local.UnderlyingType
	}
	if local.AutoComplete != "" {
		out.AutoComplete = local.AutoComplete
	}
	if local.ReadOnlyAfterCreate != nil {
		out.ReadOnlyAfterCreate = local.ReadOnlyAfterCreate
	}
	if local.ServerPopulated != nil {
		out.ServerPopulated = local.ServerPopulated
	}
	if local.UIUpdateOnly != nil {
		out.UIUpdateOnly = local.UIUpdateOnly
	}
	if local.Hidden != nil {
		out.Hidden = local.Hidden
	}
	if local.Button != nil {
		out.Button = local.Button
	}
	return out
}

func itemRef(s Schema) string {
	if s.Items == nil {
		return ""
	}
	return s.Items.Ref
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
