package schema

import "sort"

// Primitive and structural type names understood by the resolver.
const (
	TypeString   = "string"
	TypeNumber   = "number"
	TypeInteger  = "integer"
	TypeInt32    = "int32"
	TypeInt64    = "int64"
	TypeFloat    = "float"
	TypeBoolean  = "boolean"
	TypeEnum     = "enum"
	TypeDateTime = "date_time"
	TypeObject   = "object"
	TypeArray    = "array"
)

// Schema is a single node of a schema document: a named definition, a
// property, or an array item description. Policy pointers stay nil when the
// document does not mention the flag so inheritance can tell "unset" from
// "false".
type Schema struct {
	Ref            string
	Type           string
	Format         string
	Title          string
	Help           string
	Description    string
	Default        any
	Enum           []any
	Required       []string
	Properties     map[string]Schema
	Order          []string
	Items          *Schema
	UnderlyingType string
	AutoComplete   string

	ReadOnlyAfterCreate *bool
	ServerPopulated     *bool
	UIUpdateOnly        *bool
	Hidden              *bool
	Button              *bool
}

// PropertyNames lists properties in document order. Properties missing from
// Order (documents built programmatically) follow in lexical order.
func (s Schema) PropertyNames() []string {
	if len(s.Properties) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Properties))
	seen := make(map[string]struct{}, len(s.Properties))
	for _, name := range s.Order {
		if _, ok := s.Properties[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	var rest []string
	for name := range s.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// IsRequired reports whether name is listed in the required set.
func (s Schema) IsRequired(name string) bool {
	for _, item := range s.Required {
		if item == name {
			return true
		}
	}
	return false
}

// IsObject reports whether the schema describes an object with properties.
func (s Schema) IsObject() bool {
	return len(s.Properties) > 0 || (s.Type == TypeObject && s.Items == nil && s.Ref == "")
}

// IsPrimitive reports whether typ names a leaf type.
func IsPrimitive(typ string) bool {
	switch typ {
	case TypeString, TypeNumber, TypeInteger, TypeInt32, TypeInt64, TypeFloat,
		TypeBoolean, TypeEnum, TypeDateTime:
		return true
	default:
		return false
	}
}

// ElementType collapses the numeric variants into number, mirroring how array
// elements are edited.
func ElementType(typ string) string {
	switch typ {
	case TypeInteger, TypeInt32, TypeInt64, TypeFloat:
		return TypeNumber
	default:
		return typ
	}
}

// Policy holds the effective update-policy flags of a node after defaults and
// inheritance were applied. The zero value is the default for absent flags.
type Policy struct {
	ReadOnlyAfterCreate bool
	ServerPopulated     bool
	UIUpdateOnly        bool
	Hidden              bool
	Button              bool
	AutoComplete        string
}

// Policy derives the effective flags of s. Read-only-after-create,
// server-populated, ui-only and autocomplete inherit from parent unless s sets
// them; hidden and button apply to s alone.
func (s Schema) Policy(parent Policy) Policy {
	out := Policy{
		ReadOnlyAfterCreate: pick(s.ReadOnlyAfterCreate, parent.ReadOnlyAfterCreate),
		ServerPopulated:     pick(s.ServerPopulated, parent.ServerPopulated),
		UIUpdateOnly:        pick(s.UIUpdateOnly, parent.UIUpdateOnly),
		Hidden:              pick(s.Hidden, false),
		Button:              pick(s.Button, false),
		AutoComplete:        s.AutoComplete,
	}
	if out.AutoComplete == "" {
		out.AutoComplete = parent.AutoComplete
	}
	return out
}

func pick(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// Bool returns a pointer to v. Handy when building schemas in code.
func Bool(v bool) *bool {
	return &v
}
