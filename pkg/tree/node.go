package tree

import (
	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
)

// Mode selects between read-only display and editing.
type Mode int

const (
	ModeView Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "view"
}

// NodeKind distinguishes containers from leaves.
type NodeKind int

const (
	KindContainer NodeKind = iota
	KindLeaf
)

func (k NodeKind) String() string {
	if k == KindLeaf {
		return "leaf"
	}
	return "container"
}

// Edit is the payload a renderer hands to a leaf handler.
type Edit struct {
	ID    string
	Path  datapath.Path
	Value any
}

// Handler receives leaf edits. The tree only attaches handlers; the renderer
// invokes them.
type Handler func(Edit)

// HandlerKind names the handler slot a leaf is wired to.
type HandlerKind string

const (
	HandlerNone         HandlerKind = ""
	HandlerText         HandlerKind = "text"
	HandlerOption       HandlerKind = "option"
	HandlerBoolean      HandlerKind = "boolean"
	HandlerDate         HandlerKind = "date"
	HandlerAutocomplete HandlerKind = "autocomplete"
)

// Handlers groups the per-field-kind callbacks attached to leaves.
type Handlers struct {
	TextChanged         Handler
	OptionSelected      Handler
	BooleanToggled      Handler
	DateChanged         Handler
	AutocompleteChanged Handler
}

// For returns the handler registered for kind.
func (h Handlers) For(kind HandlerKind) Handler {
	switch kind {
	case HandlerText:
		return h.TextChanged
	case HandlerOption:
		return h.OptionSelected
	case HandlerBoolean:
		return h.BooleanToggled
	case HandlerDate:
		return h.DateChanged
	case HandlerAutocomplete:
		return h.AutocompleteChanged
	default:
		return nil
	}
}

// Affordances lists the structural edits a renderer may offer on a node.
type Affordances struct {
	Add       bool
	Remove    bool
	Duplicate bool
}

// Node is a produced tree element. ID is the logical path of the element (the
// root definition name for the root container) and stays stable while array
// positions shift.
type Node struct {
	ID          string
	Kind        NodeKind
	Shape       schema.Kind
	Name        string
	Title       string
	Help        string
	Type        string
	LogicalPath datapath.Path
	StoragePath datapath.Path
	// Ref is the item type reference of array containers and templates.
	Ref      string
	Required bool
	Editable bool
	Open     bool
	// Template marks the placeholder item emitted under an empty array of
	// objects. Its logical path ends in index -1.
	Template bool

	Value         any
	HasValue      bool
	BaselineValue any
	Options       []any
	Handler       Handler
	HandlerKind   HandlerKind

	Change      Change
	Visual      session.VisualState
	Affordances Affordances
	Pagination  *Pagination
	Children    []*Node
}

// IsArray reports whether the node is an array container.
func (n *Node) IsArray() bool {
	return n != nil && n.Kind == KindContainer && n.Shape.IsArray()
}

// Result is the output of a build pass.
type Result struct {
	// Nodes holds the root container, or the subtree node on a partial
	// rebuild. It is empty when the subtree no longer exists.
	Nodes  []*Node
	Visual map[string]session.VisualState
	Pages  map[string]Pagination
}

// Walk visits nodes depth first in child order. Returning false from fn skips
// the node's children.
func (r Result) Walk(fn func(*Node) bool) {
	var visit func([]*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				visit(n.Children)
			}
		}
	}
	visit(r.Nodes)
}

// Find returns the node with the given ID.
func (r Result) Find(id string) *Node {
	var found *Node
	r.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Context carries everything a build pass reads.
type Context struct {
	Working  map[string]any
	Baseline map[string]any
	Mode     Mode
	// Subtree restricts the pass to one logical path and its ancestors.
	Subtree    datapath.Path
	Session    *session.Session
	Handlers   Handlers
	PageSize   int
	HideHidden bool
}
