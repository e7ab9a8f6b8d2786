package main

import (
	"github.com/goccy/go-json"

	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/tree"
)

// nodeView is the serialisable projection of a tree node; handlers are
// reported by kind only.
type nodeView struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Shape       string              `json:"shape"`
	Name        string              `json:"name,omitempty"`
	Title       string              `json:"title,omitempty"`
	Help        string              `json:"help,omitempty"`
	Type        string              `json:"type,omitempty"`
	StoragePath string              `json:"storage_path,omitempty"`
	Ref         string              `json:"ref,omitempty"`
	Required    bool                `json:"required,omitempty"`
	Editable    bool                `json:"editable,omitempty"`
	Open        bool                `json:"open"`
	Template    bool                `json:"template,omitempty"`
	Value       any                 `json:"value,omitempty"`
	Baseline    any                 `json:"baseline,omitempty"`
	Options     []any               `json:"options,omitempty"`
	Handler     string              `json:"handler,omitempty"`
	Change      string              `json:"change"`
	Visual      session.VisualState `json:"visual,omitempty"`
	Affordances *tree.Affordances   `json:"affordances,omitempty"`
	Pagination  *tree.Pagination    `json:"pagination,omitempty"`
	Children    []nodeView          `json:"children,omitempty"`
}

type resultView struct {
	Nodes  []nodeView                     `json:"nodes"`
	Visual map[string]session.VisualState `json:"visual,omitempty"`
	Pages  map[string]tree.Pagination     `json:"pages,omitempty"`
}

func marshalResult(result tree.Result) ([]byte, error) {
	view := resultView{
		Nodes:  viewNodes(result.Nodes),
		Visual: result.Visual,
		Pages:  result.Pages,
	}
	return json.MarshalIndent(view, "", "  ")
}

func viewNodes(nodes []*tree.Node) []nodeView {
	out := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		v := nodeView{
			ID:          n.ID,
			Kind:        n.Kind.String(),
			Shape:       n.Shape.String(),
			Name:        n.Name,
			Title:       n.Title,
			Help:        n.Help,
			Type:        n.Type,
			StoragePath: n.StoragePath.String(),
			Ref:         n.Ref,
			Required:    n.Required,
			Editable:    n.Editable,
			Open:        n.Open,
			Template:    n.Template,
			Value:       n.Value,
			Baseline:    n.BaselineValue,
			Options:     n.Options,
			Handler:     string(n.HandlerKind),
			Change:      n.Change.String(),
			Visual:      n.Visual,
			Pagination:  n.Pagination,
		}
		if n.Affordances != (tree.Affordances{}) {
			aff := n.Affordances
			v.Affordances = &aff
		}
		if len(n.Children) > 0 {
			v.Children = viewNodes(n.Children)
		}
		out = append(out, v)
	}
	return out
}
