package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-datatree/pkg/tree"
)

// Outline writes an indented text rendering of result. Collapsed containers
// hide their children; highlight tags are appended in braces.
func Outline(w io.Writer, result tree.Result) error {
	var b strings.Builder
	var visit func(nodes []*tree.Node, depth int)
	visit = func(nodes []*tree.Node, depth int) {
		for _, n := range nodes {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(Label(n))
			b.WriteByte('\n')
			if n.Kind == tree.KindContainer && n.Open {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(result.Nodes, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

// Label is the one-line description of a node used by the outline and the
// prompt option lists.
func Label(n *tree.Node) string {
	var b strings.Builder
	switch {
	case n.Template:
		b.WriteString("(empty) ")
		b.WriteString(n.Title)
	case n.Kind == tree.KindContainer:
		if n.Open {
			b.WriteString("[-] ")
		} else {
			b.WriteString("[+] ")
		}
		b.WriteString(n.Title)
		if n.Pagination != nil {
			fmt.Fprintf(&b, " (page %d/%d of %d)", n.Pagination.Page+1, n.Pagination.Pages, n.Pagination.Total)
		}
	default:
		b.WriteString(n.Title)
		b.WriteString(": ")
		b.WriteString(formatValue(n))
		if !n.Editable {
			b.WriteString(" (read-only)")
		}
	}
	if n.Visual != "" {
		fmt.Fprintf(&b, " {%s}", n.Visual)
	}
	fmt.Fprintf(&b, " <%s>", n.ID)
	return b.String()
}

func formatValue(n *tree.Node) string {
	if !n.HasValue || n.Value == nil {
		return "null"
	}
	if s, ok := n.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", n.Value)
}
