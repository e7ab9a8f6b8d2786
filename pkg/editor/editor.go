package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/mutation"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/tree"
)

// ErrRegenerationRequired rejects a mutation issued before the tree was
// rebuilt from the previous mutation's snapshot.
var ErrRegenerationRequired = errors.New("editor: regenerate the tree before the next mutation")

// Editor is the caller-facing coordinator. It is not safe for concurrent use.
type Editor struct {
	root            string
	resolver        *schema.Resolver
	builder         *tree.Builder
	resolverOptions []schema.Option

	baseline map[string]any
	working  map[string]any
	session  *session.Session

	mode         tree.Mode
	pageSize     int
	handlers     tree.Handlers
	hideHidden   bool
	identityKeys []string
	logger       *slog.Logger

	result tree.Result
	stale  bool
}

// New prepares an editor for the root definition named root. The snapshots
// are copied; working defaults to a copy of baseline. Every object array item
// of the working copy is stamped with its logical index so later removals
// cannot shift sibling identities.
func New(doc *schema.Document, root string, baseline, working map[string]any, options ...Option) (*Editor, error) {
	if doc == nil {
		return nil, errors.New("editor: schema document is required")
	}
	if root == "" {
		return nil, errors.New("editor: root definition is required")
	}

	e := &Editor{
		root:     root,
		session:  session.New(),
		mode:     tree.ModeEdit,
		pageSize: tree.DefaultPageSize,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	e.resolver = schema.NewResolver(doc, e.resolverOptions...)
	if _, err := e.resolver.Root(root); err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	e.builder = tree.NewBuilder(e.resolver, tree.WithLogger(e.logger))

	e.baseline = datapath.Clone(baseline)
	if working == nil {
		working = baseline
	}
	e.working = datapath.Clone(working)
	datapath.StampAll(e.working)
	e.stale = true
	return e, nil
}

// Build regenerates the full tree from the current working snapshot.
func (e *Editor) Build(ctx context.Context) (tree.Result, error) {
	return e.build(ctx, nil)
}

// Rebuild regenerates only the subtree at the given logical path and its
// ancestors. It satisfies the regeneration requirement like Build.
func (e *Editor) Rebuild(ctx context.Context, subtree datapath.Path) (tree.Result, error) {
	return e.build(ctx, subtree)
}

func (e *Editor) build(ctx context.Context, subtree datapath.Path) (tree.Result, error) {
	if ctx == nil {
		return tree.Result{}, errors.New("editor: context is required")
	}
	if err := ctx.Err(); err != nil {
		return tree.Result{}, err
	}
	result, err := e.builder.Build(e.root, tree.Context{
		Working:    e.working,
		Baseline:   e.baseline,
		Mode:       e.mode,
		Subtree:    subtree,
		Session:    e.session,
		Handlers:   e.handlers,
		PageSize:   e.pageSize,
		HideHidden: e.hideHidden,
	})
	if err != nil {
		return tree.Result{}, fmt.Errorf("editor: build %s: %w", e.root, err)
	}
	e.result = result
	e.stale = false
	e.logger.Debug("datatree: tree built", "root", e.root, "subtree", subtree.String(), "highlighted", len(result.Visual))
	return result, nil
}

// Add appends a defaulted element to the array at container.
func (e *Editor) Add(ctx context.Context, container datapath.Path, itemRef string) (mutation.Outcome, error) {
	return e.mutate(ctx, "add", container, func(in mutation.Input) (mutation.Outcome, error) {
		return mutation.Add(in, container, itemRef)
	})
}

// Remove splices the element at item out of its array.
func (e *Editor) Remove(ctx context.Context, item datapath.Path) (mutation.Outcome, error) {
	return e.mutate(ctx, "remove", item, func(in mutation.Input) (mutation.Outcome, error) {
		return mutation.Remove(in, item)
	})
}

// Duplicate appends a copy of the element at item.
func (e *Editor) Duplicate(ctx context.Context, item datapath.Path) (mutation.Outcome, error) {
	return e.mutate(ctx, "duplicate", item, func(in mutation.Input) (mutation.Outcome, error) {
		return mutation.Duplicate(in, item)
	})
}

func (e *Editor) mutate(ctx context.Context, op string, path datapath.Path, fn func(mutation.Input) (mutation.Outcome, error)) (mutation.Outcome, error) {
	if ctx == nil {
		return mutation.Outcome{}, errors.New("editor: context is required")
	}
	if err := ctx.Err(); err != nil {
		return mutation.Outcome{}, err
	}
	if e.stale {
		return mutation.Outcome{}, ErrRegenerationRequired
	}

	out, err := fn(e.input())
	if err != nil {
		e.logger.Info("datatree: mutation rejected", "op", op, "path", path.String(), "error", err)
		return mutation.Outcome{}, err
	}
	if out.Noop {
		e.logger.Debug("datatree: mutation had no effect", "op", op, "path", path.String())
		return out, nil
	}
	e.working = out.Working
	e.session.Apply(out.Delta)
	e.stale = true
	return out, nil
}

// SetOpen expands or collapses the node id. It does not touch the working
// snapshot and is allowed at any time.
func (e *Editor) SetOpen(id string, open bool) mutation.Outcome {
	out := mutation.SetOpen(e.input(), id, open)
	e.session.Apply(out.Delta)
	return out
}

// ChangePage moves the page pointer of the array container id.
func (e *Editor) ChangePage(ctx context.Context, id string, dir tree.Direction) (mutation.Outcome, error) {
	if ctx == nil {
		return mutation.Outcome{}, errors.New("editor: context is required")
	}
	if err := ctx.Err(); err != nil {
		return mutation.Outcome{}, err
	}
	out, err := mutation.ChangePage(e.input(), id, dir)
	if err != nil {
		e.logger.Info("datatree: page change rejected", "id", id, "error", err)
		return mutation.Outcome{}, err
	}
	e.session.Apply(out.Delta)
	return out, nil
}

// Commit promotes the working snapshot to the new baseline, typically after
// it was persisted. Highlight tags are dropped, open and page state of items
// whose logical index changes is forgotten, and a rebuild is required.
func (e *Editor) Commit() {
	for _, id := range renumbered(e.baseline, e.working, nil) {
		e.session.Invalidate(id)
	}
	e.baseline = e.Export()
	e.working = datapath.Clone(e.baseline)
	datapath.StampAll(e.working)
	e.session.ClearVisual("")
	e.stale = true
}

// Working returns the current working snapshot, markers included. Callers must
// treat it as read-only.
func (e *Editor) Working() map[string]any {
	return e.working
}

// Baseline returns the baseline snapshot. Callers must treat it as read-only.
func (e *Editor) Baseline() map[string]any {
	return e.baseline
}

// Export returns a copy of the working snapshot with logical-index markers
// removed, ready to persist.
func (e *Editor) Export() map[string]any {
	out := datapath.Clone(e.working)
	datapath.StripMarkers(out)
	return out
}

// Session returns the editor's session.
func (e *Editor) Session() *session.Session {
	return e.session
}

// Result returns the most recent build output.
func (e *Editor) Result() tree.Result {
	return e.result
}

// Stale reports whether a mutation has been applied since the last build.
func (e *Editor) Stale() bool {
	return e.stale
}

// Mode returns the configured mode.
func (e *Editor) Mode() tree.Mode {
	return e.mode
}

func (e *Editor) input() mutation.Input {
	return mutation.Input{
		Resolver:     e.resolver,
		Root:         e.root,
		Baseline:     e.baseline,
		Working:      e.working,
		Session:      e.session,
		PageSize:     e.pageSize,
		IdentityKeys: e.identityKeys,
	}
}

// renumbered lists the logical item paths that address a different record, or
// none at all, once working becomes the baseline and items take their storage
// position as logical index.
func renumbered(baseline, working any, at datapath.Path) []string {
	var out []string
	switch typed := working.(type) {
	case map[string]any:
		base, _ := baseline.(map[string]any)
		for key, child := range typed {
			out = append(out, renumbered(base[key], child, at.Child(key))...)
		}
	case []any:
		baseItems, _ := baseline.([]any)
		for pos, item := range typed {
			logical := datapath.IndexAt(typed, pos)
			if logical != pos {
				out = append(out, at.Item(logical).String(), at.Item(pos).String())
				continue
			}
			var base any
			if pos < len(baseItems) {
				base = baseItems[pos]
			}
			out = append(out, renumbered(base, item, at.Item(pos))...)
		}
		for k := len(typed); k < len(baseItems); k++ {
			out = append(out, at.Item(k).String())
		}
	}
	return out
}
