// Package mutation implements the structural edits of a data tree: Add,
// Remove and Duplicate on arrays, plus the open and page toggles.
//
// Every operation is copy-on-write. The snapshot passed in is never modified;
// callers receive a fresh working snapshot and a session delta, and must
// rebuild the tree from them before issuing the next operation.
package mutation

import (
	"errors"

	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/tree"
)

// DefaultIdentityKeys are the record identifiers Duplicate strips so the copy
// persists as a new record.
var DefaultIdentityKeys = []string{"_id"}

// Input is the state an operation reads. Session is consulted, never written.
type Input struct {
	Resolver *schema.Resolver
	Root     string
	Baseline map[string]any
	Working  map[string]any
	Session  *session.Session
	PageSize int
	// IdentityKeys overrides DefaultIdentityKeys when non-nil.
	IdentityKeys []string
}

// Outcome is the result of an operation. Path is the logical path of the item
// that was created or removed. Noop operations return the input snapshot.
type Outcome struct {
	Working map[string]any
	Delta   session.Delta
	Path    datapath.Path
	Noop    bool
}

func (in Input) pageSize() int {
	if in.PageSize <= 0 {
		return tree.DefaultPageSize
	}
	return in.PageSize
}

func (in Input) identityKeys() []string {
	if in.IdentityKeys == nil {
		return DefaultIdentityKeys
	}
	return in.IdentityKeys
}

func (in Input) noop() Outcome {
	return Outcome{Working: in.Working, Delta: session.NewDelta(), Noop: true}
}

func (in Input) array(op string, container datapath.Path) (schema.Resolved, error) {
	if in.Resolver == nil {
		return schema.Resolved{}, invalid(op, container.String(), "resolver is required", nil)
	}
	resolved, err := in.Resolver.At(in.Root, container)
	if err != nil {
		return schema.Resolved{}, invalid(op, container.String(), "path does not resolve to a schema node", err)
	}
	if !resolved.Kind.IsArray() {
		return schema.Resolved{}, invalid(op, container.String(), "target is "+resolved.Kind.String()+", not an array", nil)
	}
	return resolved, nil
}

// Add appends a defaulted element to the array at container. itemRef, when
// set, overrides the element type declared by the schema. An absent array is
// initialised. A container below an array item that no longer exists is a
// no-op.
func Add(in Input, container datapath.Path, itemRef string) (Outcome, error) {
	const op = "add"
	resolved, err := in.array(op, container)
	if err != nil {
		return Outcome{}, err
	}
	element, err := in.Resolver.Element(resolved)
	if err != nil {
		return Outcome{}, invalid(op, container.String(), "array element is not resolvable", err)
	}
	switch {
	case schema.IsPrimitive(itemRef):
		element.Schema = schema.Schema{Type: itemRef}
	case itemRef != "":
		element.Schema = schema.Schema{Ref: itemRef}
	}

	working := datapath.Clone(in.Working)
	storage, err := storagePath(working, container)
	if err != nil {
		return in.noop(), nil
	}
	items := datapath.Items(working, storage)
	value := DefaultItem(in.Resolver, element.Schema)

	next := len(items)
	if node, ok := value.(map[string]any); ok {
		datapath.StampArray(items)
		next = nextLogical(datapath.Items(in.Baseline, container), items)
		datapath.Mark(node, next)
	}
	if _, err := datapath.Append(working, storage, value); err != nil {
		return Outcome{}, err
	}

	created := container.Item(next)
	delta := session.NewDelta()
	delta.Visual[created.String()] = session.VisualAdded
	openPath(delta, in.Root, created)
	delta.Pages[container.String()] = in.pageContaining(container, working, storage, next)
	return Outcome{Working: working, Delta: delta, Path: created}, nil
}

// Remove splices the element addressed by item out of its array. Surviving
// siblings keep their logical indices. Removing an element that is already
// gone is a no-op.
func Remove(in Input, item datapath.Path) (Outcome, error) {
	const op = "remove"
	if !item.IsItem() {
		return Outcome{}, invalid(op, item.String(), "not an array item", nil)
	}
	container := item.Parent()
	if _, err := in.array(op, container); err != nil {
		return Outcome{}, err
	}

	working := datapath.Clone(in.Working)
	storage, err := storagePath(working, container)
	if err != nil {
		return in.noop(), nil
	}
	items := datapath.Items(working, storage)
	last, _ := item.Last()
	pos, found := datapath.FindLogical(items, last.Index)
	if !found {
		return in.noop(), nil
	}
	datapath.StampArray(items)
	if err := datapath.Splice(working, storage, pos); err != nil {
		return in.noop(), nil
	}

	delta := session.NewDelta()
	delta.Cleared = append(delta.Cleared, item.String())
	id := container.String()
	total := in.count(container, working, storage)
	delta.Pages[id] = tree.ClampPage(in.Session.Page(id), total, in.pageSize())
	return Outcome{Working: working, Delta: delta, Path: item}, nil
}

// Duplicate appends a deep copy of the element at item. The copy loses its
// logical-index marker and identity keys at every depth and receives a new
// logical index by the same rule as Add.
func Duplicate(in Input, item datapath.Path) (Outcome, error) {
	const op = "duplicate"
	if !item.IsItem() {
		return Outcome{}, invalid(op, item.String(), "not an array item", nil)
	}
	container := item.Parent()
	if _, err := in.array(op, container); err != nil {
		return Outcome{}, err
	}

	working := datapath.Clone(in.Working)
	storage, err := storagePath(working, container)
	if err != nil {
		return in.noop(), nil
	}
	items := datapath.Items(working, storage)
	last, _ := item.Last()
	pos, found := datapath.FindLogical(items, last.Index)
	if !found {
		return in.noop(), nil
	}

	clone := datapath.CloneValue(items[pos])
	next := len(items)
	if node, ok := clone.(map[string]any); ok {
		datapath.StripMarkers(node, in.identityKeys()...)
		datapath.StampArray(items)
		next = nextLogical(datapath.Items(in.Baseline, container), items)
		datapath.Mark(node, next)
	}
	if _, err := datapath.Append(working, storage, clone); err != nil {
		return in.noop(), nil
	}

	created := container.Item(next)
	delta := session.NewDelta()
	delta.Visual[created.String()] = session.VisualDuplicated
	openPath(delta, in.Root, created)
	delta.Pages[container.String()] = in.pageContaining(container, working, storage, next)
	return Outcome{Working: working, Delta: delta, Path: created}, nil
}

// SetOpen records an expand or collapse. It is idempotent.
func SetOpen(in Input, id string, open bool) Outcome {
	delta := session.NewDelta()
	delta.Open[id] = open
	return Outcome{Working: in.Working, Delta: delta}
}

// ChangePage moves the page pointer of the array container id one step in
// dir, clamped to the container's current page count.
func ChangePage(in Input, id string, dir tree.Direction) (Outcome, error) {
	const op = "change page"
	container, err := datapath.Parse(id)
	if err != nil {
		return Outcome{}, invalid(op, id, "malformed container id", err)
	}
	if _, err := in.array(op, container); err != nil {
		return Outcome{}, err
	}
	storage, ok := datapath.Resolve(in.Working, container)
	if !ok {
		storage = nil
	}
	total := in.count(container, in.Working, storage)
	current := tree.ClampPage(in.Session.Page(id), total, in.pageSize())
	next := tree.Step(current, dir, tree.TotalPages(total, in.pageSize()))

	delta := session.NewDelta()
	delta.Pages[id] = next
	return Outcome{Working: in.Working, Delta: delta, Noop: next == current}, nil
}

// nextLogical implements max(baselineLength, highestWorkingIndex+1) so a new
// element never collides with a baseline element that may reappear.
func nextLogical(baseline, working []any) int {
	next := datapath.HighestIndex(working) + 1
	if len(baseline) > next {
		next = len(baseline)
	}
	return next
}

// count returns the size of the reconciled ordering of the container, the set
// pagination windows.
func (in Input) count(container datapath.Path, working map[string]any, storage datapath.Path) int {
	var items []any
	if storage != nil {
		items = datapath.Items(working, storage)
	}
	return len(tree.Reconcile(datapath.Items(in.Baseline, container), items))
}

func (in Input) pageContaining(container datapath.Path, working map[string]any, storage datapath.Path, logical int) int {
	slots := tree.Reconcile(datapath.Items(in.Baseline, container), datapath.Items(working, storage))
	return tree.PageOf(tree.PositionOf(slots, logical), in.pageSize())
}

// openPath forces the root, every ancestor of p and p itself open.
func openPath(delta session.Delta, root string, p datapath.Path) {
	delta.Open[root] = true
	for i := 1; i <= len(p); i++ {
		delta.Open[p[:i].String()] = true
	}
}

// storagePath maps a logical container path to its storage path in working.
// Member segments after the last item segment are copied verbatim so absent
// containers can be created. A missing indexed ancestor is a resolution error.
func storagePath(working map[string]any, logical datapath.Path) (datapath.Path, error) {
	last := -1
	for i, seg := range logical {
		if seg.Item {
			last = i
		}
	}
	if last < 0 {
		return append(datapath.Path(nil), logical...), nil
	}
	prefix, ok := datapath.Resolve(working, logical[:last+1])
	if !ok {
		return nil, &datapath.PathResolutionError{Path: logical.String(), Reason: "indexed ancestor is missing"}
	}
	return append(prefix, logical[last+1:]...), nil
}

// IsValidation reports whether err rejected an operation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
