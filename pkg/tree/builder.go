package tree

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/schema"
	"github.com/goliatone/go-datatree/pkg/session"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger routes skipped-node warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder is the recursive node factory. It is stateless between passes and
// may be reused for any number of builds over the same document.
type Builder struct {
	resolver *schema.Resolver
	logger   *slog.Logger
}

// NewBuilder constructs a builder over resolver.
func NewBuilder(resolver *schema.Resolver, options ...Option) *Builder {
	b := &Builder{
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Build produces the node tree for the root definition named root. Root
// resolution failures are returned; failures below the root skip the
// offending property and are logged at warn level.
func (b *Builder) Build(root string, ctx Context) (Result, error) {
	if b == nil || b.resolver == nil {
		return Result{}, &schema.SchemaError{Path: root, Reason: "builder has no resolver"}
	}
	resolved, err := b.resolver.Root(root)
	if err != nil {
		return Result{}, err
	}
	if ctx.PageSize <= 0 {
		ctx.PageSize = DefaultPageSize
	}

	p := &pass{
		builder: b,
		ctx:     ctx,
		visual:  make(map[string]session.VisualState),
		pages:   make(map[string]Pagination),
	}
	rootNode := &Node{
		ID:       root,
		Kind:     KindContainer,
		Shape:    schema.KindObject,
		Name:     root,
		Title:    resolved.Title,
		Help:     resolved.Help,
		Type:     schema.TypeObject,
		Open:     ctx.Session.IsOpen(root),
		HasValue: ctx.Working != nil,
	}
	rootNode.Children = p.properties(resolved, nil)

	result := Result{Visual: p.visual, Pages: p.pages}
	if len(ctx.Subtree) == 0 {
		result.Nodes = []*Node{rootNode}
		return result, nil
	}

	scope := ctx.Subtree.String()
	for id := range result.Visual {
		if !session.Under(id, scope) {
			delete(result.Visual, id)
		}
	}
	for id := range result.Pages {
		if !session.Under(id, scope) {
			delete(result.Pages, id)
		}
	}
	if found := (Result{Nodes: []*Node{rootNode}}).Find(scope); found != nil {
		result.Nodes = []*Node{found}
	}
	b.logger.Debug("datatree: subtree rebuilt", "root", root, "subtree", scope, "found", len(result.Nodes) > 0)
	return result, nil
}

type pass struct {
	builder *Builder
	ctx     Context
	visual  map[string]session.VisualState
	pages   map[string]Pagination
}

// lookup resolves logical in both snapshots. Working items are found through
// their logical-index markers, and unmarked items by position, so unstamped
// working data reads the same as a raw lookup. A marked item is never read
// at another item's position: a miss there means the item was removed. The
// baseline is addressed positionally because its positions are the logical
// indices.
func (p *pass) lookup(logical datapath.Path) (Lookup, Lookup, datapath.Path) {
	var working Lookup
	storage, ok := datapath.Resolve(p.ctx.Working, logical)
	if ok {
		value, present := datapath.Get(p.ctx.Working, storage)
		working = Lookup{Value: value, Present: present}
	} else {
		storage = nil
	}
	value, present := datapath.Get(p.ctx.Baseline, logical)
	return Lookup{Value: value, Present: present}, working, storage
}

func (p *pass) inScope(logical datapath.Path) bool {
	return len(p.ctx.Subtree) == 0 || logical.Related(p.ctx.Subtree)
}

func (p *pass) editing() bool {
	return p.ctx.Mode == ModeEdit
}

// suppressed applies the visibility rules shared by every node kind.
func (p *pass) suppressed(policy schema.Policy, working Lookup) bool {
	switch {
	case policy.ServerPopulated && p.editing():
		return true
	case policy.Hidden && p.ctx.HideHidden:
		return true
	case policy.UIUpdateOnly && !working.Present:
		return true
	default:
		return false
	}
}

func (p *pass) properties(parent schema.Resolved, logical datapath.Path) []*Node {
	shape := parent.Shape()
	var out []*Node
	for _, name := range shape.PropertyNames() {
		child := logical.Child(name)
		if !p.inScope(child) {
			continue
		}
		prop := shape.Properties[name]
		resolved, err := p.builder.resolver.Classify(prop, parent.Policy)
		if err != nil {
			p.builder.logger.Warn("datatree: skipping property",
				"path", child.String(),
				"ref", prop.Ref,
				"error", err,
			)
			continue
		}
		if node := p.node(name, child, resolved, shape.IsRequired(name)); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func (p *pass) node(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	switch resolved.Kind {
	case schema.KindPrimitive:
		return p.leaf(name, logical, resolved, required)
	case schema.KindObject, schema.KindObjectMap:
		return p.object(name, logical, resolved, required)
	case schema.KindArrayOfObjects:
		return p.objectArray(name, logical, resolved, required)
	case schema.KindArrayOfPrimitives:
		return p.primitiveArray(name, logical, resolved, required)
	default:
		return nil
	}
}

func (p *pass) container(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	id := logical.String()
	return &Node{
		ID:          id,
		Kind:        KindContainer,
		Shape:       resolved.Kind,
		Name:        name,
		Title:       titleOr(resolved.Title, name),
		Help:        resolved.Help,
		Type:        containerType(resolved.Kind),
		LogicalPath: logical,
		Ref:         resolved.ItemRef,
		Required:    required,
		Open:        p.ctx.Session.IsOpen(id),
	}
}

// mark records the change status and highlight of n.
func (p *pass) mark(n *Node, change Change) {
	n.Change = change
	n.Visual = VisualFor(change, p.ctx.Session.Visual(n.ID))
	if n.Visual != session.VisualNone {
		p.visual[n.ID] = n.Visual
	}
}

func (p *pass) object(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	baseline, working, storage := p.lookup(logical)
	if !baseline.Present && !working.Present {
		return nil
	}
	if p.suppressed(resolved.Policy, working) {
		return nil
	}
	n := p.container(name, logical, resolved, required)
	n.StoragePath = storage
	n.HasValue = working.Present
	p.mark(n, Classify(baseline, working, resolved.Policy.ReadOnlyAfterCreate))
	if working.NonNull() || baseline.NonNull() {
		n.Children = p.properties(resolved, logical)
	}
	return n
}

func (p *pass) objectArray(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	baseline, working, storage := p.lookup(logical)
	if p.suppressed(resolved.Policy, working) {
		return nil
	}
	n := p.container(name, logical, resolved, required)
	n.StoragePath = storage
	n.HasValue = working.Present
	change := Classify(baseline, working, resolved.Policy.ReadOnlyAfterCreate)
	p.mark(n, change)
	n.Affordances.Add = p.canAdd(resolved.Policy, change, baseline)

	element, err := p.builder.resolver.Element(resolved)
	if err != nil {
		p.builder.logger.Warn("datatree: skipping array items", "path", n.ID, "ref", resolved.ItemRef, "error", err)
		return n
	}

	baseItems, _ := baseline.Value.([]any)
	workItems, _ := working.Value.([]any)
	if len(baseItems) == 0 && len(workItems) == 0 {
		templatePath := logical.Item(-1)
		if p.inScope(templatePath) {
			n.Children = []*Node{p.template(name, templatePath, element)}
		}
		return n
	}

	slots := p.scopedSlots(logical, Reconcile(baseItems, workItems))
	for _, slot := range p.window(n, slots) {
		if child := p.objectItem(name, logical.Item(slot.Logical), element, slot); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func (p *pass) template(name string, logical datapath.Path, element schema.Resolved) *Node {
	id := logical.String()
	return &Node{
		ID:          id,
		Kind:        KindContainer,
		Shape:       schema.KindObject,
		Name:        name,
		Title:       titleOr(element.Title, name),
		Help:        element.Help,
		Type:        schema.TypeObject,
		LogicalPath: logical,
		Ref:         element.ItemRef,
		Template:    true,
		Open:        p.ctx.Session.IsOpen(id),
	}
}

func (p *pass) objectItem(name string, logical datapath.Path, element schema.Resolved, slot Slot) *Node {
	baseline, working, storage := p.lookup(logical)
	if p.suppressed(element.Policy, working) {
		return nil
	}
	n := p.container(name, logical, element, false)
	n.Shape = schema.KindObject
	n.Type = schema.TypeObject
	n.StoragePath = storage
	n.HasValue = working.Present
	change := Classify(baseline, working, element.Policy.ReadOnlyAfterCreate)
	p.mark(n, change)
	p.itemAffordances(n, element.Policy, change, baseline, slot)
	if working.NonNull() || baseline.NonNull() {
		n.Children = p.properties(element, logical)
	}
	return n
}

func (p *pass) primitiveArray(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	baseline, working, storage := p.lookup(logical)
	if !baseline.Present && !working.Present {
		return nil
	}
	if p.suppressed(resolved.Policy, working) {
		return nil
	}
	n := p.container(name, logical, resolved, required)
	n.StoragePath = storage
	n.HasValue = working.Present
	change := Classify(baseline, working, resolved.Policy.ReadOnlyAfterCreate)
	p.mark(n, change)
	n.Affordances.Add = p.canAdd(resolved.Policy, change, baseline)

	element, err := p.builder.resolver.Element(resolved)
	if err != nil {
		p.builder.logger.Warn("datatree: skipping array items", "path", n.ID, "error", err)
		return n
	}

	baseItems, _ := baseline.Value.([]any)
	items := baseItems
	if working.Present {
		items, _ = working.Value.([]any)
	}
	slots := make([]Slot, 0, len(items))
	for pos := range items {
		slot := Slot{Logical: pos, Storage: -1, Baseline: -1}
		if working.Present {
			slot.Storage, slot.InWorking = pos, true
		}
		if pos < len(baseItems) {
			slot.Baseline, slot.InBaseline = pos, true
		}
		slots = append(slots, slot)
	}
	slots = p.scopedSlots(logical, slots)
	for _, slot := range p.window(n, slots) {
		item := logical.Item(slot.Logical)
		leaf := p.primitiveItem(name, item, element, slot, baseItems, items, storage)
		n.Children = append(n.Children, leaf)
	}
	return n
}

func (p *pass) primitiveItem(name string, logical datapath.Path, element schema.Resolved, slot Slot, baseItems, items []any, storage datapath.Path) *Node {
	var baseline, working Lookup
	if slot.InBaseline {
		baseline = Lookup{Value: baseItems[slot.Baseline], Present: true}
	}
	n := p.newLeaf(name, logical, element, false)
	if slot.InWorking && storage != nil {
		working = Lookup{Value: items[slot.Storage], Present: true}
		n.StoragePath = storage.Item(slot.Storage)
	}
	n.Value, n.HasValue = working.Value, working.Present
	n.BaselineValue = baseline.Value
	n.Editable = p.editing() && !element.Policy.ServerPopulated && !(element.Policy.ReadOnlyAfterCreate && baseline.Present)
	change := Classify(baseline, working, element.Policy.ReadOnlyAfterCreate)
	p.mark(n, change)
	p.itemAffordances(n, element.Policy, change, baseline, slot)
	return n
}

func (p *pass) leaf(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	baseline, working, storage := p.lookup(logical)
	topLevel := len(logical) == 1
	if !topLevel && !baseline.Present && !working.Present {
		return nil
	}
	if p.suppressed(resolved.Policy, working) {
		return nil
	}
	if resolved.Type == schema.TypeBoolean && resolved.Policy.Button && p.editing() {
		return nil
	}

	n := p.newLeaf(name, logical, resolved, required)
	n.StoragePath = storage
	n.Value, n.HasValue = working.Value, working.Present
	n.BaselineValue = baseline.Value
	n.Editable = p.editing() && !resolved.Policy.ServerPopulated && !(resolved.Policy.ReadOnlyAfterCreate && baseline.Present)
	p.mark(n, Classify(baseline, working, resolved.Policy.ReadOnlyAfterCreate))
	return n
}

func (p *pass) newLeaf(name string, logical datapath.Path, resolved schema.Resolved, required bool) *Node {
	n := &Node{
		ID:          logical.String(),
		Kind:        KindLeaf,
		Shape:       schema.KindPrimitive,
		Name:        name,
		Title:       titleOr(resolved.Title, name),
		Help:        resolved.Help,
		Type:        resolved.Type,
		LogicalPath: logical,
		Required:    required,
		Options:     resolved.Enum,
	}
	kind := handlerKind(resolved.Type)
	if len(n.Options) == 0 {
		if options, ok := p.builder.resolver.Options(name, resolved.Policy); ok {
			n.Options = options
			kind = HandlerAutocomplete
		}
	}
	n.HandlerKind = kind
	n.Handler = p.ctx.Handlers.For(kind)
	return n
}

func (p *pass) canAdd(policy schema.Policy, change Change, baseline Lookup) bool {
	if !p.editing() || change == MarkedForRemoval || policy.UIUpdateOnly {
		return false
	}
	return !(policy.ReadOnlyAfterCreate && baseline.Present)
}

func (p *pass) itemAffordances(n *Node, policy schema.Policy, change Change, baseline Lookup, slot Slot) {
	if !p.editing() || (policy.ReadOnlyAfterCreate && baseline.Present) {
		return
	}
	n.Affordances.Remove = slot.InWorking
	n.Affordances.Duplicate = slot.InWorking && change != MarkedForRemoval
}

// scopedSlots drops items outside the subtree restriction before the ordering
// is windowed.
func (p *pass) scopedSlots(array datapath.Path, slots []Slot) []Slot {
	if len(p.ctx.Subtree) == 0 {
		return slots
	}
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if p.inScope(array.Item(slot.Logical)) {
			out = append(out, slot)
		}
	}
	return out
}

// window attaches a pagination descriptor to oversized containers and returns
// the visible slots. The stored page pointer is clamped on read.
func (p *pass) window(n *Node, slots []Slot) []Slot {
	if len(slots) <= p.ctx.PageSize {
		return slots
	}
	page := Paginate(len(slots), p.ctx.PageSize, p.ctx.Session.Page(n.ID))
	n.Pagination = &page
	p.pages[n.ID] = page
	return slots[page.Start:page.End]
}

func handlerKind(typ string) HandlerKind {
	switch typ {
	case schema.TypeBoolean:
		return HandlerBoolean
	case schema.TypeEnum:
		return HandlerOption
	case schema.TypeDateTime:
		return HandlerDate
	default:
		return HandlerText
	}
}

func containerType(kind schema.Kind) string {
	if kind.IsArray() {
		return schema.TypeArray
	}
	return schema.TypeObject
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}
