// Package session holds the per-tree view state that survives regeneration:
// open/closed flags, page pointers and transient highlight tags. All state is
// keyed by logical path so it stays attached to an element while array
// positions shift underneath it.
//
// A Session is owned by the caller and is not safe for concurrent use; build
// and mutation passes run to completion on a single goroutine.
package session

import (
	"sort"
	"strings"
)

// VisualState is the highlight classification of a node. A path carries at
// most one state.
type VisualState string

const (
	VisualNone       VisualState = ""
	VisualAdded      VisualState = "added"
	VisualDuplicated VisualState = "duplicated"
	VisualRemoved    VisualState = "marked-for-removal"
)

func (v VisualState) String() string {
	if v == VisualNone {
		return "none"
	}
	return string(v)
}

// Transient reports whether the state records a just-completed Add or
// Duplicate rather than a baseline comparison.
func (v VisualState) Transient() bool {
	return v == VisualAdded || v == VisualDuplicated
}

// Session is the explicit replacement for process-wide view state. The zero
// value is not usable; call New.
type Session struct {
	open   map[string]bool
	pages  map[string]int
	visual map[string]VisualState
}

// New returns an empty session.
func New() *Session {
	return &Session{
		open:   make(map[string]bool),
		pages:  make(map[string]int),
		visual: make(map[string]VisualState),
	}
}

// IsOpen reports whether the node id is expanded. Nodes default to open the
// first time they are seen.
func (s *Session) IsOpen(id string) bool {
	if s == nil {
		return true
	}
	open, ok := s.open[id]
	if !ok {
		return true
	}
	return open
}

// SetOpen records an explicit toggle. Repeating the call is a no-op.
func (s *Session) SetOpen(id string, open bool) {
	if s == nil {
		return
	}
	s.open[id] = open
}

// Page returns the stored page pointer of a container, 0 when unset. Callers
// clamp the value against the current item count.
func (s *Session) Page(id string) int {
	if s == nil {
		return 0
	}
	return s.pages[id]
}

// SetPage stores a page pointer. Negative values reset it to 0.
func (s *Session) SetPage(id string, page int) {
	if s == nil {
		return
	}
	if page <= 0 {
		delete(s.pages, id)
		return
	}
	s.pages[id] = page
}

// Visual returns the transient highlight recorded for path.
func (s *Session) Visual(path string) VisualState {
	if s == nil {
		return VisualNone
	}
	return s.visual[path]
}

// SetVisual records state for path, replacing any previous state.
func (s *Session) SetVisual(path string, state VisualState) {
	if s == nil {
		return
	}
	if state == VisualNone {
		delete(s.visual, path)
		return
	}
	s.visual[path] = state
}

// ClearVisual drops highlight tags for prefix and every path beneath it.
func (s *Session) ClearVisual(prefix string) {
	if s == nil {
		return
	}
	for path := range s.visual {
		if Under(path, prefix) {
			delete(s.visual, path)
		}
	}
}

// Invalidate forgets everything recorded at or below prefix. Callers use it
// before reusing a logical path for structurally different data.
func (s *Session) Invalidate(prefix string) {
	if s == nil {
		return
	}
	for id := range s.open {
		if Under(id, prefix) {
			delete(s.open, id)
		}
	}
	for id := range s.pages {
		if Under(id, prefix) {
			delete(s.pages, id)
		}
	}
	s.ClearVisual(prefix)
}

// Apply merges a delta produced by a mutation. Clears run first so a delta can
// drop stale tags and record fresh ones in one step.
func (s *Session) Apply(d Delta) {
	if s == nil {
		return
	}
	for _, prefix := range d.Cleared {
		s.ClearVisual(prefix)
	}
	for _, id := range sortedKeys(d.Open) {
		s.SetOpen(id, d.Open[id])
	}
	for _, id := range sortedKeys(d.Pages) {
		s.SetPage(id, d.Pages[id])
	}
	for _, path := range sortedKeys(d.Visual) {
		s.SetVisual(path, d.Visual[path])
	}
}

// Clone returns an independent copy.
func (s *Session) Clone() *Session {
	out := New()
	if s == nil {
		return out
	}
	out.Restore(s.Snapshot())
	return out
}

// State is the serialisable form of a Session.
type State struct {
	Open   map[string]bool        `json:"open,omitempty"`
	Pages  map[string]int         `json:"pages,omitempty"`
	Visual map[string]VisualState `json:"visual,omitempty"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	if s == nil {
		return State{}
	}
	out := State{
		Open:   make(map[string]bool, len(s.open)),
		Pages:  make(map[string]int, len(s.pages)),
		Visual: make(map[string]VisualState, len(s.visual)),
	}
	for k, v := range s.open {
		out.Open[k] = v
	}
	for k, v := range s.pages {
		out.Pages[k] = v
	}
	for k, v := range s.visual {
		out.Visual[k] = v
	}
	return out
}

// Restore replaces the session contents with state.
func (s *Session) Restore(state State) {
	if s == nil {
		return
	}
	s.open = make(map[string]bool, len(state.Open))
	s.pages = make(map[string]int, len(state.Pages))
	s.visual = make(map[string]VisualState, len(state.Visual))
	for k, v := range state.Open {
		s.SetOpen(k, v)
	}
	for k, v := range state.Pages {
		s.SetPage(k, v)
	}
	for k, v := range state.Visual {
		s.SetVisual(k, v)
	}
}

// Under reports whether path equals prefix or addresses an element nested
// beneath it. The empty prefix matches every path.
func Under(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	next := path[len(prefix)]
	return next == '.' || next == '['
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
