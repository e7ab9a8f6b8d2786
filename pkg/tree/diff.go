package tree

import "github.com/goliatone/go-datatree/pkg/session"

// Change is the diff status of a path between baseline and working.
type Change int

const (
	Unchanged Change = iota
	AddEligible
	MarkedForRemoval
)

func (c Change) String() string {
	switch c {
	case AddEligible:
		return "added-eligible"
	case MarkedForRemoval:
		return "marked-for-removal"
	default:
		return "unchanged"
	}
}

// Lookup is the outcome of resolving a path in one snapshot. Present with a
// nil Value is an explicit null.
type Lookup struct {
	Value   any
	Present bool
}

// NonNull reports whether the lookup found a non-null value.
func (l Lookup) NonNull() bool {
	return l.Present && l.Value != nil
}

// Classify derives the change status of a path. Once the baseline holds a
// read-only-after-create field it is never add or remove eligible.
func Classify(baseline, working Lookup, readOnlyAfterCreate bool) Change {
	if !baseline.Present {
		if working.NonNull() {
			return AddEligible
		}
		return Unchanged
	}
	if readOnlyAfterCreate {
		return Unchanged
	}
	if baseline.Value != nil && !working.NonNull() {
		return MarkedForRemoval
	}
	return Unchanged
}

// VisualFor maps a change to its highlight. A transient tag left by Add or
// Duplicate takes precedence over the comparison.
func VisualFor(change Change, transient session.VisualState) session.VisualState {
	if transient.Transient() {
		return transient
	}
	switch change {
	case MarkedForRemoval:
		return session.VisualRemoved
	case AddEligible:
		return session.VisualAdded
	default:
		return session.VisualNone
	}
}
