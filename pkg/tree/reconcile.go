package tree

import "github.com/goliatone/go-datatree/pkg/datapath"

// Slot ties one logical array identity to its positions in both snapshots.
// Storage is -1 when the item is not in the working array; Baseline is -1 when
// the baseline never held it.
type Slot struct {
	Logical    int
	Storage    int
	Baseline   int
	InBaseline bool
	InWorking  bool
}

// Reconcile orders the union of baseline and working items by logical
// identity. Baseline items come first, their logical index being their
// position. Working items are matched by their embedded marker (position when
// unmarked); those unknown to the baseline follow in working order. When two
// working items claim the same index the first one wins.
func Reconcile(baseline, working []any) []Slot {
	slots := make([]Slot, 0, len(baseline)+len(working))
	byLogical := make(map[int]int, len(baseline)+len(working))

	for pos := range baseline {
		byLogical[pos] = len(slots)
		slots = append(slots, Slot{Logical: pos, Storage: -1, Baseline: pos, InBaseline: true})
	}
	for pos := range working {
		logical := datapath.IndexAt(working, pos)
		if at, ok := byLogical[logical]; ok {
			if !slots[at].InWorking {
				slots[at].Storage = pos
				slots[at].InWorking = true
			}
			continue
		}
		byLogical[logical] = len(slots)
		slots = append(slots, Slot{Logical: logical, Storage: pos, Baseline: -1, InWorking: true})
	}
	return slots
}

// PositionOf returns the index of logical within the reconciled ordering, or
// -1.
func PositionOf(slots []Slot, logical int) int {
	for i, slot := range slots {
		if slot.Logical == logical {
			return i
		}
	}
	return -1
}
