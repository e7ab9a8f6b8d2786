package session

// Delta is the session side of a mutation result: forced-open nodes, updated
// page pointers, new highlight tags and the prefixes whose tags must be
// dropped. Callers apply it after regenerating from the new working snapshot.
type Delta struct {
	Open    map[string]bool
	Pages   map[string]int
	Visual  map[string]VisualState
	Cleared []string
}

// NewDelta returns a delta with initialised maps.
func NewDelta() Delta {
	return Delta{
		Open:   make(map[string]bool),
		Pages:  make(map[string]int),
		Visual: make(map[string]VisualState),
	}
}

// Empty reports whether applying d would change nothing.
func (d Delta) Empty() bool {
	return len(d.Open) == 0 && len(d.Pages) == 0 && len(d.Visual) == 0 && len(d.Cleared) == 0
}
