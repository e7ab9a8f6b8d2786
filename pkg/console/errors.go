package console

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("console: aborted")
	// ErrNoCandidates is returned when an action has no eligible node.
	ErrNoCandidates = errors.New("console: no eligible nodes for action")
)
