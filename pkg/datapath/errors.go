package datapath

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath signals a malformed path string.
	ErrInvalidPath = errors.New("datapath: invalid path")
	// ErrPathResolution signals a path that no longer addresses anything in
	// the snapshot it was resolved against.
	ErrPathResolution = errors.New("datapath: path not resolvable")
)

// PathResolutionError reports a logical path that is not present in a
// snapshot, typically a stale reference held across a regeneration.
type PathResolutionError struct {
	Path   string
	Reason string
}

func (e *PathResolutionError) Error() string {
	if e == nil {
		return ErrPathResolution.Error()
	}
	if e.Reason == "" {
		return fmt.Sprintf("datapath: path %q not resolvable", e.Path)
	}
	return fmt.Sprintf("datapath: path %q not resolvable: %s", e.Path, e.Reason)
}

// Unwrap allows errors.Is(err, ErrPathResolution).
func (e *PathResolutionError) Unwrap() error {
	return ErrPathResolution
}

func unresolvable(p Path, reason string) error {
	return &PathResolutionError{Path: p.String(), Reason: reason}
}
