package datapath

import "github.com/mohae/deepcopy"

// Clone returns a deep copy of a snapshot. Mutation operations never touch a
// snapshot handed to a previous generation; they clone and edit the copy.
func Clone(root map[string]any) map[string]any {
	if root == nil {
		return make(map[string]any)
	}
	copied, ok := deepcopy.Copy(root).(map[string]any)
	if !ok || copied == nil {
		return make(map[string]any)
	}
	return copied
}

// CloneValue deep copies an arbitrary snapshot value.
func CloneValue(value any) any {
	if value == nil {
		return nil
	}
	return deepcopy.Copy(value)
}
