package datapath

// Get resolves p against root and reports whether a value is present. A
// present value may still be nil (an explicit null). Get never panics: any
// mismatch between the path and the snapshot shape yields (nil, false).
func Get(root any, p Path) (any, bool) {
	current := root
	for _, seg := range p {
		if seg.Item {
			items, ok := current.([]any)
			if !ok || seg.Index < 0 || seg.Index >= len(items) {
				return nil, false
			}
			current = items[seg.Index]
			continue
		}
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, exists := node[seg.Key]
		if !exists {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Items returns the array stored at p, or nil when p does not address an
// array.
func Items(root any, p Path) []any {
	value, ok := Get(root, p)
	if !ok {
		return nil
	}
	items, _ := value.([]any)
	return items
}

// Set writes value at the storage path p inside root, creating intermediate
// objects for missing member segments. Array positions must already exist.
// Set mutates root in place; callers working copy-on-write clone first.
func Set(root map[string]any, p Path, value any) error {
	if root == nil {
		return unresolvable(p, "root is nil")
	}
	if len(p) == 0 {
		return unresolvable(p, "cannot replace the root")
	}

	var current any = root
	for i, seg := range p {
		last := i == len(p)-1
		if seg.Item {
			items, ok := current.([]any)
			if !ok {
				return unresolvable(p, "segment is not an array")
			}
			if seg.Index < 0 || seg.Index >= len(items) {
				return unresolvable(p, "index out of range")
			}
			if last {
				items[seg.Index] = value
				return nil
			}
			current = items[seg.Index]
			continue
		}

		node, ok := current.(map[string]any)
		if !ok {
			return unresolvable(p, "segment is not an object")
		}
		if last {
			node[seg.Key] = value
			return nil
		}
		next, exists := node[seg.Key]
		if !exists || next == nil {
			if p[i+1].Item {
				return unresolvable(p, "missing array "+seg.Key)
			}
			created := make(map[string]any)
			node[seg.Key] = created
			next = created
		}
		current = next
	}
	return nil
}

// Append adds value to the end of the array at p, initialising the array when
// the member is absent or null. It returns the storage position of the new
// element.
func Append(root map[string]any, p Path, value any) (int, error) {
	existing, present := Get(root, p)
	var items []any
	if present && existing != nil {
		var ok bool
		items, ok = existing.([]any)
		if !ok {
			return -1, unresolvable(p, "not an array")
		}
	}
	next := make([]any, len(items), len(items)+1)
	copy(next, items)
	next = append(next, value)
	if err := Set(root, p, next); err != nil {
		return -1, err
	}
	return len(next) - 1, nil
}

// Splice removes the element at storage position pos from the array at p.
func Splice(root map[string]any, p Path, pos int) error {
	items := Items(root, p)
	if pos < 0 || pos >= len(items) {
		return unresolvable(p.Item(pos), "index out of range")
	}
	next := make([]any, 0, len(items)-1)
	next = append(next, items[:pos]...)
	next = append(next, items[pos+1:]...)
	return Set(root, p, next)
}

// Resolve translates a logical path into the storage path of the same element
// inside root. Member segments are copied verbatim; item segments are looked
// up by logical index (see FindLogical). The second result is false when any
// step is missing.
func Resolve(root any, logical Path) (Path, bool) {
	storage := make(Path, 0, len(logical))
	current := root
	for _, seg := range logical {
		if seg.Item {
			items, ok := current.([]any)
			if !ok {
				return nil, false
			}
			pos, found := FindLogical(items, seg.Index)
			if !found {
				return nil, false
			}
			storage = append(storage, Segment{Index: pos, Item: true})
			current = items[pos]
			continue
		}
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, exists := node[seg.Key]
		if !exists {
			return nil, false
		}
		storage = append(storage, seg)
		current = next
	}
	return storage, true
}

// Lookup resolves a logical path and returns the addressed value.
func Lookup(root any, logical Path) (any, bool) {
	storage, ok := Resolve(root, logical)
	if !ok {
		return nil, false
	}
	return Get(root, storage)
}
