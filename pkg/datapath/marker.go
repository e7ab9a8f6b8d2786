package datapath

import (
	"math"
	"strconv"
)

// MarkerKey is the reserved member holding an array item's logical index. Only
// object items carry it; primitive items are addressed by position.
const MarkerKey = "_logical_index"

// LogicalIndex reads the marker embedded in an array item.
func LogicalIndex(item any) (int, bool) {
	node, ok := item.(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := node[MarkerKey]
	if !ok {
		return 0, false
	}
	return toIndex(raw)
}

// Mark stamps idx as the logical index of item.
func Mark(item map[string]any, idx int) {
	if item == nil {
		return
	}
	item[MarkerKey] = idx
}

// IndexAt returns the logical index of the element at storage position pos:
// its marker when present, otherwise the position itself.
func IndexAt(items []any, pos int) int {
	if pos < 0 || pos >= len(items) {
		return -1
	}
	if idx, ok := LogicalIndex(items[pos]); ok {
		return idx
	}
	return pos
}

// FindLogical returns the storage position of the element whose logical index
// equals logical.
func FindLogical(items []any, logical int) (int, bool) {
	for pos := range items {
		if IndexAt(items, pos) == logical {
			return pos, true
		}
	}
	return -1, false
}

// HighestIndex returns the greatest logical index in items, or -1 when empty.
func HighestIndex(items []any) int {
	highest := -1
	for pos := range items {
		if idx := IndexAt(items, pos); idx > highest {
			highest = idx
		}
	}
	return highest
}

// StampArray writes the current logical index into every unmarked object item
// of items. Running it before a splice pins the identity of the survivors.
func StampArray(items []any) {
	for pos, item := range items {
		node, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, marked := LogicalIndex(node); marked {
			continue
		}
		Mark(node, pos)
	}
}

// StampAll walks value and stamps every object item of every nested array.
func StampAll(value any) {
	switch typed := value.(type) {
	case map[string]any:
		for _, child := range typed {
			StampAll(child)
		}
	case []any:
		StampArray(typed)
		for _, child := range typed {
			StampAll(child)
		}
	}
}

// StripMarkers removes the marker, and any additional identity keys, from
// value and every nested object. It mutates value in place.
func StripMarkers(value any, identityKeys ...string) {
	switch typed := value.(type) {
	case map[string]any:
		delete(typed, MarkerKey)
		for _, key := range identityKeys {
			delete(typed, key)
		}
		for _, child := range typed {
			StripMarkers(child, identityKeys...)
		}
	case []any:
		for _, child := range typed {
			StripMarkers(child, identityKeys...)
		}
	}
}

func toIndex(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
