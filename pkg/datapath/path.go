package datapath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is a single step in a Path. Key segments address object members,
// item segments address array positions (storage) or logical indices.
type Segment struct {
	Key   string
	Index int
	Item  bool
}

// Path is an ordered list of segments. The zero value addresses the snapshot
// root.
type Path []Segment

// Parse converts the dotted/bracketed notation (`order.items[2].name`) into a
// Path. An empty string yields the root path.
func Parse(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	var out Path
	for _, token := range strings.Split(trimmed, ".") {
		if token == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, raw)
		}
		key := token
		rest := ""
		if open := strings.IndexByte(token, '['); open >= 0 {
			key, rest = token[:open], token[open:]
		}
		if key != "" {
			out = append(out, Segment{Key: key})
		} else if len(out) == 0 && rest == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidPath, raw)
		}
		for rest != "" {
			if rest[0] != '[' {
				return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPath, rest, raw)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, raw)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("%w: invalid index %q in %q", ErrInvalidPath, rest[1:end], raw)
			}
			out = append(out, Segment{Index: idx, Item: true})
			rest = rest[end+1:]
		}
	}
	return out, nil
}

// MustParse panics when raw is not a valid path. Useful for tests and constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path using the notation accepted by Parse.
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, seg := range p {
		if seg.Item {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}

// Child returns a new path addressing the named member below p.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Key: key})
}

// Item returns a new path addressing array element idx below p.
func (p Path) Item(idx int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Index: idx, Item: true})
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// IsItem reports whether the path addresses an array element.
func (p Path) IsItem() bool {
	last, ok := p.Last()
	return ok && last.Item
}

// Indexed reports whether any segment addresses an array element.
func (p Path) Indexed() bool {
	for _, seg := range p {
		if seg.Item {
			return true
		}
	}
	return false
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if prefix[i] != p[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both paths address the same element.
func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}

// Related reports whether one path is an ancestor of (or equal to) the other.
func (p Path) Related(other Path) bool {
	return p.HasPrefix(other) || other.HasPrefix(p)
}

// Keys returns the member names of p, dropping item segments. It is the shape
// used to walk a schema, where every array element shares one item schema.
func (p Path) Keys() []string {
	out := make([]string, 0, len(p))
	for _, seg := range p {
		if !seg.Item {
			out = append(out, seg.Key)
		}
	}
	return out
}
