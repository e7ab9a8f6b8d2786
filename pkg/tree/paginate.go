package tree

import (
	"fmt"
	"strings"
)

// DefaultPageSize applies when a Context leaves PageSize unset.
const DefaultPageSize = 10

// Direction moves a container's page pointer.
type Direction int

const (
	DirectionNext Direction = iota
	DirectionPrev
	DirectionFirst
	DirectionLast
)

func (d Direction) String() string {
	switch d {
	case DirectionPrev:
		return "prev"
	case DirectionFirst:
		return "first"
	case DirectionLast:
		return "last"
	default:
		return "next"
	}
}

// ParseDirection accepts the names produced by Direction.String.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "next":
		return DirectionNext, nil
	case "prev", "previous":
		return DirectionPrev, nil
	case "first":
		return DirectionFirst, nil
	case "last":
		return DirectionLast, nil
	default:
		return DirectionNext, fmt.Errorf("tree: unknown page direction %q", raw)
	}
}

// Pagination describes the visible window of an oversized container. Start
// and End bound the visible slice of the reconciled ordering.
type Pagination struct {
	Total    int
	PageSize int
	Page     int
	Pages    int
	Start    int
	End      int
}

// TotalPages returns ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage bounds page to [0, TotalPages-1].
func ClampPage(page, total, pageSize int) int {
	last := TotalPages(total, pageSize) - 1
	switch {
	case page < 0:
		return 0
	case page > last:
		return last
	default:
		return page
	}
}

// Paginate computes the window for page after clamping it.
func Paginate(total, pageSize, page int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	page = ClampPage(page, total, pageSize)
	start := page * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return Pagination{
		Total:    total,
		PageSize: pageSize,
		Page:     page,
		Pages:    TotalPages(total, pageSize),
		Start:    start,
		End:      end,
	}
}

// Step moves page one step in dir and clamps the result.
func Step(page int, dir Direction, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	switch dir {
	case DirectionPrev:
		page--
	case DirectionFirst:
		page = 0
	case DirectionLast:
		page = totalPages - 1
	default:
		page++
	}
	if page < 0 {
		return 0
	}
	if page > totalPages-1 {
		return totalPages - 1
	}
	return page
}

// PageOf returns the page holding the element at position pos.
func PageOf(pos, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pos < 0 {
		return 0
	}
	return pos / pageSize
}
