package listing

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when no usable page size is configured.
const DefaultPageSize = 5

// PageSizeOptions are the fixed page sizes offered to the user.
var PageSizeOptions = []int{5, 10, 15, 20, 50, 100}

// PageSize is either a positive row count or "all".
type PageSize struct {
	N   int
	All bool
}

// AllRows is the page size that shows the whole result on one page.
var AllRows = PageSize{All: true}

// ParsePageSize accepts "all" or a positive integer.
func ParsePageSize(s string) (PageSize, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllRows, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return PageSize{}, false
	}
	return PageSize{N: n}, true
}

func (s PageSize) String() string {
	if s.All {
		return "all"
	}
	return strconv.Itoa(s.N)
}

// Custom reports whether the size is a number outside the fixed options.
func (s PageSize) Custom() bool {
	if s.All {
		return false
	}
	for _, n := range PageSizeOptions {
		if n == s.N {
			return false
		}
	}
	return true
}

// Page is the visible slice of a result set.
type Page[T any] struct {
	Items      []T
	Start      int // inclusive offset into the result
	End        int // exclusive offset into the result
	Number     int // 1-based page number after clamping
	TotalPages int
	Total      int
}

// FirstItem is the 1-based index of the first visible row, 0 when empty.
// After a stale page the window is the trailing full page, so it may start
// before (Number-1)*per.
func (p Page[T]) FirstItem() int {
	if p.End == 0 {
		return 0
	}
	return p.Start + 1
}

// LastItem is the 1-based index of the last visible row.
func (p Page[T]) LastItem() int { return p.End }

// TotalPages returns the page count for n rows, at least 1.
func TotalPages(n int, size PageSize) int {
	if size.All || n == 0 {
		return 1
	}
	per := perPage(n, size)
	return (n-1)/per + 1
}

func perPage(n int, size PageSize) int {
	if size.All {
		return n
	}
	if size.N < 1 {
		return DefaultPageSize
	}
	return size.N
}

// Paginate cuts the requested page out of items. A page beyond the end is
// clamped to the last page so the result is never out of range.
func Paginate[T any](items []T, size PageSize, page int) Page[T] {
	n := len(items)
	per := perPage(n, size)
	if page < 1 {
		page = 1
	}
	total := TotalPages(n, size)
	// A stale page (result shrank under it) falls back to the last page and
	// shows the trailing full window. Clamping first keeps page*per in range.
	stale := page > total
	if stale {
		page = total
	}

	end := min(page*per, n)
	start := (page - 1) * per
	if stale {
		start = max(end-per, 0)
	}

	return Page[T]{
		Items:      items[start:end],
		Start:      start,
		End:        end,
		Number:     page,
		TotalPages: total,
		Total:      n,
	}
}
