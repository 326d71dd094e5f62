package browse

import (
	"strconv"

	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/listing"
)

// Preference keys.
const (
	KeyPage         = "page"
	KeySize         = "size"
	KeySortBy       = "sortBy"
	KeySortDest     = "sortDest"
	KeyUseRegex     = "useRegex"
	KeyCommonFilter = "commonFilter"
	KeyColumns      = "columns"
	KeyKinds        = "kinds"
	KeyErrors       = "errors"
	KeyArchived     = "archived"

	// legacyKeyUseRegex is read when KeyUseRegex has never been written.
	legacyKeyUseRegex = "userRegex"
)

// Preferences is the key/value persistence port. Set is fire-and-forget.
type Preferences interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// State is the scalar part of the view state; facet selections live on the
// controller.
type State struct {
	Page          int
	PageSize      listing.PageSize
	SortColumn    display.ColumnID
	SortDirection listing.Direction
	UseRegex      bool
	CommonFilter  string
	ColumnFilters map[display.ColumnID]string
}

// DefaultState is the view state of a first session.
func DefaultState() State {
	return State{
		Page:          1,
		PageSize:      listing.PageSize{N: listing.DefaultPageSize},
		SortDirection: listing.Asc,
		ColumnFilters: make(map[display.ColumnID]string),
	}
}

// LoadState reads the view state from prefs, falling back to defaults for
// missing or unparsable values.
func LoadState(prefs Preferences) State {
	s := DefaultState()

	if v, ok := prefs.Get(KeyPage); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Page = n
		}
	}
	if v, ok := prefs.Get(KeySize); ok {
		if size, ok := listing.ParsePageSize(v); ok {
			s.PageSize = size
		}
	}
	if v, ok := prefs.Get(KeySortBy); ok {
		s.SortColumn = display.ColumnID(v)
	}
	if v, ok := prefs.Get(KeySortDest); ok {
		s.SortDirection = listing.ParseDirection(v)
	}
	if v, ok := prefs.Get(KeyUseRegex); ok {
		s.UseRegex = v == "true"
	} else if v, ok := prefs.Get(legacyKeyUseRegex); ok {
		s.UseRegex = v == "true"
	}
	if v, ok := prefs.Get(KeyCommonFilter); ok {
		s.CommonFilter = v
	}
	for _, c := range display.FilterableColumns() {
		if v, ok := prefs.Get(string(c.ID)); ok {
			s.ColumnFilters[c.ID] = v
		}
	}
	return s
}

// Save writes every scalar key to prefs.
func (s State) Save(prefs Preferences) {
	prefs.Set(KeyPage, strconv.Itoa(s.Page))
	prefs.Set(KeySize, s.PageSize.String())
	prefs.Set(KeySortBy, string(s.SortColumn))
	prefs.Set(KeySortDest, string(s.SortDirection))
	prefs.Set(KeyUseRegex, strconv.FormatBool(s.UseRegex))
	prefs.Set(KeyCommonFilter, s.CommonFilter)
	for _, c := range display.FilterableColumns() {
		prefs.Set(string(c.ID), s.ColumnFilters[c.ID])
	}
}
