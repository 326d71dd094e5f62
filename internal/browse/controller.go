// Package browse holds the project listing's view state and the controller
// that turns user actions into a fresh filtered, sorted and paginated view.
package browse

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/facet"
	"github.com/hejny/gitlabinfo/internal/listing"
	"github.com/hejny/gitlabinfo/internal/models"
)

var (
	// ErrUnknownColumn is returned for column IDs outside the catalog, or for
	// columns that do not support the requested action.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidPageSize is returned when a custom page size is not a
	// positive number.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Facet names as shown to the user.
const (
	FacetKinds    = "kinds"
	FacetErrors   = "errors"
	FacetArchived = "archived"
	FacetColumns  = "columns"
)

// FacetState is a read-only copy of one facet.
type FacetState struct {
	Name    string
	All     bool
	Options []facet.Option
}

// View is everything a renderer needs for one frame.
type View struct {
	Loaded   bool
	Page     listing.Page[*models.Project]
	Columns  []display.Column
	State    State
	Kinds    FacetState
	Errors   FacetState
	Archived FacetState
	Shown    FacetState
}

// Controller owns the view state. It is not safe for concurrent use; callers
// drive it from a single event loop.
type Controller struct {
	prefs  Preferences
	logger *slog.Logger

	state    State
	kinds    *facet.Facet
	errors   *facet.Facet
	archived *facet.Facet
	columns  *facet.Facet

	loaded   bool
	projects []*models.Project
	byID     map[int]*models.Project
	page     listing.Page[*models.Project]
}

// New restores the view state from prefs. The kind and error facets stay
// empty until Load supplies the projects they are derived from.
func New(prefs Preferences, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		prefs:  prefs,
		logger: logger,
		state:  LoadState(prefs),
		kinds:  facet.New(FacetKinds),
		errors: facet.New(FacetErrors),
		archived: facet.New(FacetArchived,
			facet.Option{ID: listing.ArchivedLive, Label: "Live"},
			facet.Option{ID: listing.ArchivedOnly, Label: "Archived"},
		),
		columns: facet.New(FacetColumns, columnOptions()...),
		byID:    make(map[int]*models.Project),
	}

	v, ok := prefs.Get(KeyArchived)
	c.archived.Restore(v, ok, true)
	v, ok = prefs.Get(KeyColumns)
	c.columns.Restore(v, ok, true)
	return c
}

func columnOptions() []facet.Option {
	opts := make([]facet.Option, 0, len(display.Columns))
	for _, col := range display.Columns {
		opts = append(opts, facet.Option{ID: string(col.ID), Label: col.Title})
	}
	return opts
}

// Load installs the fetched projects, derives the kind and error facets from
// them and runs the first pass. Calling Load again replaces the collection.
func (c *Controller) Load(projects []models.Project) {
	c.projects = make([]*models.Project, len(projects))
	c.byID = make(map[int]*models.Project, len(projects))
	for i := range projects {
		p := &projects[i]
		c.projects[i] = p
		c.byID[p.ID] = p
	}

	var kinds, codes []string
	for _, p := range c.projects {
		if p.Kind != "" && !slices.Contains(kinds, p.Kind) {
			kinds = append(kinds, p.Kind)
		}
		for _, e := range display.ErrorValues(p) {
			if e.Code != "" && !slices.Contains(codes, e.Code) {
				codes = append(codes, e.Code)
			}
		}
	}
	slices.Sort(kinds)
	slices.Sort(codes)

	c.kinds = facet.New(FacetKinds, optionsOf(kinds)...)
	c.errors = facet.New(FacetErrors, optionsOf(codes)...)

	// A stored empty kind selection means every kind.
	if v, ok := c.prefs.Get(KeyKinds); ok && v != "" {
		c.kinds.Set(facet.Decode(v))
	} else {
		c.kinds.Set([]string{facet.AllID})
	}
	v, ok := c.prefs.Get(KeyErrors)
	c.errors.Restore(v, ok, false)

	c.loaded = true
	c.logger.Debug("projects loaded", "projects", len(c.projects), "kinds", len(kinds), "errors", len(codes))
	c.changed()
}

func optionsOf(ids []string) []facet.Option {
	opts := make([]facet.Option, len(ids))
	for i, id := range ids {
		opts[i] = facet.Option{ID: id}
	}
	return opts
}

// --- facet actions ---

// ToggleKind flips a kind option (or facet.AllID). It reports whether the
// option exists.
func (c *Controller) ToggleKind(id string) bool { return c.toggle(c.kinds, id) }

// ToggleError flips an error-code option.
func (c *Controller) ToggleError(id string) bool { return c.toggle(c.errors, id) }

// ToggleArchived flips listing.ArchivedLive, listing.ArchivedOnly or AllID.
func (c *Controller) ToggleArchived(id string) bool { return c.toggle(c.archived, id) }

// ToggleColumn flips the visibility of a column.
func (c *Controller) ToggleColumn(id display.ColumnID) error {
	if id != display.ColumnAll {
		if _, ok := display.LookupColumn(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
		}
	}
	c.toggle(c.columns, string(id))
	return nil
}

func (c *Controller) toggle(f *facet.Facet, id string) bool {
	if !f.Toggle(id) {
		return false
	}
	c.changed()
	return true
}

// SelectKinds replaces the kind selection. Unknown kinds are ignored.
func (c *Controller) SelectKinds(ids []string) { c.selectIDs(c.kinds, ids) }

// SelectErrors replaces the error-code selection.
func (c *Controller) SelectErrors(ids []string) { c.selectIDs(c.errors, ids) }

// SelectArchived replaces the archived-state selection.
func (c *Controller) SelectArchived(ids []string) { c.selectIDs(c.archived, ids) }

// SelectColumns replaces the set of visible columns.
func (c *Controller) SelectColumns(ids []display.ColumnID) error {
	raw := make([]string, len(ids))
	for i, id := range ids {
		if id != display.ColumnAll {
			if _, ok := display.LookupColumn(id); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
			}
		}
		raw[i] = string(id)
	}
	c.selectIDs(c.columns, raw)
	return nil
}

func (c *Controller) selectIDs(f *facet.Facet, ids []string) {
	f.Set(ids)
	c.changed()
}

// --- text filters ---

// SetColumnFilter sets the free-text filter of a filterable column.
func (c *Controller) SetColumnFilter(id display.ColumnID, text string) error {
	col, ok := display.LookupColumn(id)
	if !ok || !col.Filterable {
		return fmt.Errorf("%w: %s has no filter", ErrUnknownColumn, id)
	}
	c.state.ColumnFilters[id] = text
	c.changed()
	return nil
}

// SetCommonFilter sets the global search token.
func (c *Controller) SetCommonFilter(text string) {
	c.state.CommonFilter = text
	c.changed()
}

// SetUseRegex switches the column filters between regex and substring mode.
func (c *Controller) SetUseRegex(on bool) {
	c.state.UseRegex = on
	c.changed()
}

// --- sort and paging ---

// SortBy orders the result by column in direction dir.
func (c *Controller) SortBy(id display.ColumnID, dir listing.Direction) error {
	if _, ok := display.LookupColumn(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	c.state.SortColumn = id
	c.state.SortDirection = dir
	c.changed()
	return nil
}

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(size listing.PageSize) error {
	if !size.All && size.N < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size.N)
	}
	c.state.PageSize = size
	c.state.Page = 1
	c.changed()
	return nil
}

// SetCustomPageSize parses a user-typed page size ("all" or a positive
// number).
func (c *Controller) SetCustomPageSize(s string) error {
	size, ok := listing.ParsePageSize(s)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	return c.SetPageSize(size)
}

// ChangePage moves by delta pages. Moves outside 1..TotalPages are ignored;
// the return value reports whether the page changed.
func (c *Controller) ChangePage(delta int) bool {
	next := c.state.Page + delta
	if next < 1 || next > c.page.TotalPages {
		return false
	}
	c.state.Page = next
	c.changed()
	return true
}

// GoToPage jumps to page n; out-of-range values are clamped.
func (c *Controller) GoToPage(n int) {
	c.state.Page = max(n, 1)
	c.changed()
}

// --- queries ---

// View returns the current frame.
func (c *Controller) View() View {
	return View{
		Loaded:   c.loaded,
		Page:     c.page,
		Columns:  c.visibleColumns(),
		State:    c.stateCopy(),
		Kinds:    stateOf(c.kinds),
		Errors:   stateOf(c.errors),
		Archived: stateOf(c.archived),
		Shown:    stateOf(c.columns),
	}
}

// Project returns the loaded project with the given id.
func (c *Controller) Project(id int) (*models.Project, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Criteria returns the filter criteria of the current state.
func (c *Controller) Criteria() listing.Criteria {
	kinds := c.kinds.Selection()
	if c.kinds.Len() == 0 {
		// No project carries a kind, so there is nothing to narrow by.
		kinds.All = true
	}
	// Codes picked one by one keep AND semantics even when they cover every
	// code in the data; only the chosen aggregate lifts the constraint.
	errs := c.errors.Selection()
	errs.All = c.errors.AllChosen()
	return listing.Criteria{
		ColumnFilters: c.state.ColumnFilters,
		Common:        c.state.CommonFilter,
		UseRegex:      c.state.UseRegex,
		Kinds:         kinds,
		Errors:        errs,
		Archived:      c.archived.Selection(),
	}
}

func (c *Controller) visibleColumns() []display.Column {
	var cols []display.Column
	for _, col := range display.Columns {
		if c.columns.IsSelected(string(col.ID)) {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		name, _ := display.LookupColumn(display.ColumnName)
		cols = append(cols, name)
	}
	return cols
}

func (c *Controller) stateCopy() State {
	s := c.state
	s.ColumnFilters = make(map[display.ColumnID]string, len(c.state.ColumnFilters))
	for k, v := range c.state.ColumnFilters {
		s.ColumnFilters[k] = v
	}
	return s
}

func stateOf(f *facet.Facet) FacetState {
	return FacetState{Name: f.Name, All: f.All(), Options: f.Options()}
}

// changed reruns filter, sort and paginate over the loaded projects and then
// persists the whole state. Every mutating action ends here.
func (c *Controller) changed() {
	if c.loaded {
		filtered := listing.Filter(c.projects, c.Criteria(), c.logger)
		listing.Sort(filtered, c.state.SortColumn, c.state.SortDirection)
		c.page = listing.Paginate(filtered, c.state.PageSize, c.state.Page)
		c.state.Page = c.page.Number
	}
	c.persist()
}

func (c *Controller) persist() {
	c.state.Save(c.prefs)
	c.prefs.Set(KeyArchived, c.archived.Encode())
	c.prefs.Set(KeyColumns, c.columns.Encode())
	// The kind and error options only exist once projects are loaded.
	if c.loaded {
		c.prefs.Set(KeyKinds, c.kinds.Encode())
		c.prefs.Set(KeyErrors, c.errors.Encode())
	}
}
