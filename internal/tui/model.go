// Package tui is the interactive project browser.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hejny/gitlabinfo/internal/browse"
	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/facet"
	"github.com/hejny/gitlabinfo/internal/listing"
	"github.com/hejny/gitlabinfo/internal/models"
)

const maxColumnWidth = 40

// Loaded is the outcome of the one-shot fetch.
type Loaded struct {
	Projects []models.Project
	Notice   string // shown above the table, e.g. when serving a snapshot
}

// LoadFunc fetches the project collection.
type LoadFunc func(ctx context.Context) (Loaded, error)

type loadedMsg struct {
	result Loaded
	err    error
}

type mode int

const (
	modeTable mode = iota
	modeFilter
	modePicker
	modePageSize
	modeDetail
	modeBranches
)

// filterFields are the text fields reachable with tab in filter mode. The
// empty ID is the common search.
var filterFields = []display.ColumnID{
	"",
	display.ColumnName,
	display.ColumnDescription,
	display.ColumnDefaultBranch,
	display.ColumnParentArtifactID,
	display.ColumnParentVersion,
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx  context.Context
	ctrl *browse.Controller
	load LoadFunc

	keys    keyMap
	help    help.Model
	table   table.Model
	spinner spinner.Model
	input   textinput.Model
	styles  styles

	mode    mode
	loading bool
	notice  string
	err     string

	field  int    // index into filterFields
	picker string // facet name while modePicker
	cursor int    // picker cursor; 0 is the All entry

	focus *models.Project
	width int

	mark func(string) string // highlights filter matches in the detail view
}

// New creates a browser driving ctrl. load runs once from Init.
func New(ctx context.Context, ctrl *browse.Controller, load LoadFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 256

	t := table.New(table.WithFocused(true), table.WithHeight(12))

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		load:    load,
		keys:    newKeyMap(),
		help:    help.New(),
		table:   t,
		spinner: sp,
		input:   in,
		styles:  newStyles(),
		loading: true,
	}
	match := m.styles.match
	m.mark = func(s string) string { return match.Render(s) }
	m.syncTable()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		res, err := m.load(m.ctx)
		return loadedMsg{result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.notice = msg.result.Notice
		m.ctrl.Load(msg.result.Projects)
		m.syncTable()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeFilter:
		return m.updateFilter(msg)
	case modePageSize:
		return m.updatePageSize(msg)
	case modePicker:
		return m.updatePicker(msg)
	case modeDetail, modeBranches:
		if key.Matches(msg, m.keys.back, m.keys.quit) {
			m.mode = modeTable
			m.focus = nil
		}
		return m, nil
	}
	return m.updateTable(msg)
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = ""
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		m.table.MoveUp(1)
	case key.Matches(msg, m.keys.down):
		m.table.MoveDown(1)
	case key.Matches(msg, m.keys.nextPage):
		if m.ctrl.ChangePage(1) {
			m.table.SetCursor(0)
		}
	case key.Matches(msg, m.keys.prevPage):
		if m.ctrl.ChangePage(-1) {
			m.table.SetCursor(0)
		}
	case key.Matches(msg, m.keys.sort):
		m.cycleSort()
	case key.Matches(msg, m.keys.reverse):
		st := m.ctrl.View().State
		col := st.SortColumn
		if col == "" {
			col = display.ColumnName
		}
		m.setErr(m.ctrl.SortBy(col, st.SortDirection.Reverse()))
	case key.Matches(msg, m.keys.regex):
		m.ctrl.SetUseRegex(!m.ctrl.View().State.UseRegex)
	case key.Matches(msg, m.keys.filter):
		m.mode = modeFilter
		m.loadField()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.kinds):
		m.openPicker(browse.FacetKinds)
	case key.Matches(msg, m.keys.errors):
		m.openPicker(browse.FacetErrors)
	case key.Matches(msg, m.keys.archived):
		m.openPicker(browse.FacetArchived)
	case key.Matches(msg, m.keys.columns):
		m.openPicker(browse.FacetColumns)
	case key.Matches(msg, m.keys.bigger):
		m.stepPageSize(1)
	case key.Matches(msg, m.keys.smaller):
		m.stepPageSize(-1)
	case key.Matches(msg, m.keys.custom):
		m.mode = modePageSize
		m.input.SetValue(m.ctrl.View().State.PageSize.String())
		m.input.Placeholder = "rows per page or all"
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.detail):
		if p := m.selected(); p != nil {
			m.focus = p
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.branches):
		if p := m.selected(); p != nil {
			m.focus = p
			m.mode = modeBranches
		}
	}
	m.syncTable()
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), msg.Type == tea.KeyEnter:
		m.mode = modeTable
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.nextField):
		m.field = (m.field + 1) % len(filterFields)
		m.loadField()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if id := filterFields[m.field]; id == "" {
		m.ctrl.SetCommonFilter(m.input.Value())
	} else {
		m.setErr(m.ctrl.SetColumnFilter(id, m.input.Value()))
	}
	m.table.SetCursor(0)
	m.syncTable()
	return m, cmd
}

func (m Model) updatePageSize(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.mode = modeTable
		m.input.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeTable
		m.input.Blur()
		m.setErr(m.ctrl.SetCustomPageSize(m.input.Value()))
		m.table.SetCursor(0)
		m.syncTable()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := m.pickerState().Options
	switch {
	case key.Matches(msg, m.keys.back, m.keys.quit), msg.Type == tea.KeyEnter:
		m.mode = modeTable
		return m, nil
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, len(opts))
	case key.Matches(msg, m.keys.toggle):
		id := facet.AllID
		if m.cursor > 0 {
			id = opts[m.cursor-1].ID
		}
		switch m.picker {
		case browse.FacetKinds:
			m.ctrl.ToggleKind(id)
		case browse.FacetErrors:
			m.ctrl.ToggleError(id)
		case browse.FacetArchived:
			m.ctrl.ToggleArchived(id)
		case browse.FacetColumns:
			m.setErr(m.ctrl.ToggleColumn(display.ColumnID(id)))
		}
		m.syncTable()
	}
	return m, nil
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.err = err.Error()
	}
}

func (m *Model) loadField() {
	st := m.ctrl.View().State
	id := filterFields[m.field]
	if id == "" {
		m.input.SetValue(st.CommonFilter)
		m.input.Placeholder = "search everything"
		return
	}
	m.input.SetValue(st.ColumnFilters[id])
	col, _ := display.LookupColumn(id)
	m.input.Placeholder = strings.ToLower(col.Title)
}

func (m *Model) openPicker(name string) {
	m.mode = modePicker
	m.picker = name
	m.cursor = 0
}

func (m Model) pickerState() browse.FacetState {
	v := m.ctrl.View()
	switch m.picker {
	case browse.FacetKinds:
		return v.Kinds
	case browse.FacetErrors:
		return v.Errors
	case browse.FacetArchived:
		return v.Archived
	default:
		return v.Shown
	}
}

// cycleSort moves the sort to the next visible column, ascending.
func (m *Model) cycleSort() {
	v := m.ctrl.View()
	next := v.Columns[0].ID
	for i, c := range v.Columns {
		if c.ID == v.State.SortColumn && i+1 < len(v.Columns) {
			next = v.Columns[i+1].ID
		}
	}
	m.setErr(m.ctrl.SortBy(next, listing.Asc))
}

// stepPageSize walks the fixed sizes followed by "all".
func (m *Model) stepPageSize(delta int) {
	sizes := make([]listing.PageSize, 0, len(listing.PageSizeOptions)+1)
	for _, n := range listing.PageSizeOptions {
		sizes = append(sizes, listing.PageSize{N: n})
	}
	sizes = append(sizes, listing.AllRows)

	cur := slices.Index(sizes, m.ctrl.View().State.PageSize)
	next := cur + delta
	if cur < 0 {
		next = 0
	}
	if next < 0 || next >= len(sizes) {
		return
	}
	m.setErr(m.ctrl.SetPageSize(sizes[next]))
	m.table.SetCursor(0)
}

func (m Model) selected() *models.Project {
	items := m.ctrl.View().Page.Items
	i := m.table.Cursor()
	if i < 0 || i >= len(items) {
		return nil
	}
	return items[i]
}

// syncTable copies the current page into the table widget.
func (m *Model) syncTable() {
	v := m.ctrl.View()

	cols := make([]table.Column, len(v.Columns))
	for i, c := range v.Columns {
		cols[i] = table.Column{Title: c.Title, Width: len(c.Title)}
	}
	rows := make([]table.Row, len(v.Page.Items))
	for r, p := range v.Page.Items {
		row := make(table.Row, len(v.Columns))
		for i, c := range v.Columns {
			row[i] = display.RowValue(p, c.ID)
			cols[i].Width = min(max(cols[i].Width, len(row[i])), maxColumnWidth)
		}
		rows[r] = row
	}

	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	// An empty table parks the cursor at -1; bring it back once rows exist.
	if c := m.table.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.table.SetCursor(min(max(c, 0), len(rows)-1))
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("GitLab projects"))
	if m.loading {
		b.WriteString(m.spinner.View() + " loading…")
	}
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.styles.notice.Render(m.notice) + "\n")
	}
	if m.err != "" {
		b.WriteString(m.styles.errText.Render(m.err) + "\n")
	}

	switch m.mode {
	case modeDetail:
		b.WriteString(m.detailView())
		return b.String()
	case modeBranches:
		b.WriteString(m.branchesView())
		return b.String()
	}

	b.WriteString(m.filterView() + "\n")
	if m.mode == modePicker {
		b.WriteString(m.pickerView() + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}
	b.WriteString(m.statusView() + "\n")
	b.WriteString(m.styles.hint.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) filterView() string {
	st := m.ctrl.View().State
	parts := make([]string, 0, len(filterFields))
	for i, id := range filterFields {
		label, val := "search", st.CommonFilter
		if id != "" {
			label, val = string(id), st.ColumnFilters[id]
		}
		text := m.styles.filterLabel.Render(label+":") + val
		if m.mode == modeFilter && i == m.field {
			text = m.styles.active.Render(label+":") + m.input.View()
		}
		if val != "" || (i == m.field && m.mode == modeFilter) {
			parts = append(parts, text)
		}
	}
	if st.UseRegex {
		parts = append(parts, m.styles.active.Render("[regex]"))
	}
	if len(parts) == 0 {
		return m.styles.hint.Render("no text filters")
	}
	return m.styles.status.Render(strings.Join(parts, "  "))
}

func (m Model) pickerView() string {
	f := m.pickerState()
	var b strings.Builder
	b.WriteString(m.styles.overlayTitle.Render(f.Name) + "\n")
	line := func(i int, label string, on bool) {
		cur, box := "  ", "[ ]"
		if i == m.cursor {
			cur = m.styles.cursor.Render("> ")
		}
		if on {
			box = "[x]"
		}
		b.WriteString(cur + box + " " + label + "\n")
	}
	line(0, facet.AllID, f.All)
	for i, o := range f.Options {
		line(i+1, o.Label, o.Selected)
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n"))
}

// statusView reports the visible row range. A stale page shows the trailing
// full window, so the range can overlap the previous page.
func (m Model) statusView() string {
	v := m.ctrl.View()
	if !v.Loaded {
		return ""
	}
	p := v.Page
	status := fmt.Sprintf("Showing %d-%d of %d · page %d/%d · %s per page",
		p.FirstItem(), p.LastItem(), p.Total, p.Number, p.TotalPages, v.State.PageSize)
	if v.State.SortColumn != "" {
		status += fmt.Sprintf(" · sort %s %s", v.State.SortColumn, v.State.SortDirection)
	}
	return m.styles.status.Render(status)
}

func (m Model) detailView() string {
	p := m.focus
	st := m.ctrl.View().State
	hl := func(id display.ColumnID, v string) string {
		if pattern := st.ColumnFilters[id]; pattern != "" {
			return display.Highlight(v, pattern, st.UseRegex, m.mark)
		}
		if st.CommonFilter != "" {
			return display.Highlight(v, st.CommonFilter, false, m.mark)
		}
		return v
	}
	rows := [][2]string{
		{"ID", fmt.Sprint(p.ID)},
		{"Name", hl(display.ColumnName, p.Name)},
		{"URL", p.URL},
		{"Kind", p.Kind},
		{"Description", hl(display.ColumnDescription, p.Description)},
		{"Archived", fmt.Sprint(p.Archived)},
		{"Default branch", hl(display.ColumnDefaultBranch, p.DefaultBranchName())},
		{"Parent artifact", hl(display.ColumnParentArtifactID, p.ParentArtifactID())},
		{"Parent version", hl(display.ColumnParentVersion, p.ParentVersion())},
		{"CI config", p.ConfigurationFile()},
		{"Branches", fmt.Sprint(len(p.Branches))},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.styles.label.Render(r[0]) + m.styles.value.Render(r[1]) + "\n")
	}
	for _, e := range display.ErrorValues(p) {
		b.WriteString(m.styles.label.Render("Error") + m.styles.errText.Render(e.Code+" "+e.Message) + "\n")
	}
	vars := p.Variables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(m.styles.label.Render("Variable") + k + "=" + vars[k] + "\n")
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n")) + "\n" +
		m.styles.hint.Render("esc back")
}

func (m Model) branchesView() string {
	p := m.focus
	header := []string{"Branch", "Last commit", "Config", "Group", "Artifact", "Parent", "Errors"}
	lines := [][]string{header}
	for i := range p.Branches {
		br := &p.Branches[i]
		parent := br.ParentArtifactID()
		if v := br.ParentVersion(); v != "" {
			parent += ":" + v
		}
		lines = append(lines, []string{
			br.Name, br.LastCommitCreatedAt, br.GitLabConfig, br.GroupID, br.ArtifactID, parent, display.BranchErrorText(br),
		})
	}

	widths := make([]int, len(header))
	for _, l := range lines {
		for i, cell := range l {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	var b strings.Builder
	b.WriteString(m.styles.overlayTitle.Render(p.Name+" branches") + "\n")
	for n, l := range lines {
		cells := make([]string, len(l))
		for i, cell := range l {
			cells[i] = lipgloss.NewStyle().Width(widths[i] + 2).Render(cell)
		}
		row := strings.Join(cells, "")
		if n == 0 {
			row = m.styles.filterLabel.Render(row)
		}
		b.WriteString(row + "\n")
	}
	if len(p.Branches) == 0 {
		b.WriteString("no branches\n")
	}
	return m.styles.overlay.Render(strings.TrimRight(b.String(), "\n")) + "\n" +
		m.styles.hint.Render("esc back")
}
