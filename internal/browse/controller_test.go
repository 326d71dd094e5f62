package browse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/facet"
	"github.com/hejny/gitlabinfo/internal/listing"
	"github.com/hejny/gitlabinfo/internal/models"
)

type memPrefs struct {
	values map[string]string
	writes int
}

func newMemPrefs(kv ...string) *memPrefs {
	m := &memPrefs{values: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		m.values[kv[i]] = kv[i+1]
	}
	return m
}

func (m *memPrefs) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memPrefs) Set(key, value string) {
	m.values[key] = value
	m.writes++
}

func projects() []models.Project {
	return []models.Project{
		{ID: 1, Name: "LibCore", Kind: "LIBRARY", Errors: []models.Error{{Code: "E1"}}},
		{ID: 2, Name: "MyLib", Kind: "LIBRARY", Archived: true, Errors: []models.Error{{Code: "E1"}}},
		{ID: 3, Name: "Gateway", Kind: "SERVICE",
			Branches: []models.Branch{{Name: "dev", Errors: []models.Error{{Code: "E2"}}}}},
		{ID: 4, Name: "Auth", Kind: "SERVICE"},
		{ID: 5, Name: "Billing", Kind: "SERVICE"},
		{ID: 6, Name: "Catalog", Kind: "SERVICE"},
		{ID: 7, Name: "Docs", Kind: "SITE"},
	}
}

func pageNames(v View) []string {
	out := make([]string, len(v.Page.Items))
	for i, p := range v.Page.Items {
		out[i] = p.Name
	}
	return out
}

func optionIDs(f FacetState) []string {
	var ids []string
	for _, o := range f.Options {
		ids = append(ids, o.ID)
	}
	return ids
}

func loaded(t *testing.T, prefs *memPrefs) *Controller {
	t.Helper()
	c := New(prefs, nil)
	c.Load(projects())
	return c
}

func TestLoad_Defaults(t *testing.T) {
	c := loaded(t, newMemPrefs())
	v := c.View()

	assert.True(t, v.Loaded)
	assert.Equal(t, 7, v.Page.Total)
	assert.Equal(t, 5, len(v.Page.Items))
	assert.Equal(t, 2, v.Page.TotalPages)
	assert.True(t, v.Kinds.All)
	assert.True(t, v.Archived.All)
	assert.True(t, v.Shown.All)
	assert.False(t, v.Errors.All)
	assert.Equal(t, []string{"LIBRARY", "SERVICE", "SITE"}, optionIDs(v.Kinds))
	assert.Equal(t, []string{"E1", "E2"}, optionIDs(v.Errors), "branch errors are included")
	assert.Len(t, v.Columns, len(display.Columns))
}

func TestLoad_RestoresPreferences(t *testing.T) {
	prefs := newMemPrefs(
		KeyKinds, "SERVICE",
		KeyErrors, "E2",
		KeyArchived, "LIVE",
		KeyColumns, "name,errors",
		KeySize, "all",
		KeySortBy, "name",
		KeySortDest, "desc",
	)
	c := loaded(t, prefs)
	v := c.View()

	assert.Equal(t, []string{"Gateway"}, pageNames(v))
	assert.Equal(t, listing.AllRows, v.State.PageSize)
	require.Len(t, v.Columns, 2)
	assert.Equal(t, display.ColumnName, v.Columns[0].ID)
	assert.Equal(t, display.ColumnErrors, v.Columns[1].ID)
}

func TestLoad_EmptyStoredKindsMeansAll(t *testing.T) {
	c := loaded(t, newMemPrefs(KeyKinds, ""))
	assert.True(t, c.View().Kinds.All)
}

func TestLoad_EmptyStoredErrorsMeansNone(t *testing.T) {
	c := loaded(t, newMemPrefs(KeyErrors, ""))
	v := c.View()
	assert.False(t, v.Errors.All)
	assert.Equal(t, 7, v.Page.Total)
}

func TestLoad_LegacyRegexKey(t *testing.T) {
	c := New(newMemPrefs("userRegex", "true"), nil)
	assert.True(t, c.View().State.UseRegex)

	c = New(newMemPrefs("userRegex", "true", KeyUseRegex, "false"), nil)
	assert.False(t, c.View().State.UseRegex, "current key wins")
}

func TestToggle_AllPropagates(t *testing.T) {
	c := loaded(t, newMemPrefs())

	require.True(t, c.ToggleKind(facet.AllID))
	v := c.View()
	assert.False(t, v.Kinds.All)
	assert.Equal(t, 0, v.Page.Total, "no kind selected hides everything")
	assert.Equal(t, "", c.prefs.(*memPrefs).values[KeyKinds])

	c.ToggleKind("LIBRARY")
	c.ToggleKind("SERVICE")
	assert.False(t, c.View().Kinds.All)
	c.ToggleKind("SITE")
	v = c.View()
	assert.True(t, v.Kinds.All, "selecting every option derives All")
	assert.Equal(t, "LIBRARY,SERVICE,SITE", c.prefs.(*memPrefs).values[KeyKinds])

	c.ToggleKind(facet.AllID)
	c.ToggleKind(facet.AllID)
	assert.Equal(t, "All,LIBRARY,SERVICE,SITE", c.prefs.(*memPrefs).values[KeyKinds])
}

func TestToggle_UnknownOption(t *testing.T) {
	c := loaded(t, newMemPrefs())
	assert.False(t, c.ToggleKind("NOPE"))
	assert.ErrorIs(t, c.ToggleColumn("nope"), ErrUnknownColumn)
}

func TestArchivedFacet(t *testing.T) {
	c := loaded(t, newMemPrefs())

	c.SelectArchived([]string{listing.ArchivedLive})
	assert.NotContains(t, pageNames(c.View()), "MyLib")

	c.SelectArchived([]string{listing.ArchivedOnly})
	require.NoError(t, c.SetPageSize(listing.AllRows))
	assert.Equal(t, []string{"MyLib"}, pageNames(c.View()))

	c.SelectArchived(nil)
	assert.Equal(t, 0, c.View().Page.Total, "empty archived selection suppresses all rows")
}

func TestErrorsFacet_AndSemantics(t *testing.T) {
	c := loaded(t, newMemPrefs())
	c.SelectErrors([]string{"E1"})
	assert.Equal(t, []string{"LibCore", "MyLib"}, pageNames(c.View()))

	c.ToggleError("E2")
	v := c.View()
	assert.True(t, v.Errors.All, "every code is selected")
	assert.Equal(t, 0, v.Page.Total, "codes picked one by one still require all of them")
	assert.Equal(t, "E1,E2", c.prefs.(*memPrefs).values[KeyErrors])

	c.SelectErrors([]string{facet.AllID})
	assert.Equal(t, 7, c.View().Page.Total, "the chosen aggregate lifts the constraint")
}

func TestErrorsFacet_RestoredCodesKeepAndSemantics(t *testing.T) {
	c := loaded(t, newMemPrefs(KeyErrors, "E1,E2"))
	assert.Equal(t, 0, c.View().Page.Total)

	c = loaded(t, newMemPrefs(KeyErrors, "All,E1,E2"))
	assert.Equal(t, 7, c.View().Page.Total)
}

func TestColumns_EmptySelectionFallsBackToName(t *testing.T) {
	c := loaded(t, newMemPrefs())
	require.NoError(t, c.SelectColumns(nil))
	v := c.View()
	require.Len(t, v.Columns, 1)
	assert.Equal(t, display.ColumnName, v.Columns[0].ID)
}

func TestSetColumnFilter(t *testing.T) {
	c := loaded(t, newMemPrefs())

	require.NoError(t, c.SetColumnFilter(display.ColumnName, "lib"))
	assert.Equal(t, []string{"LibCore", "MyLib"}, pageNames(c.View()))

	c.SetUseRegex(true)
	require.NoError(t, c.SetColumnFilter(display.ColumnName, "^Lib"))
	assert.Equal(t, []string{"LibCore"}, pageNames(c.View()))

	prefs := c.prefs.(*memPrefs)
	assert.Equal(t, "^Lib", prefs.values["name"])
	assert.Equal(t, "true", prefs.values[KeyUseRegex])

	assert.ErrorIs(t, c.SetColumnFilter(display.ColumnErrors, "x"), ErrUnknownColumn)
}

func TestSetCommonFilter(t *testing.T) {
	c := loaded(t, newMemPrefs())
	c.SetCommonFilter("e2")
	assert.Equal(t, []string{"Gateway"}, pageNames(c.View()))
	assert.Equal(t, "e2", c.prefs.(*memPrefs).values[KeyCommonFilter])
}

func TestSortBy(t *testing.T) {
	c := loaded(t, newMemPrefs())
	require.NoError(t, c.SetPageSize(listing.AllRows))

	require.NoError(t, c.SortBy(display.ColumnName, listing.Asc))
	assert.Equal(t, []string{"Auth", "Billing", "Catalog", "Docs", "Gateway", "LibCore", "MyLib"}, pageNames(c.View()))

	require.NoError(t, c.SortBy(display.ColumnName, listing.Desc))
	assert.Equal(t, "MyLib", pageNames(c.View())[0])
	assert.Equal(t, "desc", c.prefs.(*memPrefs).values[KeySortDest])

	assert.ErrorIs(t, c.SortBy("nope", listing.Asc), ErrUnknownColumn)
}

func TestPaging(t *testing.T) {
	c := loaded(t, newMemPrefs())

	assert.False(t, c.ChangePage(-1), "cannot go before the first page")
	assert.True(t, c.ChangePage(1))
	v := c.View()
	assert.Equal(t, 2, v.Page.Number)
	assert.Equal(t, []string{"Catalog", "Docs"}, pageNames(v))
	assert.False(t, c.ChangePage(1), "cannot go past the last page")
	assert.Equal(t, "2", c.prefs.(*memPrefs).values[KeyPage])

	// Shrinking the result under the current page clamps it.
	require.NoError(t, c.SetColumnFilter(display.ColumnName, "a"))
	v = c.View()
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 1, v.State.Page)

	c.GoToPage(99)
	assert.Equal(t, 1, c.View().Page.Number)
}

func TestSetPageSize_ResetsPage(t *testing.T) {
	c := loaded(t, newMemPrefs())
	c.ChangePage(1)

	require.NoError(t, c.SetPageSize(listing.PageSize{N: 3}))
	v := c.View()
	assert.Equal(t, 1, v.Page.Number)
	assert.Equal(t, 3, len(v.Page.Items))
	assert.Equal(t, 3, v.Page.TotalPages)

	require.NoError(t, c.SetCustomPageSize("7"))
	assert.Equal(t, "7", c.prefs.(*memPrefs).values[KeySize])
	assert.True(t, c.View().State.PageSize.Custom())

	assert.ErrorIs(t, c.SetCustomPageSize("0"), ErrInvalidPageSize)
	assert.ErrorIs(t, c.SetCustomPageSize("abc"), ErrInvalidPageSize)
	assert.ErrorIs(t, c.SetPageSize(listing.PageSize{}), ErrInvalidPageSize)
}

func TestStoredPageIsClamped(t *testing.T) {
	c := loaded(t, newMemPrefs(KeyPage, "9"))
	v := c.View()
	assert.Equal(t, 2, v.Page.Number)
	// The stale page shows the trailing full window.
	assert.Equal(t, []string{"Gateway", "Auth", "Billing", "Catalog", "Docs"}, pageNames(v))
}

func TestGoToPage_HugeNumber(t *testing.T) {
	c := loaded(t, newMemPrefs(KeyPage, "2305843009213693953"))
	assert.Equal(t, 2, c.View().Page.Number)

	c.GoToPage(math.MaxInt)
	v := c.View()
	assert.Equal(t, 2, v.Page.Number)
	assert.Equal(t, "2", c.prefs.(*memPrefs).values[KeyPage])
}

func TestBeforeLoad_KeepsDerivedFacetPreferences(t *testing.T) {
	prefs := newMemPrefs(KeyKinds, "SITE", KeyPage, "2")
	c := New(prefs, nil)
	c.SetCommonFilter("x")

	assert.Equal(t, "SITE", prefs.values[KeyKinds])
	assert.Equal(t, "2", prefs.values[KeyPage])
	assert.False(t, c.View().Loaded)
}

func TestEveryActionPersistsWholeState(t *testing.T) {
	prefs := newMemPrefs()
	c := loaded(t, prefs)
	before := prefs.writes

	c.SetCommonFilter("lib")
	written := prefs.writes - before
	// scalar keys, one per filterable column, and four facets
	want := 6 + len(display.FilterableColumns()) + 4
	assert.Equal(t, want, written)
}

func TestProject(t *testing.T) {
	c := loaded(t, newMemPrefs())
	p, ok := c.Project(3)
	require.True(t, ok)
	assert.Equal(t, "Gateway", p.Name)

	_, ok = c.Project(42)
	assert.False(t, ok)
}
