package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds() *Facet {
	return New("kinds", Option{ID: "LIBRARY"}, Option{ID: "SERVICE"}, Option{ID: "APP", Label: "Application"})
}

func TestNew_DropsReservedAndDuplicates(t *testing.T) {
	f := New("x", Option{ID: "a"}, Option{ID: AllID}, Option{ID: "a"}, Option{ID: "b", Selected: true})
	require.Equal(t, 2, f.Len())
	opts := f.Options()
	assert.Equal(t, "a", opts[0].ID)
	assert.Equal(t, "a", opts[0].Label, "label defaults to id")
	assert.False(t, opts[1].Selected, "options start unselected")
}

func TestToggle_AllPropagates(t *testing.T) {
	f := kinds()

	require.True(t, f.Toggle(AllID))
	assert.True(t, f.All())
	for _, o := range f.Options() {
		assert.True(t, o.Selected, o.ID)
	}

	require.True(t, f.Toggle(AllID))
	assert.False(t, f.All())
	for _, o := range f.Options() {
		assert.False(t, o.Selected, o.ID)
	}
}

func TestToggle_RecomputesAll(t *testing.T) {
	f := kinds()

	f.Toggle("LIBRARY")
	f.Toggle("SERVICE")
	assert.False(t, f.All(), "siblings disagree")

	f.Toggle("APP")
	assert.True(t, f.All(), "every sibling selected")
	assert.True(t, f.IsSelected(AllID))

	f.Toggle("SERVICE")
	assert.False(t, f.All())
	assert.Equal(t, []string{"LIBRARY", "APP"}, f.Selection().IDs)
}

func TestToggle_AllClearedWhenEverySiblingCleared(t *testing.T) {
	f := kinds()
	f.Toggle(AllID)
	f.Toggle("LIBRARY")
	f.Toggle("SERVICE")
	f.Toggle("APP")

	assert.False(t, f.All())
	assert.True(t, f.Selection().Empty())
}

func TestToggle_Unknown(t *testing.T) {
	f := kinds()
	assert.False(t, f.Toggle("nope"))
	assert.True(t, f.Selection().Empty())
}

func TestAll_EmptyFacet(t *testing.T) {
	f := New("errors")
	assert.False(t, f.All())
	f.Toggle(AllID)
	assert.False(t, f.All(), "nothing to select")
}

func TestSetAndEncode(t *testing.T) {
	f := kinds()

	f.Set([]string{"SERVICE", " APP ", "unknown"})
	assert.Equal(t, "SERVICE,APP", f.Encode())

	f.Set([]string{AllID})
	assert.Equal(t, "All,LIBRARY,SERVICE,APP", f.Encode())

	f.Set(nil)
	assert.Equal(t, "", f.Encode())
}

func TestAllChosen(t *testing.T) {
	f := kinds()
	f.Toggle("LIBRARY")
	f.Toggle("SERVICE")
	f.Toggle("APP")
	assert.True(t, f.All())
	assert.False(t, f.AllChosen(), "options picked one by one")
	assert.Equal(t, "LIBRARY,SERVICE,APP", f.Encode())

	f.Toggle(AllID)
	assert.False(t, f.All())
	f.Toggle(AllID)
	assert.True(t, f.AllChosen())
	assert.Equal(t, "All,LIBRARY,SERVICE,APP", f.Encode())

	f.Toggle("APP")
	f.Toggle("APP")
	assert.True(t, f.All())
	assert.False(t, f.AllChosen(), "touching an option drops the aggregate")

	f.Restore("", false, true)
	assert.True(t, f.AllChosen(), "default of all counts as chosen")
	f.Restore("LIBRARY,SERVICE,APP", true, false)
	assert.False(t, f.AllChosen())
	f.Restore("All", true, false)
	assert.True(t, f.AllChosen())
}

func TestRestore(t *testing.T) {
	f := kinds()
	f.Restore("", false, true)
	assert.True(t, f.All(), "absent preference uses default")

	f.Restore("", false, false)
	assert.True(t, f.Selection().Empty())

	f.Restore("All", true, false)
	assert.True(t, f.All(), "stored All selects everything")

	f.Restore("LIB,SERVICE", true, true)
	assert.Equal(t, []string{"SERVICE"}, f.Selection().IDs, "tokens match exactly")

	f.Restore("", true, true)
	assert.True(t, f.Selection().Empty(), "stored empty value means nothing selected")
}

func TestSelectionHas(t *testing.T) {
	s := Selection{IDs: []string{"a"}}
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
	assert.True(t, Selection{All: true}.Has("b"))
	assert.True(t, Selection{}.Empty())
	assert.False(t, s.Empty())
}

func TestDecode(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Decode(" a,,b ,"))
	assert.Nil(t, Decode(""))
}
