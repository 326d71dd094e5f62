// Package facet models a multi-select filter dimension with a derived "All"
// aggregate option.
package facet

import "strings"

// AllID is the identifier of the synthetic aggregate option.
const AllID = "All"

// Option is one selectable value of a facet.
type Option struct {
	ID       string
	Label    string
	Selected bool
}

// Selection is the effective state of a facet as seen by the filter engine:
// either everything (All) or the listed subset.
type Selection struct {
	All bool
	IDs []string
}

// Has reports whether id is part of the selection.
func (s Selection) Has(id string) bool {
	if s.All {
		return true
	}
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Empty reports whether nothing at all is selected.
func (s Selection) Empty() bool {
	return !s.All && len(s.IDs) == 0
}

// Facet is an ordered set of options. The "All" option is never stored; its
// state is derived from the options after every change.
type Facet struct {
	Name    string
	options []Option
	chosen  bool // the aggregate itself was picked, not just every option
}

// New creates a facet with the given options, all unselected. Duplicate IDs
// and the reserved AllID are dropped.
func New(name string, options ...Option) *Facet {
	f := &Facet{Name: name}
	seen := make(map[string]bool)
	for _, o := range options {
		if o.ID == AllID || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		if o.Label == "" {
			o.Label = o.ID
		}
		o.Selected = false
		f.options = append(f.options, o)
	}
	return f
}

// Options returns a copy of the options in insertion order.
func (f *Facet) Options() []Option {
	out := make([]Option, len(f.options))
	copy(out, f.options)
	return out
}

// Len returns the number of regular options.
func (f *Facet) Len() int { return len(f.options) }

// All reports whether the aggregate option is selected: true iff there is at
// least one option and every option is selected.
func (f *Facet) All() bool {
	if len(f.options) == 0 {
		return false
	}
	for _, o := range f.options {
		if !o.Selected {
			return false
		}
	}
	return true
}

// AllChosen reports whether everything is selected because the aggregate
// option itself was picked (Toggle or Set with AllID, or a default of all).
// Selecting every option one by one does not count.
func (f *Facet) AllChosen() bool {
	return f.chosen && f.All()
}

// IsSelected reports whether the option id (or AllID) is selected.
func (f *Facet) IsSelected(id string) bool {
	if id == AllID {
		return f.All()
	}
	for _, o := range f.options {
		if o.ID == id {
			return o.Selected
		}
	}
	return false
}

// Toggle flips an option. Toggling AllID selects every option when the
// aggregate was unselected and clears every option otherwise. It returns
// false for unknown IDs.
func (f *Facet) Toggle(id string) bool {
	if id == AllID {
		all := !f.All()
		f.setAll(all)
		f.chosen = all
		return true
	}
	for i := range f.options {
		if f.options[i].ID == id {
			f.options[i].Selected = !f.options[i].Selected
			f.chosen = false
			return true
		}
	}
	return false
}

// Set replaces the selection with ids. AllID selects everything; unknown IDs
// are ignored.
func (f *Facet) Set(ids []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	if want[AllID] {
		f.setAll(true)
		f.chosen = true
		return
	}
	for i := range f.options {
		f.options[i].Selected = want[f.options[i].ID]
	}
	f.chosen = false
}

func (f *Facet) setAll(selected bool) {
	for i := range f.options {
		f.options[i].Selected = selected
	}
}

// Selection returns the effective selection. When All is set, IDs still lists
// every option so callers may use either form.
func (f *Facet) Selection() Selection {
	s := Selection{All: f.All()}
	for _, o := range f.options {
		if o.Selected {
			s.IDs = append(s.IDs, o.ID)
		}
	}
	return s
}

// Encode serializes the selection as comma-joined IDs, with AllID first when
// the aggregate was chosen.
func (f *Facet) Encode() string {
	ids := f.Selection().IDs
	if f.AllChosen() {
		ids = append([]string{AllID}, ids...)
	}
	return strings.Join(ids, ",")
}

// Decode splits an encoded selection into IDs, dropping blanks.
func Decode(stored string) []string {
	var ids []string
	for _, part := range strings.Split(stored, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// Restore applies a persisted selection. When present is false the facet
// falls back to its default: everything when defaultAll is set, nothing
// otherwise.
func (f *Facet) Restore(stored string, present, defaultAll bool) {
	if !present {
		f.setAll(defaultAll)
		f.chosen = defaultAll
		return
	}
	f.Set(Decode(stored))
}
