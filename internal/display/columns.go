package display

// ColumnID identifies a column of the project listing. IDs double as
// preference keys for the per-column text filters.
type ColumnID string

const (
	ColumnAll              ColumnID = "All"
	ColumnName             ColumnID = "name"
	ColumnKind             ColumnID = "kinds"
	ColumnDescription      ColumnID = "description"
	ColumnDefaultBranch    ColumnID = "defaultBranch"
	ColumnParentArtifactID ColumnID = "parentArtifactId"
	ColumnParentVersion    ColumnID = "parentVersion"
	ColumnErrors           ColumnID = "errors"
	ColumnArchived         ColumnID = "archived"
	ColumnURL              ColumnID = "url"
)

// Column describes one listing column.
type Column struct {
	ID         ColumnID
	Title      string
	Filterable bool // has its own free-text filter
}

// Columns is the column catalog in display order.
var Columns = []Column{
	{ID: ColumnName, Title: "Name", Filterable: true},
	{ID: ColumnKind, Title: "Kind"},
	{ID: ColumnDescription, Title: "Description", Filterable: true},
	{ID: ColumnDefaultBranch, Title: "Default branch", Filterable: true},
	{ID: ColumnParentArtifactID, Title: "Parent artifact", Filterable: true},
	{ID: ColumnParentVersion, Title: "Parent version", Filterable: true},
	{ID: ColumnErrors, Title: "Errors"},
	{ID: ColumnArchived, Title: "Archived"},
	{ID: ColumnURL, Title: "URL"},
}

// LookupColumn returns the catalog entry for id.
func LookupColumn(id ColumnID) (Column, bool) {
	for _, c := range Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// FilterableColumns returns the columns that carry a free-text filter.
func FilterableColumns() []Column {
	var out []Column
	for _, c := range Columns {
		if c.Filterable {
			out = append(out, c)
		}
	}
	return out
}
