package listing

import (
	"slices"
	"strings"

	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/models"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps "desc" to Desc and everything else to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

func (d Direction) sign() int {
	if d == Desc {
		return -1
	}
	return 1
}

// Sort orders projects in place by column. Equal keys keep their relative
// order. An empty column leaves the slice untouched.
func Sort(projects []*models.Project, column display.ColumnID, dir Direction) {
	if column == "" {
		return
	}
	key := sortKey(column)
	sign := dir.sign()
	slices.SortStableFunc(projects, func(a, b *models.Project) int {
		return sign * strings.Compare(key(a), key(b))
	})
}

func sortKey(column display.ColumnID) func(*models.Project) string {
	if column == display.ColumnErrors {
		return func(p *models.Project) string {
			return strings.Join(display.ErrorCodes(p), "")
		}
	}
	return func(p *models.Project) string {
		return strings.ToLower(display.RowValue(p, column))
	}
}
