package display

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hejny/gitlabinfo/internal/models"
)

// RowValue returns the displayable value of a column for a project.
// Unknown columns yield "".
func RowValue(p *models.Project, id ColumnID) string {
	switch id {
	case ColumnName:
		return p.Name
	case ColumnKind:
		return p.Kind
	case ColumnDescription:
		return p.Description
	case ColumnDefaultBranch:
		return p.DefaultBranchName()
	case ColumnParentArtifactID:
		return p.ParentArtifactID()
	case ColumnParentVersion:
		return p.ParentVersion()
	case ColumnErrors:
		return ErrorText(p)
	case ColumnArchived:
		return strconv.FormatBool(p.Archived)
	case ColumnURL:
		return p.URL
	default:
		return ""
	}
}

// ErrorValues aggregates project-level and branch-level errors, keeping the
// first occurrence of each code, and orders the result by code.
func ErrorValues(p *models.Project) []models.Error {
	seen := make(map[string]struct{})
	var out []models.Error
	add := func(errs []models.Error) {
		for _, e := range errs {
			if _, ok := seen[e.Code]; ok {
				continue
			}
			seen[e.Code] = struct{}{}
			out = append(out, e)
		}
	}
	add(p.Errors)
	for i := range p.Branches {
		add(p.Branches[i].Errors)
	}
	slices.SortStableFunc(out, func(a, b models.Error) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out
}

// ErrorCodes returns the deduplicated, ordered error codes of a project.
func ErrorCodes(p *models.Project) []string {
	errs := ErrorValues(p)
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		if strings.TrimSpace(e.Code) == "" {
			continue
		}
		codes = append(codes, e.Code)
	}
	return codes
}

// ErrorText renders the error codes of a project for display and search.
func ErrorText(p *models.Project) string {
	return strings.Join(ErrorCodes(p), ", ")
}

// BranchErrorText renders the error codes found on a single branch.
func BranchErrorText(b *models.Branch) string {
	codes := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		if e.Code != "" {
			codes = append(codes, e.Code)
		}
	}
	return strings.Join(codes, ", ")
}

// Highlight wraps every case-insensitive match of pattern in value with mark.
// An empty or malformed pattern returns value unchanged.
func Highlight(value, pattern string, useRegex bool, mark func(string) string) string {
	if pattern == "" || value == "" {
		return value
	}
	expr := regexp.QuoteMeta(pattern)
	if useRegex {
		expr = pattern
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return value
	}
	return re.ReplaceAllStringFunc(value, func(m string) string {
		if m == "" {
			return m
		}
		return mark(m)
	})
}
