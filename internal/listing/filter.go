// Package listing implements the filter, sort and paginate passes over the
// in-memory project collection.
package listing

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/facet"
	"github.com/hejny/gitlabinfo/internal/models"
)

// Archived-state facet options.
const (
	ArchivedLive = "LIVE"
	ArchivedOnly = "ARCHIVED"
)

// Criteria is the complete filter state of the listing.
type Criteria struct {
	ColumnFilters map[display.ColumnID]string
	Common        string
	UseRegex      bool
	Kinds         facet.Selection
	Errors        facet.Selection
	Archived      facet.Selection
}

// textColumns are the columns whose free-text filters take part in filtering.
var textColumns = []display.ColumnID{
	display.ColumnName,
	display.ColumnDefaultBranch,
	display.ColumnParentArtifactID,
	display.ColumnParentVersion,
	display.ColumnDescription,
}

// Filter returns the projects that satisfy every predicate of c, in input
// order. A nil logger discards regex diagnostics.
func Filter(projects []*models.Project, c Criteria, logger *slog.Logger) []*models.Project {
	m := newMatcher(c.UseRegex, logger)
	common := strings.ToLower(c.Common)
	mustBeLive := slices.Contains(c.Archived.IDs, ArchivedLive)

	out := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if !matchesColumns(m, p, c.ColumnFilters) {
			continue
		}
		if !c.Kinds.All && !slices.Contains(c.Kinds.IDs, p.Kind) {
			continue
		}
		if !matchesErrors(p, c.Errors) {
			continue
		}
		if !c.Archived.All && mustBeLive == p.Archived {
			continue
		}
		if c.Archived.Empty() || !MatchesCommon(p, common) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesColumns(m *matcher, p *models.Project, filters map[display.ColumnID]string) bool {
	for _, id := range textColumns {
		if !m.match(display.RowValue(p, id), filters[id]) {
			return false
		}
	}
	return true
}

// matchesErrors requires every selected error code to be present on the
// project (AND semantics). No selection passes everything.
func matchesErrors(p *models.Project, sel facet.Selection) bool {
	if sel.All || len(sel.IDs) == 0 {
		return true
	}
	codes := display.ErrorCodes(p)
	for _, want := range sel.IDs {
		if !slices.Contains(codes, strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// MatchesCommon reports whether the lower-cased token occurs in any searchable
// field of the project or its branches. It stops at the first hit.
func MatchesCommon(p *models.Project, token string) bool {
	if token == "" {
		return true
	}
	if containsAny(token,
		p.Name,
		p.URL,
		p.Kind,
		p.Description,
		p.ConfigurationFile(),
		display.ErrorText(p),
	) {
		return true
	}

	vars := p.Variables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if containsAny(token, k, vars[k]) {
			return true
		}
	}

	for i := range p.Branches {
		b := &p.Branches[i]
		if containsAny(token,
			b.Name,
			b.LastCommitCreatedAt,
			b.GitLabConfig,
			b.GroupID,
			b.ArtifactID,
			b.ParentArtifactID(),
			b.ParentVersion(),
			display.BranchErrorText(b),
		) {
			return true
		}
	}
	return false
}

func containsAny(token string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), token) {
			return true
		}
	}
	return false
}

// matcher evaluates column predicates, compiling each regex once per pass.
type matcher struct {
	useRegex bool
	logger   *slog.Logger
	compiled map[string]*regexp.Regexp
	invalid  map[string]bool
}

func newMatcher(useRegex bool, logger *slog.Logger) *matcher {
	return &matcher{
		useRegex: useRegex,
		logger:   logger,
		compiled: make(map[string]*regexp.Regexp),
		invalid:  make(map[string]bool),
	}
}

func (m *matcher) match(value, filter string) bool {
	if filter == "" {
		return true
	}
	if !m.useRegex {
		return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
	}
	if m.invalid[filter] {
		return false
	}
	re, ok := m.compiled[filter]
	if !ok {
		var err error
		re, err = regexp.Compile("(?i)" + filter)
		if err != nil {
			m.invalid[filter] = true
			if m.logger != nil {
				m.logger.Warn("invalid regex pattern", "pattern", filter, "error", err)
			}
			return false
		}
		m.compiled[filter] = re
	}
	return re.MatchString(value)
}
