package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hejny/gitlabinfo/internal/browse"
	"github.com/hejny/gitlabinfo/internal/display"
	"github.com/hejny/gitlabinfo/internal/facet"
	"github.com/hejny/gitlabinfo/internal/listing"
	"github.com/hejny/gitlabinfo/internal/models"
	"github.com/hejny/gitlabinfo/internal/output"
	"github.com/hejny/gitlabinfo/internal/source"
	"github.com/hejny/gitlabinfo/internal/store"
)

// listOptions mirrors the flags of 'projects list'. Only flags the user set
// are applied; everything else comes from the saved preferences.
type listOptions struct {
	Name           string
	DefaultBranch  string
	ParentArtifact string
	ParentVersion  string
	Description    string
	Search         string
	Regex          bool
	Kinds          []string
	Errors         []string
	Archived       []string
	Columns        []string
	Sort           string
	Order          string
	Page           int
	Size           string
	JSON           bool
}

var (
	listOpts    listOptions
	projectJSON bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project", "p"},
	Short:   "List and inspect projects",
}

var projectsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects with the saved filters, sort and paging",
	Long: `List projects. Filter, sort and paging flags update the saved view, so
the next run (or 'glinfo browse') starts where this one left off.

Column filters are case-insensitive substrings, or regular expressions with
--regex. --search matches any field of a project or its branches.`,
	Example: `  glinfo projects list --kind LIBRARY --archived live
  glinfo projects list --name '^lib' --regex --sort name --order desc
  glinfo projects list --size all --columns name,kinds,errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectsListRun(listOpts, cmd.Flags().Changed)
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectsShowRun(args[0])
	},
}

var projectsBranchesCmd = &cobra.Command{
	Use:   "branches <id>",
	Short: "List the branches of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectsBranchesRun(args[0])
	},
}

var projectsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch projects and store a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectsRefreshRun()
	},
}

func init() {
	f := projectsListCmd.Flags()
	f.StringVar(&listOpts.Name, "name", "", "Filter by project name")
	f.StringVar(&listOpts.DefaultBranch, "default-branch", "", "Filter by default branch name")
	f.StringVar(&listOpts.ParentArtifact, "parent-artifact", "", "Filter by parent artifactId")
	f.StringVar(&listOpts.ParentVersion, "parent-version", "", "Filter by parent version")
	f.StringVar(&listOpts.Description, "description", "", "Filter by description")
	f.StringVarP(&listOpts.Search, "search", "s", "", "Search every field of a project and its branches")
	f.BoolVar(&listOpts.Regex, "regex", false, "Treat column filters as regular expressions")
	f.StringSliceVar(&listOpts.Kinds, "kind", nil, "Kinds to show (All for every kind)")
	f.StringSliceVar(&listOpts.Errors, "error", nil, "Error codes a project must all have")
	f.StringSliceVar(&listOpts.Archived, "archived", nil, "Archived state: live, archived or all")
	f.StringSliceVar(&listOpts.Columns, "columns", nil, "Visible columns (All for every column)")
	f.StringVar(&listOpts.Sort, "sort", "", "Sort column")
	f.StringVar(&listOpts.Order, "order", "", "Sort direction: asc or desc")
	f.IntVar(&listOpts.Page, "page", 1, "Page number")
	f.StringVar(&listOpts.Size, "size", "", "Rows per page, or all")
	f.BoolVar(&listOpts.JSON, "json", false, "Print the visible page as JSON")

	projectsShowCmd.Flags().BoolVar(&projectJSON, "json", false, "Print the project as JSON")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsBranchesCmd)
	projectsCmd.AddCommand(projectsRefreshCmd)
	rootCmd.AddCommand(projectsCmd)
}

// readOnlyPrefs drops writes, for --dry-run.
type readOnlyPrefs struct{ browse.Preferences }

func (readOnlyPrefs) Set(string, string) {}

// newController restores the saved view over the store's preferences.
func newController(ctx context.Context, s store.Store) *browse.Controller {
	var prefs browse.Preferences = store.NewPreferencePort(ctx, s, logger)
	if dryRun {
		prefs = readOnlyPrefs{prefs}
	}
	return browse.New(prefs, logger)
}

func projectsListRun(opts listOptions, changed func(flag string) bool) error {
	ctx := context.Background()
	s, err := getStore()
	if err != nil {
		return err
	}
	res, err := loadProjects(ctx)
	if err != nil {
		return err
	}
	reportStale(res)

	ctrl := newController(ctx, s)
	ctrl.Load(res.Projects)
	if err := applyListOptions(ctrl, opts, changed); err != nil {
		return err
	}

	v := ctrl.View()
	if opts.JSON {
		return ui.JSON(pageJSON{
			Page:       v.Page.Number,
			TotalPages: v.Page.TotalPages,
			Total:      v.Page.Total,
			Projects:   v.Page.Items,
		})
	}

	if v.Page.Total == 0 {
		ui.Info("No projects match the current filters.")
		return nil
	}

	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = c.Title
	}
	table := ui.Table(headers)
	for _, p := range v.Page.Items {
		row := make([]string, len(v.Columns))
		for i, c := range v.Columns {
			row[i] = cellValue(p, c, v.State)
		}
		table.Append(row)
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "\nShowing %d-%d of %d (page %d/%d)\n",
		v.Page.FirstItem(), v.Page.LastItem(), v.Page.Total, v.Page.Number, v.Page.TotalPages)
	return nil
}

type pageJSON struct {
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Total      int               `json:"total"`
	Projects   []*models.Project `json:"projects"`
}

// applyListOptions feeds the flags the user set into the controller, the
// same way the interactive browser does.
func applyListOptions(ctrl *browse.Controller, opts listOptions, changed func(string) bool) error {
	filters := []struct {
		flag  string
		id    display.ColumnID
		value string
	}{
		{"name", display.ColumnName, opts.Name},
		{"default-branch", display.ColumnDefaultBranch, opts.DefaultBranch},
		{"parent-artifact", display.ColumnParentArtifactID, opts.ParentArtifact},
		{"parent-version", display.ColumnParentVersion, opts.ParentVersion},
		{"description", display.ColumnDescription, opts.Description},
	}
	for _, f := range filters {
		if changed(f.flag) {
			if err := ctrl.SetColumnFilter(f.id, f.value); err != nil {
				return err
			}
		}
	}
	if changed("search") {
		ctrl.SetCommonFilter(opts.Search)
	}
	if changed("regex") {
		ctrl.SetUseRegex(opts.Regex)
	}
	if changed("kind") {
		ctrl.SelectKinds(opts.Kinds)
	}
	if changed("error") {
		ctrl.SelectErrors(opts.Errors)
	}
	if changed("archived") {
		ids, err := archivedIDs(opts.Archived)
		if err != nil {
			return err
		}
		ctrl.SelectArchived(ids)
	}
	if changed("columns") {
		ids := make([]display.ColumnID, len(opts.Columns))
		for i, c := range opts.Columns {
			ids[i] = display.ColumnID(strings.TrimSpace(c))
		}
		if err := ctrl.SelectColumns(ids); err != nil {
			return err
		}
	}
	if changed("sort") || changed("order") {
		st := ctrl.View().State
		col, dir := st.SortColumn, st.SortDirection
		if changed("sort") {
			col = display.ColumnID(opts.Sort)
		}
		if col == "" {
			col = display.ColumnName
		}
		if changed("order") {
			dir = listing.ParseDirection(opts.Order)
		}
		if err := ctrl.SortBy(col, dir); err != nil {
			return err
		}
	}
	if changed("size") {
		if err := ctrl.SetCustomPageSize(opts.Size); err != nil {
			return err
		}
	}
	if changed("page") {
		ctrl.GoToPage(opts.Page)
	}
	return nil
}

// archivedIDs maps user input (live, archived, all) to facet option IDs.
func archivedIDs(values []string) ([]string, error) {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case listing.ArchivedLive:
			ids = append(ids, listing.ArchivedLive)
		case listing.ArchivedOnly:
			ids = append(ids, listing.ArchivedOnly)
		case "ALL":
			ids = append(ids, facet.AllID)
		default:
			return nil, fmt.Errorf("invalid --archived value %q (want live, archived or all)", v)
		}
	}
	return ids, nil
}

func cellValue(p *models.Project, c display.Column, st browse.State) string {
	v := display.RowValue(p, c.ID)
	switch c.ID {
	case display.ColumnErrors:
		return output.ErrorsColor(v)
	case display.ColumnArchived:
		return output.ArchivedColor(p.Archived)
	}
	if c.Filterable {
		if pattern := st.ColumnFilters[c.ID]; pattern != "" {
			return display.Highlight(v, pattern, st.UseRegex, output.Mark)
		}
	}
	if st.CommonFilter != "" {
		if hl := display.Highlight(v, st.CommonFilter, false, output.Mark); hl != v {
			return hl
		}
	}
	if c.ID == display.ColumnName {
		return output.Cyan(v)
	}
	return v
}

// findProject resolves a project by ID: from the source when online, else
// (or when the source is unreachable) from the latest snapshot.
func findProject(ctx context.Context, arg string) (*models.Project, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid project id %q", arg)
	}

	if !offline {
		src, err := getSource()
		if err != nil {
			return nil, err
		}
		p, err := src.Project(ctx, id)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, source.ErrNotFound) {
			return nil, err
		}
		logger.Warn("fetch project failed, using last snapshot", "id", id, "error", err)
	}

	s, err := getStore()
	if err != nil {
		return nil, err
	}
	snap, err := s.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(snap.Projects, func(p models.Project) bool { return p.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}
	return &snap.Projects[i], nil
}

func projectsShowRun(arg string) error {
	p, err := findProject(context.Background(), arg)
	if err != nil {
		return err
	}
	if projectJSON {
		return ui.JSON(p)
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	fmt.Fprintf(ui.Out, "  ID:              %d\n", p.ID)
	if p.URL != "" {
		fmt.Fprintf(ui.Out, "  URL:             %s\n", p.URL)
	}
	if p.Kind != "" {
		fmt.Fprintf(ui.Out, "  Kind:            %s\n", p.Kind)
	}
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  Description:     %s\n", p.Description)
	}
	fmt.Fprintf(ui.Out, "  State:           %s\n", output.ArchivedColor(p.Archived))
	if name := p.DefaultBranchName(); name != "" {
		fmt.Fprintf(ui.Out, "  Default branch:  %s\n", name)
	}
	if a := p.ParentArtifactID(); a != "" {
		fmt.Fprintf(ui.Out, "  Parent:          %s %s\n", a, p.ParentVersion())
	}
	fmt.Fprintf(ui.Out, "  Branches:        %d\n", len(p.Branches))

	if cfg := p.ConfigurationFile(); cfg != "" {
		fmt.Fprintln(ui.Out)
		fmt.Fprintf(ui.Out, "  CI config:       %s\n", cfg)
	}
	vars := p.Variables()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(ui.Out, "    %s=%s\n", k, vars[k])
	}

	if errs := display.ErrorValues(p); len(errs) > 0 {
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "  Errors:")
		for _, e := range errs {
			fmt.Fprintf(ui.Out, "    %s  %s\n", output.Red(e.Code), e.Message)
		}
	}
	return nil
}

func projectsBranchesRun(arg string) error {
	p, err := findProject(context.Background(), arg)
	if err != nil {
		return err
	}
	if len(p.Branches) == 0 {
		ui.Info("Project %s has no branches.", p.Name)
		return nil
	}

	def := p.DefaultBranchName()
	table := ui.Table([]string{"Branch", "Last Commit", "Config", "Group", "Artifact", "Parent", "Errors"})
	for i := range p.Branches {
		b := &p.Branches[i]
		name := b.Name
		if name == def {
			name = output.Green("* " + name)
		}
		parent := b.ParentArtifactID()
		if v := b.ParentVersion(); v != "" {
			parent += " " + v
		}
		table.Append([]string{
			name,
			b.LastCommitCreatedAt,
			b.GitLabConfig,
			b.GroupID,
			b.ArtifactID,
			parent,
			output.ErrorsColor(display.BranchErrorText(b)),
		})
	}
	return table.Render()
}

func projectsRefreshRun() error {
	if offline {
		return fmt.Errorf("refresh cannot run with --offline")
	}
	if dryRun {
		ui.DryRunMsg("Would fetch projects from %s and store a snapshot", viper.GetString("source"))
		return nil
	}

	res, err := loadProjects(context.Background())
	if err != nil {
		return err
	}
	if res.Stale {
		return fmt.Errorf("fetch failed: %s", res.Error)
	}

	ui.Success("Fetched %d project(s) from %s", res.Count, res.Source)
	ui.VerboseLog("Snapshot: %s", res.SnapshotID)
	if res.Pruned > 0 {
		ui.VerboseLog("Pruned %d old snapshot(s)", res.Pruned)
	}
	return nil
}
