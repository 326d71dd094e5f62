package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/sync/errgroup"

	"github.com/hejny/gitlabinfo/internal/models"
)

// Error codes attached to projects built from the GitLab API.
const (
	CodeEmptyRepository = "EMPTY_REPOSITORY"
	CodeNoDefaultBranch = "NO_DEFAULT_BRANCH"
)

const (
	perPage            = 100
	defaultConcurrency = 8
	pomFile            = "pom.xml"
)

// GitLabSource builds the project model directly from a GitLab instance.
type GitLabSource struct {
	client      *gitlab.Client
	groups      []string
	concurrency int
	logger      *slog.Logger
}

// GitLabOptions configures a GitLabSource.
type GitLabOptions struct {
	BaseURL     string   // instance URL; the API path is appended by the client
	Token       string   // personal or project access token
	Groups      []string // root groups (ID or full path); empty means the token's memberships
	Concurrency int      // parallel per-project detail requests
	Logger      *slog.Logger
}

// NewGitLabSource creates a GitLab API client for opts.
func NewGitLabSource(opts GitLabOptions) (*GitLabSource, error) {
	var clientOpts []gitlab.ClientOptionFunc
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, gitlab.WithBaseURL(opts.BaseURL))
	}
	client, err := gitlab.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GitLabSource{
		client:      client,
		groups:      opts.Groups,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

func (s *GitLabSource) Name() string { return KindGitLab }

// Projects lists every project of the configured groups and their
// descendants, then loads branches, CI variables and build metadata for each
// project in parallel.
func (s *GitLabSource) Projects(ctx context.Context) ([]models.Project, error) {
	raw, err := s.listProjects(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("gitlab projects listed", "count", len(raw))

	out := make([]models.Project, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, gp := range raw {
		g.Go(func() error {
			p, err := s.detail(gctx, gp)
			if err != nil {
				return fmt.Errorf("project %s: %w", gp.PathWithNamespace, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Project loads a single project by ID.
func (s *GitLabSource) Project(ctx context.Context, id int) (*models.Project, error) {
	gp, resp, err := s.client.Projects.GetProject(id, nil, gitlab.WithContext(ctx))
	if isStatus(resp, http.StatusNotFound) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	p, err := s.detail(ctx, gp)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GitLabSource) listProjects(ctx context.Context) ([]*gitlab.Project, error) {
	if len(s.groups) == 0 {
		return collect(func(opt gitlab.ListOptions) ([]*gitlab.Project, *gitlab.Response, error) {
			return s.client.Projects.ListProjects(&gitlab.ListProjectsOptions{
				ListOptions: opt,
				Membership:  gitlab.Ptr(true),
			}, gitlab.WithContext(ctx))
		})
	}

	var groups []*gitlab.Group
	for _, gid := range s.groups {
		root, _, err := s.client.Groups.GetGroup(gid, nil, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("get group %s: %w", gid, err)
		}
		groups = append(groups, root)

		sub, err := collect(func(opt gitlab.ListOptions) ([]*gitlab.Group, *gitlab.Response, error) {
			return s.client.Groups.ListDescendantGroups(root.ID, &gitlab.ListDescendantGroupsOptions{
				ListOptions: opt,
			}, gitlab.WithContext(ctx))
		})
		if err != nil {
			return nil, fmt.Errorf("list subgroups of %s: %w", root.FullPath, err)
		}
		groups = append(groups, sub...)
	}

	seen := make(map[int]bool)
	var projects []*gitlab.Project
	for _, g := range groups {
		ps, err := collect(func(opt gitlab.ListOptions) ([]*gitlab.Project, *gitlab.Response, error) {
			return s.client.Groups.ListGroupProjects(g.ID, &gitlab.ListGroupProjectsOptions{
				ListOptions: opt,
			}, gitlab.WithContext(ctx))
		})
		if err != nil {
			return nil, fmt.Errorf("list projects of %s: %w", g.FullPath, err)
		}
		for _, p := range ps {
			if !seen[p.ID] {
				seen[p.ID] = true
				projects = append(projects, p)
			}
		}
	}
	return projects, nil
}

func (s *GitLabSource) detail(ctx context.Context, gp *gitlab.Project) (models.Project, error) {
	p := models.Project{
		ID:          gp.ID,
		Name:        gp.Name,
		URL:         gp.WebURL,
		Kind:        kindOf(gp),
		Description: gp.Description,
		Archived:    gp.Archived,
	}
	if gp.EmptyRepo {
		p.Errors = append(p.Errors, models.Error{Code: CodeEmptyRepository, Message: "repository has no commits"})
		return p, nil
	}

	branches, err := collect(func(opt gitlab.ListOptions) ([]*gitlab.Branch, *gitlab.Response, error) {
		return s.client.Branches.ListBranches(gp.ID, &gitlab.ListBranchesOptions{
			ListOptions: opt,
		}, gitlab.WithContext(ctx))
	})
	if err != nil {
		return p, fmt.Errorf("list branches: %w", err)
	}
	for _, b := range branches {
		mb := models.Branch{Name: b.Name, GitLabConfig: gp.CIConfigPath}
		if b.Commit != nil && b.Commit.CreatedAt != nil {
			mb.LastCommitCreatedAt = b.Commit.CreatedAt.UTC().Format(time.RFC3339)
		}
		p.Branches = append(p.Branches, mb)
	}

	for i := range p.Branches {
		if p.Branches[i].Name != gp.DefaultBranch {
			continue
		}
		if err := s.readPOM(ctx, gp.ID, &p.Branches[i]); err != nil {
			return p, err
		}
		b := p.Branches[i]
		p.DefaultBranch = &b
	}
	if p.DefaultBranch == nil {
		p.Errors = append(p.Errors, models.Error{
			Code:    CodeNoDefaultBranch,
			Message: fmt.Sprintf("default branch %q not found", gp.DefaultBranch),
		})
	}

	vars, err := s.variables(ctx, gp.ID)
	if err != nil {
		return p, err
	}
	if gp.CIConfigPath != "" || len(vars) > 0 {
		p.CICD = &models.CICD{ConfigurationFile: gp.CIConfigPath, Variables: vars}
	}
	return p, nil
}

// variables returns the project's CI variables, or nil when the token may
// not read them.
func (s *GitLabSource) variables(ctx context.Context, pid int) (map[string]string, error) {
	vars, err := collect(func(opt gitlab.ListOptions) ([]*gitlab.ProjectVariable, *gitlab.Response, error) {
		return s.client.ProjectVariables.ListVariables(pid, (*gitlab.ListProjectVariablesOptions)(&opt), gitlab.WithContext(ctx))
	})
	var er *gitlab.ErrorResponse
	if errors.As(err, &er) && er.Response != nil &&
		(er.Response.StatusCode == http.StatusForbidden || er.Response.StatusCode == http.StatusNotFound) {
		s.logger.Debug("ci variables not readable", "project", pid)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	if len(vars) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		out[v.Key] = v.Value
	}
	return out, nil
}

type pomProject struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Parent     *struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"parent"`
}

// readPOM fills the Maven coordinates of b from its pom.xml, if any.
func (s *GitLabSource) readPOM(ctx context.Context, pid int, b *models.Branch) error {
	raw, resp, err := s.client.RepositoryFiles.GetRawFile(pid, pomFile, &gitlab.GetRawFileOptions{
		Ref: gitlab.Ptr(b.Name),
	}, gitlab.WithContext(ctx))
	if isStatus(resp, http.StatusNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s on %s: %w", pomFile, b.Name, err)
	}

	var pom pomProject
	if err := xml.Unmarshal(raw, &pom); err != nil {
		b.Errors = append(b.Errors, models.Error{Code: "INVALID_POM", Message: err.Error()})
		return nil
	}
	b.GroupID = pom.GroupID
	b.ArtifactID = pom.ArtifactID
	if pom.Parent != nil {
		if b.GroupID == "" {
			b.GroupID = pom.Parent.GroupID
		}
		b.Parent = &models.Parent{ArtifactID: pom.Parent.ArtifactID, Version: pom.Parent.Version}
	}
	return nil
}

// kindOf uses the first topic, falling back to the namespace kind.
func kindOf(gp *gitlab.Project) string {
	if len(gp.Topics) > 0 {
		return strings.ToUpper(gp.Topics[0])
	}
	if gp.Namespace != nil {
		return strings.ToUpper(gp.Namespace.Kind)
	}
	return ""
}

// collect walks every page of a list endpoint.
func collect[T any](fetch func(opt gitlab.ListOptions) ([]T, *gitlab.Response, error)) ([]T, error) {
	opt := gitlab.ListOptions{PerPage: perPage, Page: 1}
	var all []T
	for {
		items, resp, err := fetch(opt)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opt.Page = resp.NextPage
	}
}

func isStatus(resp *gitlab.Response, code int) bool {
	return resp != nil && resp.Response != nil && resp.StatusCode == code
}
