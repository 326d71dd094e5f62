// Package source fetches the project collection from an inbound data source.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/hejny/gitlabinfo/internal/models"
)

// ErrNotFound is returned by Project when the source has no such project.
var ErrNotFound = errors.New("project not found")

// Source is a read-only provider of the full project collection.
type Source interface {
	// Name identifies the source in snapshots and log lines.
	Name() string
	// Projects returns every project. There is no server-side filtering.
	Projects(ctx context.Context) ([]models.Project, error)
	// Project returns a single project by ID.
	Project(ctx context.Context, id int) (*models.Project, error)
}

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %s", e.URL, e.Status)
}

// Kinds of source selectable through configuration.
const (
	KindBackend = "backend"
	KindGitLab  = "gitlab"
)
