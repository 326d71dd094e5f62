package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hejny/gitlabinfo/internal/models"
)

const projectsPath = "/api/gitlab-projects"

// maxBody caps a single response body.
const maxBody = 64 << 20

// HTTPSource reads projects from the REST backend.
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSource creates a backend source. A zero timeout leaves requests
// bounded only by their context.
func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return KindBackend }

// Projects fetches the whole collection in one request.
func (s *HTTPSource) Projects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.get(ctx, projectsPath, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Project fetches one project. A 404 maps to ErrNotFound.
func (s *HTTPSource) Project(ctx context.Context, id int) (*models.Project, error) {
	var p models.Project
	err := s.get(ctx, projectsPath+"/"+strconv.Itoa(id), &p)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, into any) error {
	url := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
