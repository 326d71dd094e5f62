package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backendProjects = `[
  {
    "projectId": 1,
    "name": "LibCore",
    "url": "https://git/libcore",
    "kind": "LIBRARY",
    "archived": false,
    "defaultBranch": {"name": "main", "parent": {"artifactId": "corp-parent", "version": "2.0.0"}},
    "branches": [{"name": "main", "errors": [{"code": "E2", "message": "old parent"}]}],
    "errors": [{"code": "E1", "message": "missing pom"}],
    "cicd": {"configurationFile": ".gitlab-ci.yml", "variables": {"DEPLOY_ENV": "staging"}}
  },
  {"projectId": 2, "name": "Gateway", "kind": "SERVICE", "archived": true, "branches": []}
]`

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/gitlab-projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(backendProjects))
	})
	mux.HandleFunc("GET /api/gitlab-projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"projectId": 2, "name": "Gateway", "kind": "SERVICE", "archived": true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Projects(t *testing.T) {
	srv := newBackend(t)
	src := NewHTTPSource(srv.URL+"/", "secret", 5*time.Second)

	assert.Equal(t, "backend", src.Name())

	projects, err := src.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	p := projects[0]
	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "LibCore", p.Name)
	assert.Equal(t, "main", p.DefaultBranchName())
	assert.Equal(t, "corp-parent", p.ParentArtifactID())
	assert.Equal(t, "staging", p.Variables()["DEPLOY_ENV"])
	require.Len(t, p.Branches, 1)
	assert.Equal(t, "E2", p.Branches[0].Errors[0].Code)

	assert.True(t, projects[1].Archived)
	assert.Nil(t, projects[1].DefaultBranch)
}

func TestHTTPSource_Unauthorized(t *testing.T) {
	srv := newBackend(t)
	src := NewHTTPSource(srv.URL, "", 0)

	_, err := src.Projects(context.Background())
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestHTTPSource_Project(t *testing.T) {
	srv := newBackend(t)
	src := NewHTTPSource(srv.URL, "secret", 0)

	p, err := src.Project(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Gateway", p.Name)

	_, err = src.Project(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPSource_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPSource(srv.URL, "", 0).Projects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
