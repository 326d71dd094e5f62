package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPOM = `<?xml version="1.0"?>
<project>
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>corp-parent</artifactId>
    <version>2.0.0</version>
  </parent>
  <artifactId>libcore</artifactId>
</project>`

func newGitLab(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	notFound := func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"404 Not Found"}`))
	}

	mux.HandleFunc("GET /api/v4/groups/{gid}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"id": 1, "full_path": "acme"}`)
	})
	mux.HandleFunc("GET /api/v4/groups/{gid}/descendant_groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id": 2, "full_path": "acme/libs"}]`)
	})
	mux.HandleFunc("GET /api/v4/groups/{gid}/projects", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("gid") {
		case "1":
			writeJSON(w, `[{"id": 10, "name": "LibCore", "path_with_namespace": "acme/libcore",
				"web_url": "https://gitlab.example/acme/libcore", "topics": ["library"],
				"default_branch": "main", "ci_config_path": ".gitlab-ci.yml",
				"namespace": {"kind": "group"}}]`)
		default:
			writeJSON(w, `[
				{"id": 10, "name": "LibCore", "path_with_namespace": "acme/libcore", "default_branch": "main"},
				{"id": 11, "name": "Empty", "path_with_namespace": "acme/libs/empty", "empty_repo": true,
				 "namespace": {"kind": "group"}},
				{"id": 12, "name": "Orphan", "path_with_namespace": "acme/libs/orphan", "archived": true,
				 "default_branch": "gone", "namespace": {"kind": "group"}}
			]`)
		}
	})
	mux.HandleFunc("GET /api/v4/projects/{pid}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("pid") != "12" {
			notFound(w)
			return
		}
		writeJSON(w, `{"id": 12, "name": "Orphan", "path_with_namespace": "acme/libs/orphan",
			"default_branch": "gone", "namespace": {"kind": "group"}}`)
	})
	mux.HandleFunc("GET /api/v4/projects/{pid}/repository/branches", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("pid") != "10" {
			writeJSON(w, `[{"name": "dev"}]`)
			return
		}
		writeJSON(w, `[
			{"name": "main", "default": true, "commit": {"created_at": "2024-05-01T10:00:00Z"}},
			{"name": "dev", "commit": {"created_at": "2024-06-01T08:30:00Z"}}
		]`)
	})
	mux.HandleFunc("GET /api/v4/projects/{pid}/repository/files/{file}/raw", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("pid") != "10" || r.URL.Query().Get("ref") != "main" {
			notFound(w)
			return
		}
		_, _ = w.Write([]byte(testPOM))
	})
	mux.HandleFunc("GET /api/v4/projects/{pid}/variables", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("pid") != "10" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"403 Forbidden"}`))
			return
		}
		writeJSON(w, `[{"key": "DEPLOY_ENV", "value": "staging"}]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGitLabSource(t *testing.T) *GitLabSource {
	t.Helper()
	srv := newGitLab(t)
	src, err := NewGitLabSource(GitLabOptions{
		BaseURL:     srv.URL,
		Token:       "glpat-test",
		Groups:      []string{"acme"},
		Concurrency: 2,
	})
	require.NoError(t, err)
	return src
}

func TestGitLabSource_Projects(t *testing.T) {
	src := newTestGitLabSource(t)
	assert.Equal(t, "gitlab", src.Name())

	projects, err := src.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 3, "projects are deduplicated across groups")

	lib := projects[0]
	assert.Equal(t, 10, lib.ID)
	assert.Equal(t, "LIBRARY", lib.Kind, "first topic wins")
	assert.Equal(t, "https://gitlab.example/acme/libcore", lib.URL)
	require.NotNil(t, lib.DefaultBranch)
	assert.Equal(t, "main", lib.DefaultBranch.Name)
	assert.Equal(t, "2024-05-01T10:00:00Z", lib.DefaultBranch.LastCommitCreatedAt)
	assert.Equal(t, "com.acme", lib.DefaultBranch.GroupID)
	assert.Equal(t, "libcore", lib.DefaultBranch.ArtifactID)
	assert.Equal(t, "corp-parent", lib.ParentArtifactID())
	assert.Equal(t, "2.0.0", lib.ParentVersion())
	assert.Equal(t, ".gitlab-ci.yml", lib.ConfigurationFile())
	assert.Equal(t, "staging", lib.Variables()["DEPLOY_ENV"])
	assert.Len(t, lib.Branches, 2)
	assert.Empty(t, lib.Errors)

	empty := projects[1]
	assert.Equal(t, "GROUP", empty.Kind, "namespace kind is the fallback")
	require.Len(t, empty.Errors, 1)
	assert.Equal(t, CodeEmptyRepository, empty.Errors[0].Code)

	orphan := projects[2]
	assert.True(t, orphan.Archived)
	assert.Nil(t, orphan.DefaultBranch)
	assert.Nil(t, orphan.CICD, "forbidden variables are skipped")
	require.Len(t, orphan.Errors, 1)
	assert.Equal(t, CodeNoDefaultBranch, orphan.Errors[0].Code)
}

func TestGitLabSource_Project(t *testing.T) {
	src := newTestGitLabSource(t)

	p, err := src.Project(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "Orphan", p.Name)

	_, err = src.Project(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
