package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-census/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	gateway := &GitHubGateway{
		restClient: restClient,
		logger:     log.New(io.Discard, "", 0),
	}
	return gateway, server
}

func TestGitHubGateway_SearchUsers(t *testing.T) {
	testCases := []struct {
		name           string
		cursor         string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedPage   *domain.Page[string]
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - first page with a next link",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search/users", r.URL.Path)
				assert.Equal(t, "location:Mumbai followers:>50", r.URL.Query().Get("q"))
				assert.Equal(t, "1", r.URL.Query().Get("page"))
				assert.Equal(t, "2", r.URL.Query().Get("per_page"))
				w.Header().Set("Link", `<https://api.github.com/search/users?q=x&page=2>; rel="next"`)
				fmt.Fprint(w, `{"total_count": 3, "items": [{"login": "alice"}, {"login": "bob"}]}`)
			},
			expectedPage: &domain.Page[string]{Items: []string{"alice", "bob"}, Size: 2, Cursor: "2", HasNext: true},
		},
		{
			name:   "last page - no next link",
			cursor: "2",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				fmt.Fprint(w, `{"total_count": 3, "items": [{"login": "carol"}]}`)
			},
			expectedPage: &domain.Page[string]{Items: []string{"carol"}, Size: 1, Cursor: "3", HasNext: false},
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to search users with REST API",
		},
		{
			name:   "error case - malformed cursor",
			cursor: "abc",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			},
			expectError:    true,
			expectedErrMsg: "invalid page cursor",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			page, err := gateway.SearchUsers(context.Background(), "location:Mumbai followers:>50", tc.cursor, 2)
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedPage, page)
			}
		})
	}
}

func TestGitHubGateway_GetUser(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice", r.URL.Path)
		fmt.Fprint(w, `{
			"login": "alice",
			"name": "Alice",
			"company": "  @acme corp ",
			"location": "Mumbai, India",
			"email": null,
			"hireable": null,
			"bio": "Go and Rust",
			"public_repos": 12,
			"followers": 340,
			"following": 7,
			"created_at": "2015-03-04T05:06:07Z"
		}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	user, err := gateway.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &domain.UserRecord{
		Login:       "alice",
		Name:        "Alice",
		Company:     "ACME CORP",
		Location:    "Mumbai, India",
		Email:       "",
		Hireable:    false,
		Bio:         "Go and Rust",
		PublicRepos: 12,
		Followers:   340,
		Following:   7,
		CreatedAt:   "2015-03-04T05:06:07Z",
	}, user)
}

func TestGitHubGateway_GetUser_NotFound(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	user, err := gateway.GetUser(context.Background(), "ghost")
	assert.Nil(t, user)
	assert.ErrorContains(t, err, "failed to get user ghost")
}

func TestGitHubGateway_ListRepos(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/repos", r.URL.Path)
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		fmt.Fprint(w, `[
			{
				"full_name": "alice/tool",
				"created_at": "2019-01-02T03:04:05Z",
				"stargazers_count": 42,
				"watchers_count": 42,
				"language": "Go",
				"has_projects": true,
				"has_wiki": false,
				"license": {"key": "mit", "name": "MIT License"}
			},
			{
				"full_name": "alice/notes",
				"created_at": "2021-06-07T08:09:10Z",
				"stargazers_count": 0,
				"watchers_count": 0,
				"language": null,
				"has_projects": false,
				"has_wiki": true,
				"license": null
			}
		]`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	page, err := gateway.ListRepos(context.Background(), "alice", "", 100)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, "2", page.Cursor)
	assert.False(t, page.HasNext)
	assert.Equal(t, []domain.RepoRecord{
		{
			Login: "alice", FullName: "alice/tool", CreatedAt: "2019-01-02T03:04:05Z",
			StargazersCount: 42, WatchersCount: 42, Language: "Go",
			HasProjects: true, HasWiki: false, LicenseName: "mit",
		},
		{
			Login: "alice", FullName: "alice/notes", CreatedAt: "2021-06-07T08:09:10Z",
			HasWiki: true,
		},
	}, page.Items)
}

func TestNew(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	rest, err := New(BackendREST, "token", logger)
	require.NoError(t, err)
	assert.IsType(t, &GitHubGateway{}, rest)

	gql, err := New(BackendGraphQL, "token", logger)
	require.NoError(t, err)
	assert.IsType(t, &GraphQLGateway{}, gql)

	_, err = New("soap", "token", logger)
	assert.ErrorContains(t, err, "unknown backend")
}
