package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-census/internal/domain"
)

// setupGraphQLGateway points a GraphQLGateway at a mock server and counts requests.
func setupGraphQLGateway(t *testing.T, handler http.HandlerFunc) (*GraphQLGateway, *int32, *httptest.Server) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	client := githubv4.NewEnterpriseClient(server.URL, server.Client())
	return newGraphQLGateway(client, log.New(io.Discard, "", 0)), &calls, server
}

const searchResponse = `{"data":{"search":{
	"pageInfo":{"hasNextPage":true,"endCursor":"Y3Vyc29yOjI="},
	"nodes":[
		{"__typename":"User","login":"alice","name":"Alice","company":"@acme","location":"Mumbai",
		 "email":"","isHireable":true,"bio":null,"repositories":{"totalCount":3},
		 "followers":{"totalCount":120},"following":{"totalCount":4},"createdAt":"2014-01-02T03:04:05Z"},
		{"__typename":"Organization"}
	]}}}`

func TestGraphQLGateway_SearchUsers(t *testing.T) {
	gateway, calls, server := setupGraphQLGateway(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "type: USER")
		assert.Contains(t, string(body), "location:Mumbai")
		assert.Contains(t, string(body), "repositories(privacy: PUBLIC, ownerAffiliations: OWNER)")
		fmt.Fprint(w, searchResponse)
	})
	defer server.Close()

	page, err := gateway.SearchUsers(context.Background(), "location:Mumbai followers:>50", "", 100)
	require.NoError(t, err)
	assert.Equal(t, &domain.Page[string]{
		Items:   []string{"alice"},
		Size:    2,
		Cursor:  "Y3Vyc29yOjI=",
		HasNext: true,
	}, page)

	// The profile comes from the search result without another request.
	user, err := gateway.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, &domain.UserRecord{
		Login:       "alice",
		Name:        "Alice",
		Company:     "ACME",
		Location:    "Mumbai",
		Hireable:    true,
		PublicRepos: 3,
		Followers:   120,
		Following:   4,
		CreatedAt:   "2014-01-02T03:04:05Z",
	}, user)
}

func TestGraphQLGateway_GetUser(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expectedLogin  string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - profile queried",
			responseBody: `{"data":{"user":{"login":"carol","name":null,"company":null,"location":"Pune",
				"email":"carol@example.com","isHireable":false,"bio":"hi","repositories":{"totalCount":1},
				"followers":{"totalCount":60},"following":{"totalCount":0},"createdAt":"2021-05-06T07:08:09Z"}}}`,
			expectedLogin: "carol",
		},
		{
			name:           "error case - unknown user",
			responseBody:   `{"data":{"user":null}}`,
			expectError:    true,
			expectedErrMsg: "not found",
		},
		{
			name:           "error case - GraphQL error",
			responseBody:   `{"errors":[{"message":"Something went wrong"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query for user",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, _, server := setupGraphQLGateway(t, func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "carol")
				fmt.Fprint(w, tc.responseBody)
			})
			defer server.Close()

			user, err := gateway.GetUser(context.Background(), "carol")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedLogin, user.Login)
			assert.Equal(t, "carol@example.com", user.Email)
			assert.Equal(t, "", user.Name)
			assert.Equal(t, 60, user.Followers)
		})
	}
}

func TestGraphQLGateway_ListRepos(t *testing.T) {
	gateway, _, server := setupGraphQLGateway(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "ownerAffiliations: OWNER")
		fmt.Fprint(w, `{"data":{"user":{"repositories":{
			"pageInfo":{"hasNextPage":false,"endCursor":"Zm9v"},
			"nodes":[
				{"nameWithOwner":"alice/x","createdAt":"2020-01-01T00:00:00Z","stargazerCount":5,
				 "watchers":{"totalCount":2},"primaryLanguage":{"name":"Go"},
				 "hasProjectsEnabled":true,"hasWikiEnabled":false,"licenseInfo":{"key":"apache-2.0"}},
				{"nameWithOwner":"alice/y","createdAt":"2022-01-01T00:00:00Z","stargazerCount":0,
				 "watchers":{"totalCount":0},"primaryLanguage":null,
				 "hasProjectsEnabled":false,"hasWikiEnabled":true,"licenseInfo":null}
			]}}}}`)
	})
	defer server.Close()

	page, err := gateway.ListRepos(context.Background(), "alice", "", 100)
	require.NoError(t, err)
	assert.Equal(t, &domain.Page[domain.RepoRecord]{
		Items: []domain.RepoRecord{
			{
				Login: "alice", FullName: "alice/x", CreatedAt: "2020-01-01T00:00:00Z",
				StargazersCount: 5, WatchersCount: 2, Language: "Go",
				HasProjects: true, LicenseName: "apache-2.0",
			},
			{
				Login: "alice", FullName: "alice/y", CreatedAt: "2022-01-01T00:00:00Z",
				HasWiki: true,
			},
		},
		Size:    2,
		Cursor:  "Zm9v",
		HasNext: false,
	}, page)
}
