// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/naka-gawa/github-census/internal/domain"
)

// Backend names accepted by New.
const (
	BackendREST    = "rest"
	BackendGraphQL = "graphql"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// Cursors are opaque: an empty cursor requests the first page.
type Fetcher interface {
	SearchUsers(ctx context.Context, query, cursor string, perPage int) (*domain.Page[string], error)
	GetUser(ctx context.Context, login string) (*domain.UserRecord, error)
	ListRepos(ctx context.Context, login, cursor string, perPage int) (*domain.Page[domain.RepoRecord], error)
}

// GitHubGateway is the REST implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	logger     *log.Logger
}

// NewHTTPClient builds the authenticated client shared by both backends.
// Secondary rate limits are waited out rather than surfaced as errors.
func NewHTTPClient(token string) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

// New creates the Fetcher for the named backend.
func New(backend, token string, logger *log.Logger) (Fetcher, error) {
	switch backend {
	case BackendREST:
		return NewGitHubGateway(token, logger)
	case BackendGraphQL:
		return NewGraphQLGateway(token, logger)
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// NewGitHubGateway is a constructor that creates a new REST-backed gateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	httpClient, err := NewHTTPClient(token)
	if err != nil {
		return nil, err
	}
	return &GitHubGateway{
		restClient: github.NewClient(httpClient),
		logger:     logger,
	}, nil
}

// SearchUsers fetches one page of the user search. The cursor is a page number.
func (g *GitHubGateway) SearchUsers(ctx context.Context, query, cursor string, perPage int) (*domain.Page[string], error) {
	page, err := pageNumber(cursor)
	if err != nil {
		return nil, err
	}
	g.logger.Printf("  Searching users %q (page %d)...\n", query, page)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{Page: page, PerPage: perPage}}
	result, resp, err := g.restClient.Search.Users(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search users with REST API: %w", err)
	}
	logins := make([]string, 0, len(result.Users))
	for _, u := range result.Users {
		if login := u.GetLogin(); login != "" {
			logins = append(logins, login)
		}
	}
	return &domain.Page[string]{
		Items:   logins,
		Size:    len(result.Users),
		Cursor:  strconv.Itoa(page + 1),
		HasNext: resp.NextPage != 0,
	}, nil
}

// GetUser fetches a full user profile.
func (g *GitHubGateway) GetUser(ctx context.Context, login string) (*domain.UserRecord, error) {
	user, _, err := g.restClient.Users.Get(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s with REST API: %w", login, err)
	}
	record := userFromREST(user)
	return &record, nil
}

// ListRepos fetches one page of repositories owned by login. The cursor is a page number.
func (g *GitHubGateway) ListRepos(ctx context.Context, login, cursor string, perPage int) (*domain.Page[domain.RepoRecord], error) {
	page, err := pageNumber(cursor)
	if err != nil {
		return nil, err
	}
	g.logger.Printf("  Listing repositories of %s (page %d)...\n", login, page)
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, resp, err := g.restClient.Repositories.ListByUser(ctx, login, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories of %s with REST API: %w", login, err)
	}
	records := make([]domain.RepoRecord, 0, len(repos))
	for _, r := range repos {
		records = append(records, repoFromREST(login, r))
	}
	return &domain.Page[domain.RepoRecord]{
		Items:   records,
		Size:    len(repos),
		Cursor:  strconv.Itoa(page + 1),
		HasNext: resp.NextPage != 0,
	}, nil
}

func pageNumber(cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page cursor %q", cursor)
	}
	return page, nil
}

func userFromREST(u *github.User) domain.UserRecord {
	return domain.UserRecord{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Company:     domain.CleanCompanyName(u.GetCompany()),
		Location:    u.GetLocation(),
		Email:       u.GetEmail(),
		Hireable:    u.GetHireable(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   formatTime(u.GetCreatedAt().Time),
	}
}

func repoFromREST(login string, r *github.Repository) domain.RepoRecord {
	return domain.RepoRecord{
		Login:           login,
		FullName:        r.GetFullName(),
		CreatedAt:       formatTime(r.GetCreatedAt().Time),
		StargazersCount: r.GetStargazersCount(),
		WatchersCount:   r.GetWatchersCount(),
		Language:        r.GetLanguage(),
		HasProjects:     r.GetHasProjects(),
		HasWiki:         r.GetHasWiki(),
		LicenseName:     r.GetLicense().GetKey(),
	}
}

// formatTime renders timestamps the way the GitHub API does; zero becomes empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
