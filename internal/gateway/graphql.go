package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/github-census/internal/domain"
)

// GraphQLGateway implements Fetcher on top of the GitHub GraphQL API.
// Search results already carry full profiles, so they are remembered for GetUser.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        *log.Logger

	mu       sync.Mutex
	profiles map[string]domain.UserRecord
}

// userNode is the profile selection shared by search and user lookups.
type userNode struct {
	Login        string
	Name         *string
	Company      *string
	Location     *string
	Email        string
	IsHireable   bool
	Bio          *string
	Repositories struct {
		TotalCount int
	} `graphql:"repositories(privacy: PUBLIC, ownerAffiliations: OWNER)"`
	Followers struct {
		TotalCount int
	}
	Following struct {
		TotalCount int
	}
	CreatedAt githubv4.DateTime
}

type repoNode struct {
	NameWithOwner  string
	CreatedAt      githubv4.DateTime
	StargazerCount int
	Watchers       struct {
		TotalCount int
	}
	PrimaryLanguage *struct {
		Name string
	}
	HasProjectsEnabled bool
	HasWikiEnabled     bool
	LicenseInfo        *struct {
		Key string
	}
}

type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

type userSearchQuery struct {
	Search struct {
		PageInfo pageInfo
		Nodes    []struct {
			Typename string   `graphql:"__typename"`
			User     userNode `graphql:"... on User"`
		}
	} `graphql:"search(query: $query, type: USER, first: $first, after: $cursor)"`
}

type userQuery struct {
	User *userNode `graphql:"user(login: $login)"`
}

type repoListQuery struct {
	User *struct {
		Repositories struct {
			PageInfo pageInfo
			Nodes    []repoNode
		} `graphql:"repositories(first: $first, after: $cursor, ownerAffiliations: OWNER, privacy: PUBLIC)"`
	} `graphql:"user(login: $login)"`
}

// NewGraphQLGateway is a constructor that creates a new GraphQL-backed gateway.
func NewGraphQLGateway(token string, logger *log.Logger) (Fetcher, error) {
	httpClient, err := NewHTTPClient(token)
	if err != nil {
		return nil, err
	}
	return newGraphQLGateway(githubv4.NewClient(httpClient), logger), nil
}

func newGraphQLGateway(client *githubv4.Client, logger *log.Logger) *GraphQLGateway {
	return &GraphQLGateway{
		graphqlClient: client,
		logger:        logger,
		profiles:      make(map[string]domain.UserRecord),
	}
}

// SearchUsers fetches one page of the user search. Organizations are skipped
// but still count towards the page size.
func (g *GraphQLGateway) SearchUsers(ctx context.Context, query, cursor string, perPage int) (*domain.Page[string], error) {
	g.logger.Printf("  Searching users %q with GraphQL...\n", query)
	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"first":  githubv4.Int(perPage),
		"cursor": cursorVariable(cursor),
	}
	var q userSearchQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL user search: %w", err)
	}

	logins := make([]string, 0, len(q.Search.Nodes))
	g.mu.Lock()
	for _, node := range q.Search.Nodes {
		if node.Typename != "User" || node.User.Login == "" {
			continue
		}
		g.profiles[node.User.Login] = userFromGraphQL(&node.User)
		logins = append(logins, node.User.Login)
	}
	g.mu.Unlock()

	return &domain.Page[string]{
		Items:   logins,
		Size:    len(q.Search.Nodes),
		Cursor:  string(q.Search.PageInfo.EndCursor),
		HasNext: q.Search.PageInfo.HasNextPage,
	}, nil
}

// GetUser returns the profile remembered from search, querying it otherwise.
func (g *GraphQLGateway) GetUser(ctx context.Context, login string) (*domain.UserRecord, error) {
	g.mu.Lock()
	record, ok := g.profiles[login]
	g.mu.Unlock()
	if ok {
		return &record, nil
	}

	var q userQuery
	if err := g.graphqlClient.Query(ctx, &q, map[string]interface{}{"login": githubv4.String(login)}); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for user %s: %w", login, err)
	}
	if q.User == nil {
		return nil, fmt.Errorf("user %s not found", login)
	}
	record = userFromGraphQL(q.User)
	return &record, nil
}

// ListRepos fetches one page of repositories owned by login.
func (g *GraphQLGateway) ListRepos(ctx context.Context, login, cursor string, perPage int) (*domain.Page[domain.RepoRecord], error) {
	g.logger.Printf("  Listing repositories of %s with GraphQL...\n", login)
	variables := map[string]interface{}{
		"login":  githubv4.String(login),
		"first":  githubv4.Int(perPage),
		"cursor": cursorVariable(cursor),
	}
	var q repoListQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repositories of %s: %w", login, err)
	}
	if q.User == nil {
		return nil, fmt.Errorf("user %s not found", login)
	}

	conn := q.User.Repositories
	records := make([]domain.RepoRecord, 0, len(conn.Nodes))
	for i := range conn.Nodes {
		records = append(records, repoFromGraphQL(login, &conn.Nodes[i]))
	}
	return &domain.Page[domain.RepoRecord]{
		Items:   records,
		Size:    len(conn.Nodes),
		Cursor:  string(conn.PageInfo.EndCursor),
		HasNext: conn.PageInfo.HasNextPage,
	}, nil
}

func cursorVariable(cursor string) *githubv4.String {
	if cursor == "" {
		return nil
	}
	return githubv4.NewString(githubv4.String(cursor))
}

func userFromGraphQL(u *userNode) domain.UserRecord {
	return domain.UserRecord{
		Login:       u.Login,
		Name:        deref(u.Name),
		Company:     domain.CleanCompanyName(deref(u.Company)),
		Location:    deref(u.Location),
		Email:       u.Email,
		Hireable:    u.IsHireable,
		Bio:         deref(u.Bio),
		PublicRepos: u.Repositories.TotalCount,
		Followers:   u.Followers.TotalCount,
		Following:   u.Following.TotalCount,
		CreatedAt:   formatTime(u.CreatedAt.Time),
	}
}

func repoFromGraphQL(login string, r *repoNode) domain.RepoRecord {
	record := domain.RepoRecord{
		Login:           login,
		FullName:        r.NameWithOwner,
		CreatedAt:       formatTime(r.CreatedAt.Time),
		StargazersCount: r.StargazerCount,
		WatchersCount:   r.Watchers.TotalCount,
		HasProjects:     r.HasProjectsEnabled,
		HasWiki:         r.HasWikiEnabled,
	}
	if r.PrimaryLanguage != nil {
		record.Language = r.PrimaryLanguage.Name
	}
	if r.LicenseInfo != nil {
		record.LicenseName = r.LicenseInfo.Key
	}
	return record
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
