// Package config holds the run configuration assembled from command-line flags and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/naka-gawa/github-census/internal/domain"
)

// TokenEnv is the environment variable consulted when no token flag is given.
const TokenEnv = "GITHUB_TOKEN"

// MaxPageSize is the largest page the GitHub API serves.
const MaxPageSize = 100

var (
	ErrMissingToken    = errors.New("GitHub token is not set (use --token or " + TokenEnv + ")")
	ErrMissingLocation = errors.New("location filter is required")
)

// Config is the collection configuration for a single run.
// The token is passed explicitly to the gateway and lives only as long as the run.
type Config struct {
	Token        string
	Backend      string
	Location     string
	MinFollowers int
	Policy       domain.PaginationPolicy
	PageSize     int
	Concurrency  int
	OutDir       string
	SQLitePath   string
	JSON         bool
}

// Default returns a configuration with the defaults used by the CLI.
func Default() Config {
	return Config{
		Backend:     "rest",
		Policy:      domain.PolicyShortPage,
		PageSize:    MaxPageSize,
		Concurrency: 1,
		OutDir:      ".",
	}
}

// ResolveToken prefers an explicit flag value over the environment.
func ResolveToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(TokenEnv)
}

// Validate checks the configuration before any request is made.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(c.Location) == "" {
		return ErrMissingLocation
	}
	if c.Backend != "rest" && c.Backend != "graphql" {
		return fmt.Errorf("unknown backend %q (want rest or graphql)", c.Backend)
	}
	if _, err := domain.ParsePaginationPolicy(string(c.Policy)); err != nil {
		return err
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d, got %d", MaxPageSize, c.PageSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MinFollowers < 0 {
		return fmt.Errorf("minimum followers must not be negative, got %d", c.MinFollowers)
	}
	return nil
}

// SearchQuery builds the user search query for the location and follower filter.
func (c *Config) SearchQuery() string {
	location := strings.TrimSpace(c.Location)
	if strings.ContainsAny(location, " \t") {
		location = `"` + location + `"`
	}
	return fmt.Sprintf("location:%s followers:>%d", location, c.MinFollowers)
}
