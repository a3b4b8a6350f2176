// Package domain contains the core data structures and domain logic for the application.
package domain

import "strings"

// UserRecord is a flattened GitHub user profile.
// It is created once per fetched user and is not modified afterwards,
// except for LeaderStrength which the aggregator attaches.
type UserRecord struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Hireable    bool   `json:"hireable"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	CreatedAt   string `json:"created_at"`

	// LeaderStrength is derived, never collected or persisted.
	LeaderStrength float64 `json:"-"`
}

// UserColumns is the fixed column order of the users table.
var UserColumns = []string{
	"login", "name", "company", "location", "email", "hireable",
	"bio", "public_repos", "followers", "following", "created_at",
}

// CleanCompanyName normalizes a free-text organization name:
// surrounding whitespace is trimmed, the text is upper-cased and leading "@" sigils are removed.
func CleanCompanyName(company string) string {
	company = strings.ToUpper(strings.TrimSpace(company))
	for strings.HasPrefix(company, "@") {
		company = strings.TrimSpace(company[1:])
	}
	return company
}

// LeaderStrength returns followers / (1 + following).
func LeaderStrength(followers, following int) float64 {
	return float64(followers) / float64(1+following)
}
