package domain

// RepoRecord is a flattened repository owned by a collected user.
// Login always references a UserRecord from the same run.
type RepoRecord struct {
	Login           string `json:"login"`
	FullName        string `json:"full_name"`
	CreatedAt       string `json:"created_at"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
	Language        string `json:"language"`
	HasProjects     bool   `json:"has_projects"`
	HasWiki         bool   `json:"has_wiki"`
	LicenseName     string `json:"license_name"`
}

// RepoColumns is the fixed column order of the repositories table.
var RepoColumns = []string{
	"login", "full_name", "created_at", "stargazers_count", "watchers_count",
	"language", "has_projects", "has_wiki", "license_name",
}
