package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is the sentinel for a statistic with no input data.
const NotAvailable = "N/A"

// Number is a numeric statistic that may be undefined (NaN).
type Number float64

func (n Number) String() string {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// IsNaN reports whether the statistic is undefined.
func (n Number) IsNaN() bool { return math.IsNaN(float64(n)) }

// MarshalJSON writes undefined values as strings since JSON has no NaN.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(n.String())
	}
	return json.Marshal(f)
}

// AnalysisResult holds the fixed battery of statistics computed over one run.
type AnalysisResult struct {
	TopUsers                  []string `json:"top_users"`
	EarliestUsers             []string `json:"earliest_users"`
	PopularLicenses           []string `json:"popular_licenses"`
	MajorityCompany           string   `json:"majority_company"`
	PopularLanguage           string   `json:"popular_language"`
	SecondPopularLanguage     string   `json:"second_popular_language"`
	AvgStarsLanguage          string   `json:"avg_stars_language"`
	TopLeaderStrength         []string `json:"top_leader_strength"`
	CorrelationFollowersRepos Number   `json:"correlation_followers_repos"`
	FollowersPerRepo          Number   `json:"followers_per_repo"`
	CorrelationProjectsWiki   Number   `json:"correlation_projects_wiki"`
	HireableFollowingDiff     Number   `json:"hireable_following_diff"`
	// BioFollowersSlope is nil when no user has a bio.
	BioFollowersSlope *Number `json:"-"`
}

// Entry is one named statistic rendered as text.
type Entry struct {
	Name  string
	Value string
}

// Entries returns the statistics in their canonical order.
func (r *AnalysisResult) Entries() []Entry {
	bio := NotAvailable
	if r.BioFollowersSlope != nil {
		bio = r.BioFollowersSlope.String()
	}
	return []Entry{
		{"top_users", strings.Join(r.TopUsers, ",")},
		{"earliest_users", strings.Join(r.EarliestUsers, ",")},
		{"popular_licenses", strings.Join(r.PopularLicenses, ",")},
		{"majority_company", r.MajorityCompany},
		{"popular_language", r.PopularLanguage},
		{"second_popular_language", r.SecondPopularLanguage},
		{"avg_stars_language", r.AvgStarsLanguage},
		{"top_leader_strength", strings.Join(r.TopLeaderStrength, ",")},
		{"correlation_followers_repos", r.CorrelationFollowersRepos.String()},
		{"followers_per_repo", r.FollowersPerRepo.String()},
		{"correlation_projects_wiki", r.CorrelationProjectsWiki.String()},
		{"hireable_following_diff", r.HireableFollowingDiff.String()},
		{"bio_followers_corr", bio},
	}
}

// MarshalJSON adds bio_followers_corr, which is either a number or "N/A".
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	type plain AnalysisResult
	var bio any = NotAvailable
	if r.BioFollowersSlope != nil {
		bio = *r.BioFollowersSlope
	}
	return json.Marshal(struct {
		plain
		BioFollowersCorr any `json:"bio_followers_corr"`
	}{plain(r), bio})
}
