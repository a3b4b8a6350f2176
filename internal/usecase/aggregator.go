package usecase

import (
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-census/internal/domain"
)

const (
	topN          = 5
	topLicenses   = 3
	recentYearMin = 2020 // users created strictly after this year count as recent
)

// Aggregator is the use case for computing the statistics of a collected run.
type Aggregator struct {
	logger *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(logger *log.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Analyze computes every statistic over users and repos.
// It attaches LeaderStrength to each user in place; nothing else is modified.
func (a *Aggregator) Analyze(users []domain.UserRecord, repos []domain.RepoRecord) *domain.AnalysisResult {
	a.logger.Printf("Usecase: Analyzing %d users and %d repositories...\n", len(users), len(repos))

	for i := range users {
		users[i].LeaderStrength = domain.LeaderStrength(users[i].Followers, users[i].Following)
	}

	result := &domain.AnalysisResult{
		TopUsers:                  topUsersBy(users, followers),
		EarliestUsers:             earliestUsers(users),
		PopularLicenses:           popularLicenses(repos),
		MajorityCompany:           firstOrNA(rankByFrequency(companies(users))),
		PopularLanguage:           firstOrNA(rankByFrequency(languages(repos))),
		SecondPopularLanguage:     a.secondPopularRecentLanguage(users, repos),
		AvgStarsLanguage:          avgStarsLanguage(repos),
		TopLeaderStrength:         topUsersBy(users, func(u *domain.UserRecord) float64 { return u.LeaderStrength }),
		CorrelationFollowersRepos: pearson(userColumn(users, followers), userColumn(users, publicRepos)),
		FollowersPerRepo:          slope(userColumn(users, publicRepos), userColumn(users, followers)),
		CorrelationProjectsWiki:   projectsWikiCorrelation(repos),
		HireableFollowingDiff:     hireableFollowingDiff(users),
		BioFollowersSlope:         bioFollowersSlope(users),
	}
	a.logger.Println("Usecase: Analysis complete.")
	return result
}

func followers(u *domain.UserRecord) float64   { return float64(u.Followers) }
func publicRepos(u *domain.UserRecord) float64 { return float64(u.PublicRepos) }

func userColumn(users []domain.UserRecord, f func(*domain.UserRecord) float64) stats.Float64Data {
	col := make(stats.Float64Data, len(users))
	for i := range users {
		col[i] = f(&users[i])
	}
	return col
}

// topUsersBy returns up to topN logins ordered by key, highest first. Ties keep input order.
func topUsersBy(users []domain.UserRecord, key func(*domain.UserRecord) float64) []string {
	idx := make([]int, len(users))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return key(&users[idx[i]]) > key(&users[idx[j]])
	})
	return loginsAt(users, idx, topN)
}

// earliestUsers orders by the ISO-8601 creation timestamp; users without one are skipped.
func earliestUsers(users []domain.UserRecord) []string {
	idx := make([]int, 0, len(users))
	for i := range users {
		if users[i].CreatedAt != "" {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return users[idx[i]].CreatedAt < users[idx[j]].CreatedAt
	})
	return loginsAt(users, idx, topN)
}

func loginsAt(users []domain.UserRecord, idx []int, n int) []string {
	if len(idx) > n {
		idx = idx[:n]
	}
	logins := make([]string, len(idx))
	for i, k := range idx {
		logins[i] = users[k].Login
	}
	return logins
}

// rankByFrequency orders the distinct non-empty values by count, most frequent first.
// Equal counts keep first-occurrence order.
func rankByFrequency(values []string) []string {
	counts := make(map[string]int)
	order := []string{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

func firstOrNA(ranked []string) string {
	if len(ranked) == 0 {
		return domain.NotAvailable
	}
	return ranked[0]
}

func companies(users []domain.UserRecord) []string {
	out := make([]string, len(users))
	for i := range users {
		out[i] = users[i].Company
	}
	return out
}

func languages(repos []domain.RepoRecord) []string {
	out := make([]string, len(repos))
	for i := range repos {
		out[i] = repos[i].Language
	}
	return out
}

func popularLicenses(repos []domain.RepoRecord) []string {
	keys := make([]string, len(repos))
	for i := range repos {
		keys[i] = repos[i].LicenseName
	}
	ranked := rankByFrequency(keys)
	if len(ranked) > topLicenses {
		ranked = ranked[:topLicenses]
	}
	return ranked
}

// secondPopularRecentLanguage ranks languages of repos whose owner joined after recentYearMin.
// Owners with an unparseable timestamp are left out of this statistic only.
func (a *Aggregator) secondPopularRecentLanguage(users []domain.UserRecord, repos []domain.RepoRecord) string {
	recent := make(map[string]bool, len(users))
	for i := range users {
		created, err := time.Parse(time.RFC3339, users[i].CreatedAt)
		if err != nil {
			a.logger.Printf("Usecase: skipping %s for recent-language ranking: %v\n", users[i].Login, err)
			continue
		}
		if created.UTC().Year() > recentYearMin {
			recent[users[i].Login] = true
		}
	}

	var langs []string
	for i := range repos {
		if recent[repos[i].Login] {
			langs = append(langs, repos[i].Language)
		}
	}
	ranked := rankByFrequency(langs)
	if len(ranked) < 2 {
		return ""
	}
	return ranked[1]
}

// avgStarsLanguage returns the language with the highest mean star count.
func avgStarsLanguage(repos []domain.RepoRecord) string {
	stars := make(map[string]stats.Float64Data)
	var order []string
	for i := range repos {
		lang := repos[i].Language
		if lang == "" {
			continue
		}
		if _, ok := stars[lang]; !ok {
			order = append(order, lang)
		}
		stars[lang] = append(stars[lang], float64(repos[i].StargazersCount))
	}

	best, bestMean := domain.NotAvailable, math.Inf(-1)
	for _, lang := range order {
		mean, err := stats.Mean(stars[lang])
		if err != nil {
			continue
		}
		if mean > bestMean {
			best, bestMean = lang, mean
		}
	}
	return best
}

// pearson is the Pearson correlation of x and y; NaN when either column has no variance.
func pearson(x, y stats.Float64Data) domain.Number {
	if len(x) == 0 || len(x) != len(y) {
		return domain.Number(math.NaN())
	}
	vx, _ := stats.PopulationVariance(x)
	vy, _ := stats.PopulationVariance(y)
	if vx == 0 || vy == 0 {
		return domain.Number(math.NaN())
	}
	r, err := stats.Pearson(x, y)
	if err != nil {
		return domain.Number(math.NaN())
	}
	return domain.Number(r)
}

// slope is the ordinary least-squares slope of y regressed on x; NaN when x has no variance.
func slope(x, y stats.Float64Data) domain.Number {
	if len(x) == 0 || len(x) != len(y) {
		return domain.Number(math.NaN())
	}
	vx, _ := stats.PopulationVariance(x)
	if vx == 0 {
		return domain.Number(math.NaN())
	}
	cov, err := stats.CovariancePopulation(x, y)
	if err != nil {
		return domain.Number(math.NaN())
	}
	return domain.Number(cov / vx)
}

func projectsWikiCorrelation(repos []domain.RepoRecord) domain.Number {
	projects := make(stats.Float64Data, len(repos))
	wiki := make(stats.Float64Data, len(repos))
	for i := range repos {
		projects[i] = boolToFloat(repos[i].HasProjects)
		wiki[i] = boolToFloat(repos[i].HasWiki)
	}
	return pearson(projects, wiki)
}

// hireableFollowingDiff treats the mean of an empty group as zero.
func hireableFollowingDiff(users []domain.UserRecord) domain.Number {
	var hireable, others stats.Float64Data
	for i := range users {
		if users[i].Hireable {
			hireable = append(hireable, float64(users[i].Following))
		} else {
			others = append(others, float64(users[i].Following))
		}
	}
	return domain.Number(meanOrZero(hireable) - meanOrZero(others))
}

// bioFollowersSlope regresses followers on bio word count over users with a bio.
func bioFollowersSlope(users []domain.UserRecord) *domain.Number {
	var words, follows stats.Float64Data
	for i := range users {
		fields := strings.Fields(users[i].Bio)
		if len(fields) == 0 {
			continue
		}
		words = append(words, float64(len(fields)))
		follows = append(follows, float64(users[i].Followers))
	}
	if len(words) == 0 {
		return nil
	}
	s := slope(words, follows)
	return &s
}

func meanOrZero(data stats.Float64Data) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
