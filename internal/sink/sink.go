// Package sink persists collected records as tables and reads them back.
package sink

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/naka-gawa/github-census/internal/domain"
)

// Store is a two-table destination for a collection run.
type Store interface {
	// Save replaces the stored tables with users and repos.
	Save(ctx context.Context, users []domain.UserRecord, repos []domain.RepoRecord) error
	// Load reads both tables back in their stored order.
	Load(ctx context.Context) ([]domain.UserRecord, []domain.RepoRecord, error)
	Close() error
}

func userRow(u *domain.UserRecord) []string {
	return []string{
		u.Login,
		u.Name,
		u.Company,
		u.Location,
		u.Email,
		strconv.FormatBool(u.Hireable),
		u.Bio,
		strconv.Itoa(u.PublicRepos),
		strconv.Itoa(u.Followers),
		strconv.Itoa(u.Following),
		u.CreatedAt,
	}
}

func repoRow(r *domain.RepoRecord) []string {
	return []string{
		r.Login,
		r.FullName,
		r.CreatedAt,
		strconv.Itoa(r.StargazersCount),
		strconv.Itoa(r.WatchersCount),
		r.Language,
		strconv.FormatBool(r.HasProjects),
		strconv.FormatBool(r.HasWiki),
		r.LicenseName,
	}
}

// rowParser converts text cells, remembering the first failure.
type rowParser struct {
	row []string
	err error
}

func (p *rowParser) str(i int) string { return p.row[i] }

// integer treats an empty cell as zero.
func (p *rowParser) integer(i int) int {
	cell := strings.TrimSpace(p.row[i])
	if cell == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i, err)
	}
	return n
}

// boolean treats an empty cell as false and accepts True/False spellings.
func (p *rowParser) boolean(i int) bool {
	cell := strings.TrimSpace(p.row[i])
	if cell == "" || p.err != nil {
		return false
	}
	b, err := strconv.ParseBool(cell)
	if err != nil {
		p.err = fmt.Errorf("column %d: %w", i, err)
	}
	return b
}

func parseUserRow(row []string) (domain.UserRecord, error) {
	if len(row) != len(domain.UserColumns) {
		return domain.UserRecord{}, fmt.Errorf("expected %d columns, got %d", len(domain.UserColumns), len(row))
	}
	p := &rowParser{row: row}
	u := domain.UserRecord{
		Login:       p.str(0),
		Name:        p.str(1),
		Company:     p.str(2),
		Location:    p.str(3),
		Email:       p.str(4),
		Hireable:    p.boolean(5),
		Bio:         p.str(6),
		PublicRepos: p.integer(7),
		Followers:   p.integer(8),
		Following:   p.integer(9),
		CreatedAt:   p.str(10),
	}
	return u, p.err
}

func parseRepoRow(row []string) (domain.RepoRecord, error) {
	if len(row) != len(domain.RepoColumns) {
		return domain.RepoRecord{}, fmt.Errorf("expected %d columns, got %d", len(domain.RepoColumns), len(row))
	}
	p := &rowParser{row: row}
	r := domain.RepoRecord{
		Login:           p.str(0),
		FullName:        p.str(1),
		CreatedAt:       p.str(2),
		StargazersCount: p.integer(3),
		WatchersCount:   p.integer(4),
		Language:        p.str(5),
		HasProjects:     p.boolean(6),
		HasWiki:         p.boolean(7),
		LicenseName:     p.str(8),
	}
	return r, p.err
}
