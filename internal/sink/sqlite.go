package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/naka-gawa/github-census/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	login        TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	company      TEXT NOT NULL,
	location     TEXT NOT NULL,
	email        TEXT NOT NULL,
	hireable     INTEGER NOT NULL,
	bio          TEXT NOT NULL,
	public_repos INTEGER NOT NULL,
	followers    INTEGER NOT NULL,
	following    INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS repositories (
	login            TEXT NOT NULL REFERENCES users(login),
	full_name        TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	stargazers_count INTEGER NOT NULL,
	watchers_count   INTEGER NOT NULL,
	language         TEXT NOT NULL,
	has_projects     INTEGER NOT NULL,
	has_wiki         INTEGER NOT NULL,
	license_name     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_repositories_login ON repositories(login);
`

// SQLiteStore keeps the two tables in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps the pragma below in effect for every statement.
	db.SetMaxOpenConns(1)

	// Enable foreign key enforcement so repositories always reference a stored user.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces both tables in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, users []domain.UserRecord, repos []domain.RepoRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM repositories", "DELETE FROM users"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	insertUser, err := tx.PrepareContext(ctx,
		`INSERT INTO users (login, name, company, location, email, hireable, bio, public_repos, followers, following, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare user insert: %w", err)
	}
	defer insertUser.Close()
	for i := range users {
		u := &users[i]
		if _, err := insertUser.ExecContext(ctx, u.Login, u.Name, u.Company, u.Location, u.Email, u.Hireable,
			u.Bio, u.PublicRepos, u.Followers, u.Following, u.CreatedAt); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Login, err)
		}
	}

	insertRepo, err := tx.PrepareContext(ctx,
		`INSERT INTO repositories (login, full_name, created_at, stargazers_count, watchers_count, language, has_projects, has_wiki, license_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare repository insert: %w", err)
	}
	defer insertRepo.Close()
	for i := range repos {
		r := &repos[i]
		if _, err := insertRepo.ExecContext(ctx, r.Login, r.FullName, r.CreatedAt, r.StargazersCount, r.WatchersCount,
			r.Language, r.HasProjects, r.HasWiki, r.LicenseName); err != nil {
			return fmt.Errorf("insert repository %s: %w", r.FullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]domain.UserRecord, []domain.RepoRecord, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	repos, err := s.loadRepos(ctx)
	if err != nil {
		return nil, nil, err
	}
	return users, repos, nil
}

func (s *SQLiteStore) loadUsers(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT login, name, company, location, email, hireable, bio, public_repos, followers, following, created_at
		 FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserRecord
	for rows.Next() {
		var u domain.UserRecord
		if err := rows.Scan(&u.Login, &u.Name, &u.Company, &u.Location, &u.Email, &u.Hireable,
			&u.Bio, &u.PublicRepos, &u.Followers, &u.Following, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *SQLiteStore) loadRepos(ctx context.Context) ([]domain.RepoRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT login, full_name, created_at, stargazers_count, watchers_count, language, has_projects, has_wiki, license_name
		 FROM repositories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.RepoRecord
	for rows.Next() {
		var r domain.RepoRecord
		if err := rows.Scan(&r.Login, &r.FullName, &r.CreatedAt, &r.StargazersCount, &r.WatchersCount,
			&r.Language, &r.HasProjects, &r.HasWiki, &r.LicenseName); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
