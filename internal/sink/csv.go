package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/naka-gawa/github-census/internal/domain"
)

// File names written by CSVStore.
const (
	UsersFile = "users.csv"
	ReposFile = "repositories.csv"
)

// CSVStore keeps the two tables as CSV files in a directory.
type CSVStore struct {
	dir string
}

// NewCSVStore returns a store rooted at dir, creating the directory when needed.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

// Save writes both files. It does not stop on cancellation, so the pair is
// always written together.
func (s *CSVStore) Save(_ context.Context, users []domain.UserRecord, repos []domain.RepoRecord) error {
	userRows := make([][]string, len(users))
	for i := range users {
		userRows[i] = userRow(&users[i])
	}
	if err := s.writeFile(UsersFile, domain.UserColumns, userRows); err != nil {
		return err
	}
	repoRows := make([][]string, len(repos))
	for i := range repos {
		repoRows[i] = repoRow(&repos[i])
	}
	return s.writeFile(ReposFile, domain.RepoColumns, repoRows)
}

func (s *CSVStore) Load(ctx context.Context) ([]domain.UserRecord, []domain.RepoRecord, error) {
	userRows, err := s.readFile(UsersFile, domain.UserColumns)
	if err != nil {
		return nil, nil, err
	}
	users := make([]domain.UserRecord, 0, len(userRows))
	for i, row := range userRows {
		u, err := parseUserRow(row)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s line %d: %w", UsersFile, i+2, err)
		}
		users = append(users, u)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	repoRows, err := s.readFile(ReposFile, domain.RepoColumns)
	if err != nil {
		return nil, nil, err
	}
	repos := make([]domain.RepoRecord, 0, len(repoRows))
	for i, row := range repoRows {
		r, err := parseRepoRow(row)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s line %d: %w", ReposFile, i+2, err)
		}
		repos = append(repos, r)
	}
	return users, repos, nil
}

func (s *CSVStore) Close() error { return nil }

// writeFile writes header and rows, releasing the handle before returning.
func (s *CSVStore) writeFile(name string, header []string, rows [][]string) (err error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// readFile returns the data rows after checking the header.
func (s *CSVStore) readFile(name string, header []string) ([][]string, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	got, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", path, err)
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("unexpected header in %s: %v", path, got)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
