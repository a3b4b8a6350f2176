package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-census/internal/domain"
	"github.com/naka-gawa/github-census/internal/report"
	"github.com/naka-gawa/github-census/internal/sink"
)

func TestSaveTables_InterruptedRunStillSaves(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "census.db")
	stores, err := openStores(context.Background(), dir, dbPath)
	require.NoError(t, err)
	defer closeStores(stores)

	collected := &domain.CollectionReport{
		Users: []domain.UserRecord{{Login: "alice", Followers: 120}},
		Repos: []domain.RepoRecord{{Login: "alice", FullName: "alice/tool", Language: "Go"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, saveTables(ctx, stores, collected))

	csvStore, err := sink.NewCSVStore(dir)
	require.NoError(t, err)
	users, repos, err := csvStore.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, collected.Users, users)
	assert.Equal(t, collected.Repos, repos)

	users, repos, err = stores[1].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, collected.Users, users)
	assert.Equal(t, collected.Repos, repos)
}

func TestPrintResult(t *testing.T) {
	result := &domain.AnalysisResult{MajorityCompany: "ACME"}

	var text, js bytes.Buffer
	require.NoError(t, printResult(&text, false, report.Summary{Users: 1}, result))
	require.NoError(t, printResult(&js, true, report.Summary{Users: 1}, result))

	assert.Contains(t, text.String(), "ACME")
	assert.Contains(t, js.String(), `"majority_company": "ACME"`)
}
