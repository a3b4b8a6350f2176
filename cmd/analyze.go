package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-census/internal/domain"
	"github.com/naka-gawa/github-census/internal/report"
	"github.com/naka-gawa/github-census/internal/sink"
	"github.com/naka-gawa/github-census/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Prints statistics for previously collected tables",
	Long:  `Reads users and repositories written by "collect" (CSV by default, or a SQLite database with --sqlite) and prints the statistics without calling GitHub.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logger := newLogger(cmd)

		inDir, _ := cmd.Flags().GetString("in-dir")
		sqlitePath, _ := cmd.Flags().GetString("sqlite")
		asJSON, _ := cmd.Flags().GetBool("json")

		var store sink.Store
		var err error
		if sqlitePath != "" {
			store, err = sink.OpenSQLite(ctx, sqlitePath)
		} else {
			store, err = sink.NewCSVStore(inDir)
		}
		if err != nil {
			return err
		}
		defer store.Close()

		users, repos, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load tables: %w", err)
		}

		result := usecase.NewAggregator(logger).Analyze(users, repos)
		return printResult(cmd.OutOrStdout(), asJSON, report.Summary{Users: len(users), Repos: len(repos)}, result)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("in-dir", "i", ".", "Directory holding users.csv and repositories.csv")
	analyzeCmd.Flags().String("sqlite", "", "Read the tables from this SQLite database instead")
	analyzeCmd.Flags().Bool("json", false, "Print the statistics as JSON")
}

// openStores returns the CSV store plus the SQLite store when a path is given.
func openStores(ctx context.Context, outDir, sqlitePath string) ([]sink.Store, error) {
	csvStore, err := sink.NewCSVStore(outDir)
	if err != nil {
		return nil, err
	}
	stores := []sink.Store{csvStore}
	if sqlitePath != "" {
		db, err := sink.OpenSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		stores = append(stores, db)
	}
	return stores, nil
}

func closeStores(stores []sink.Store) {
	for _, s := range stores {
		s.Close()
	}
}

func printResult(w io.Writer, asJSON bool, summary report.Summary, result *domain.AnalysisResult) error {
	if asJSON {
		return report.PrintJSON(w, summary, result)
	}
	report.PrintText(w, summary, result)
	return nil
}
