package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-census/internal/config"
	"github.com/naka-gawa/github-census/internal/domain"
	"github.com/naka-gawa/github-census/internal/gateway"
	"github.com/naka-gawa/github-census/internal/report"
	"github.com/naka-gawa/github-census/internal/sink"
	"github.com/naka-gawa/github-census/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collects users and repositories, stores them and prints statistics",
	Long: `Searches GitHub users matching a location and minimum follower count, fetches
their profiles and owned repositories, writes users.csv and repositories.csv
(and optionally a SQLite database), then prints the statistics.

Failed requests never abort the run: the affected listing is truncated and
the failure is reported at the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger(cmd)
		cfg, err := collectConfig(cmd)
		if err != nil {
			return err
		}

		// Inject dependencies and run the main business logic.
		fetcher, err := gateway.New(cfg.Backend, cfg.Token, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		stores, err := openStores(ctx, cfg.OutDir, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer closeStores(stores)

		collector := usecase.NewCollector(fetcher, logger, usecase.CollectorOptions{
			Policy:      cfg.Policy,
			PageSize:    cfg.PageSize,
			Concurrency: cfg.Concurrency,
			Progress:    os.Stderr,
		})
		collected := collector.Collect(ctx, cfg.SearchQuery())

		if err := saveTables(ctx, stores, collected); err != nil {
			return err
		}

		result := usecase.NewAggregator(logger).Analyze(collected.Users, collected.Repos)
		summary := report.Summary{
			Users:    len(collected.Users),
			Repos:    len(collected.Repos),
			Failures: collected.Failures,
		}
		return printResult(cmd.OutOrStdout(), cfg.JSON, summary, result)
	},
}

// saveTables writes the collected tables to every store. An interrupted run
// still saves what it gathered, so the save ignores cancellation of ctx.
func saveTables(ctx context.Context, stores []sink.Store, collected *domain.CollectionReport) error {
	ctx = context.WithoutCancel(ctx)
	for _, store := range stores {
		if err := store.Save(ctx, collected.Users, collected.Repos); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
	}
	return nil
}

func collectConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	flags := cmd.Flags()
	token, _ := flags.GetString("token")
	policy, _ := flags.GetString("policy")
	cfg.Token = config.ResolveToken(token)
	cfg.Policy = domain.PaginationPolicy(policy)
	cfg.Backend, _ = flags.GetString("backend")
	cfg.Location, _ = flags.GetString("location")
	cfg.MinFollowers, _ = flags.GetInt("min-followers")
	cfg.PageSize, _ = flags.GetInt("page-size")
	cfg.Concurrency, _ = flags.GetInt("concurrency")
	cfg.OutDir, _ = flags.GetString("out-dir")
	cfg.SQLitePath, _ = flags.GetString("sqlite")
	cfg.JSON, _ = flags.GetBool("json")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func init() {
	rootCmd.AddCommand(collectCmd)
	defaults := config.Default()
	collectCmd.Flags().StringP("location", "l", "", "Location filter for the user search (required)")
	collectCmd.Flags().IntP("min-followers", "f", 0, "Only users with more followers than this")
	collectCmd.Flags().String("token", "", "GitHub token (defaults to $"+config.TokenEnv+")")
	collectCmd.Flags().String("backend", defaults.Backend, "API backend: rest or graphql")
	collectCmd.Flags().String("policy", string(defaults.Policy), "Pagination stop rule: short-page or next-link")
	collectCmd.Flags().Int("page-size", defaults.PageSize, "Items requested per page (1-100)")
	collectCmd.Flags().Int("concurrency", defaults.Concurrency, "Users fetched in parallel")
	collectCmd.Flags().StringP("out-dir", "o", defaults.OutDir, "Directory for users.csv and repositories.csv")
	collectCmd.Flags().String("sqlite", "", "Also store the tables in this SQLite database")
	collectCmd.Flags().Bool("json", false, "Print the statistics as JSON")
	collectCmd.MarkFlagRequired("location")
}
