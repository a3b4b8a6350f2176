// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-census/internal/domain"
	"github.com/naka-gawa/github-census/internal/gateway"
)

// CollectorOptions tunes pagination and fan-out of a Collector.
type CollectorOptions struct {
	Policy   domain.PaginationPolicy
	PageSize int
	// Concurrency bounds how many users are fetched at once. 1 keeps the run sequential.
	Concurrency int
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Collector is the use case for enumerating users and their repositories.
type Collector struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
	opts    CollectorOptions
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, logger *log.Logger, opts CollectorOptions) *Collector {
	if opts.Policy == "" {
		opts.Policy = domain.PolicyShortPage
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Collector{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
	}
}

// Collect searches users matching query, then fetches every user's profile and repositories.
// Failures never abort the run: a failed page truncates that listing, a failed profile
// drops that user, and both are recorded in the report.
func (c *Collector) Collect(ctx context.Context, query string) *domain.CollectionReport {
	c.logger.Println("Usecase: Starting collection...")
	report := &domain.CollectionReport{}

	logins, err := paginate(ctx, c.opts.Policy, c.opts.PageSize, func(ctx context.Context, cursor string) (*domain.Page[string], error) {
		return c.fetcher.SearchUsers(ctx, query, cursor, c.opts.PageSize)
	})
	if err != nil {
		report.Failures = append(report.Failures, c.fail("user search stopped after %d users: %v", len(logins), err))
	}
	logins = uniqueLogins(logins)
	c.logger.Printf("Usecase: Found %d users.\n", len(logins))

	users := make([]*domain.UserRecord, len(logins))
	repos := make([][]domain.RepoRecord, len(logins))
	failures := make([][]string, len(logins))

	bar := progressbar.NewOptions(len(logins),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSetDescription("[cyan]Fetching users[reset]"),
		progressbar.OptionSetWriter(c.opts.Progress),
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.opts.Concurrency)
	for i, login := range logins {
		eg.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			user, err := c.fetcher.GetUser(egCtx, login)
			if err != nil {
				failures[i] = append(failures[i], c.fail("user %s dropped: %v", login, err))
				return nil
			}
			users[i] = user

			owned, err := paginate(egCtx, c.opts.Policy, c.opts.PageSize, func(ctx context.Context, cursor string) (*domain.Page[domain.RepoRecord], error) {
				return c.fetcher.ListRepos(ctx, login, cursor, c.opts.PageSize)
			})
			repos[i] = owned
			if err != nil {
				failures[i] = append(failures[i], c.fail("repositories of %s stopped after %d: %v", login, len(owned), err))
			}
			return nil
		})
	}
	// Workers report failures in place; Wait only joins them.
	_ = eg.Wait()
	_ = bar.Finish()

	for i := range logins {
		report.Failures = append(report.Failures, failures[i]...)
		if users[i] == nil {
			continue
		}
		report.Users = append(report.Users, *users[i])
		report.Repos = append(report.Repos, repos[i]...)
	}
	c.logger.Printf("Usecase: Collected %d users and %d repositories (%d failures).\n",
		len(report.Users), len(report.Repos), len(report.Failures))
	return report
}

func (c *Collector) fail(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	c.logger.Println("Usecase: " + msg)
	return msg
}

// paginate requests pages until the policy reports the listing exhausted.
// On error the items gathered so far are returned with it.
func paginate[T any](ctx context.Context, policy domain.PaginationPolicy, pageSize int, fetch func(ctx context.Context, cursor string) (*domain.Page[T], error)) ([]T, error) {
	var items []T
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		page, err := fetch(ctx, cursor)
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		if domain.Done(policy, page, pageSize) {
			return items, nil
		}
		cursor = page.Cursor
	}
}

// uniqueLogins drops repeats that a shifting search index can produce across pages.
func uniqueLogins(logins []string) []string {
	seen := make(map[string]bool, len(logins))
	out := logins[:0]
	for _, login := range logins {
		if seen[login] {
			continue
		}
		seen[login] = true
		out = append(out, login)
	}
	return out
}
