package domain

import "fmt"

// Page is one bounded batch of results from a paginated endpoint.
type Page[T any] struct {
	Items []T
	// Size is the number of entries the transport returned, including
	// entries that were filtered out of Items.
	Size int
	// Cursor requests the following page. Empty when none can be requested.
	Cursor string
	// HasNext is the transport's own terminal-page signal.
	HasNext bool
}

// PaginationPolicy decides when a paginated listing is exhausted.
type PaginationPolicy string

const (
	// PolicyShortPage stops on the first page holding fewer entries than the page size.
	PolicyShortPage PaginationPolicy = "short-page"
	// PolicyNextLink stops when the transport reports no next page.
	PolicyNextLink PaginationPolicy = "next-link"
)

// ParsePaginationPolicy maps a flag value to a policy.
func ParsePaginationPolicy(s string) (PaginationPolicy, error) {
	switch p := PaginationPolicy(s); p {
	case PolicyShortPage, PolicyNextLink:
		return p, nil
	}
	return "", fmt.Errorf("unknown pagination policy %q (want %q or %q)", s, PolicyShortPage, PolicyNextLink)
}

// Done reports whether no further page should be requested after p.
func Done[T any](policy PaginationPolicy, p *Page[T], pageSize int) bool {
	if p.Size == 0 || p.Cursor == "" {
		return true
	}
	if policy == PolicyNextLink {
		return !p.HasNext
	}
	return p.Size < pageSize
}

// CollectionReport is the output of a collection run.
type CollectionReport struct {
	Users []UserRecord
	Repos []RepoRecord
	// Failures lists the non-fatal errors that truncated or dropped results.
	Failures []string
}
