package services

import (
	"context"
	"strings"

	"athena/internal/core"
)

// DomainPageSize is how many domains the whitelist shows per page.
const DomainPageSize = 10

// WhitelistResult is the outcome of an optimistic whitelist edit. Domains is
// what the page should show: the new list on success, the previous one when
// the API rejected the change. Err is set in the second case.
type WhitelistResult struct {
	Category core.Category
	Domains  []string
	Err      error
	// Duplicate is set when an added domain was already listed. The list
	// keeps both copies.
	Duplicate bool
}

// Reverted reports whether the edit was rolled back.
func (r WhitelistResult) Reverted() bool { return r.Err != nil }

// WhitelistService edits category domain lists optimistically: the next
// list is computed locally, sent with a full PUT and kept unless the PUT fails.
type WhitelistService struct {
	categories *CategoryService
}

func NewWhitelistService(categories *CategoryService) *WhitelistService {
	return &WhitelistService{categories: categories}
}

// Categories lists the categories selectable on the whitelist page.
func (s *WhitelistService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.categories.List(ctx)
}

// Page returns one page of a category's domains.
func (s *WhitelistService) Page(c core.Category, page int) core.Page[string] {
	return core.Paginate(c.Domains, page, DomainPageSize)
}

// AddDomain validates and appends domain to the category's list. A domain
// that is already listed is appended again and flagged as Duplicate.
// Validation failures return an error and leave the list untouched.
func (s *WhitelistService) AddDomain(ctx context.Context, category, domain string) (WhitelistResult, error) {
	c, err := s.categories.Find(ctx, category)
	if err != nil {
		return WhitelistResult{}, err
	}
	d, err := core.NormalizeDomain(domain)
	if err != nil {
		return WhitelistResult{}, &ValidationError{Field: "domain", Err: err}
	}
	duplicate := c.HasDomain(d)

	next := make([]string, 0, len(c.Domains)+1)
	next = append(next, c.Domains...)
	next = append(next, d)
	res := s.apply(ctx, c, next)
	res.Duplicate = duplicate
	return res, nil
}

// RemoveDomain drops a single entry from the category's list. position is
// the 1-based place the entry was shown at; when it no longer holds domain
// the first matching entry is removed instead. Other copies stay.
func (s *WhitelistService) RemoveDomain(ctx context.Context, category, domain string, position int) (WhitelistResult, error) {
	c, err := s.categories.Find(ctx, category)
	if err != nil {
		return WhitelistResult{}, err
	}
	i := position - 1
	if i < 0 || i >= len(c.Domains) || !strings.EqualFold(c.Domains[i], domain) {
		i = indexFold(c.Domains, domain)
	}
	if i < 0 {
		return WhitelistResult{}, &ValidationError{Field: "domain", Err: core.ErrDomainNotListed}
	}

	next := make([]string, 0, len(c.Domains)-1)
	next = append(next, c.Domains[:i]...)
	next = append(next, c.Domains[i+1:]...)
	return s.apply(ctx, c, next), nil
}

func indexFold(domains []string, domain string) int {
	for i, d := range domains {
		if strings.EqualFold(d, domain) {
			return i
		}
	}
	return -1
}

func (s *WhitelistService) apply(ctx context.Context, c core.Category, next []string) WhitelistResult {
	previous := c.Domains
	c.Domains = next
	if err := s.categories.ReplaceDomains(ctx, c.Name, next); err != nil {
		c.Domains = previous
		return WhitelistResult{Category: c, Domains: previous, Err: err}
	}
	return WhitelistResult{Category: c, Domains: next}
}
