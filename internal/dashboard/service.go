package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recentFailureLimit = 10

// Summary is the aggregated view served to the dashboard screen.
type Summary struct {
	LeadsByStatus    map[string]int  `json:"leads_by_status"`
	OpenWorkOrders   int             `json:"open_work_orders"`
	OutstandingTotal decimal.Decimal `json:"outstanding_invoice_total"`
	EmailFailures    []EmailFailure  `json:"recent_email_failures"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// Service aggregates dashboard numbers behind a redis cache.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summary returns the cached aggregate, computing it on a miss.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary")
	if err != nil {
		return nil, err
	}

	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Warm recomputes the aggregate and primes the cache. Called by the
// scheduler so the first morning request is already warm.
func (s *Service) Warm(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	_, err := s.Summary(ctx)
	return err
}

func (s *Service) compute(ctx context.Context) (*Summary, error) {
	var summary Summary

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		leads, err := s.repo.LeadCountsByStatus(ctx)
		if err != nil {
			return err
		}
		summary.LeadsByStatus = leads
		return nil
	})

	g.Go(func() error {
		open, err := s.repo.CountOpenWorkOrders(ctx)
		if err != nil {
			return err
		}
		summary.OpenWorkOrders = open
		return nil
	})

	g.Go(func() error {
		outstanding, err := s.repo.OutstandingInvoiceTotal(ctx)
		if err != nil {
			return err
		}
		summary.OutstandingTotal = outstanding
		return nil
	})

	g.Go(func() error {
		failures, err := s.repo.RecentEmailFailures(ctx, recentFailureLimit)
		if err != nil {
			return err
		}
		summary.EmailFailures = failures
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.GeneratedAt = time.Now().UTC()
	return &summary, nil
}
