package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"athena/internal/core"
	"athena/internal/report"
)

// RecentLimit is how many rows the overview's transaction table shows.
const RecentLimit = 5

// Overview is everything the overview page renders.
type Overview struct {
	Report report.Report
	Recent []TransactionRow
}

// DashboardService loads categories and history together and derives the
// overview report from them.
type DashboardService struct {
	categories CategoryLister
	history    HistoryLister
	now        func() time.Time
}

func NewDashboardService(categories CategoryLister, history HistoryLister) *DashboardService {
	return &DashboardService{categories: categories, history: history, now: time.Now}
}

// Fetch requests categories and history in parallel. The first failure
// cancels the other request.
func (s *DashboardService) Fetch(ctx context.Context) ([]core.Category, []core.HistoryEntry, error) {
	var (
		categories []core.Category
		history    []core.HistoryEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.history.ListHistory(gctx)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return categories, history, nil
}

// Overview fetches fresh data and builds the report for rng.
func (s *DashboardService) Overview(ctx context.Context, rng report.Range) (Overview, error) {
	categories, history, err := s.Fetch(ctx)
	if err != nil {
		return Overview{}, err
	}

	rows := RowsFromHistory(history)
	if len(rows) > RecentLimit {
		rows = rows[:RecentLimit]
	}
	return Overview{
		Report: report.Build(categories, history, rng, s.now()),
		Recent: rows,
	}, nil
}
