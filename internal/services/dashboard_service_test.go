package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/core"
	"athena/internal/report"
)

func TestDashboardService_Overview(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	api := newFakeAPI(category("shopping", 1000, 400), category("travel", 500, 500))
	for i := 1; i <= 7; i++ {
		decision := core.Allow
		if i%3 == 0 {
			decision = core.Block
		}
		api.history = append(api.history, core.HistoryEntry{
			ID:                    int64(i),
			UserTask:              "buy item",
			ActiveAccountCategory: "shopping",
			TransactionAmount:     decimal.NewFromInt(int64(i * 10)),
			Decision:              decision,
			Timestamp:             now.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		})
	}

	svc := NewDashboardService(api, api)
	svc.now = func() time.Time { return now }

	ov, err := svc.Overview(context.Background(), report.Last24h)
	require.NoError(t, err)

	assert.Equal(t, "$600.00", ov.Report.Stats[0].Value)
	assert.Equal(t, 7, ov.Report.Scanned)
	assert.Equal(t, 2, ov.Report.Blocked)
	assert.Len(t, ov.Report.Series, 12)
	require.Len(t, ov.Recent, RecentLimit)
	assert.Equal(t, "TXN-001", ov.Recent[0].ID)
}

func TestDashboardService_FetchFailure(t *testing.T) {
	api := newFakeAPI()
	api.historyErr = errors.New("boom")

	svc := NewDashboardService(api, api)
	_, err := svc.Overview(context.Background(), report.Last7d)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list history")
}

type blockingLister struct{}

func (blockingLister) ListCategories(ctx context.Context) ([]core.Category, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDashboardService_FirstErrorCancelsSibling(t *testing.T) {
	api := newFakeAPI()
	api.historyErr = errors.New("history down")

	svc := NewDashboardService(blockingLister{}, api)

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Fetch(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history down")
	case <-time.After(2 * time.Second):
		t.Fatal("sibling request was not cancelled")
	}
}
