package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/core"
)

func TestRowFromHistory(t *testing.T) {
	long := strings.Repeat("a", 60)
	row := RowFromHistory(core.HistoryEntry{
		ID:                    7,
		UserTask:              long,
		ActiveAccountCategory: "shopping",
		TransactionAmount:     decimal.RequireFromString("1234"),
		Decision:              core.Block,
		Timestamp:             "2024-05-01T10:15:30.123456",
	})

	assert.Equal(t, "TXN-007", row.ID)
	assert.Equal(t, "2024-05-01", row.Date)
	assert.Equal(t, "10:15:30", row.Time)
	assert.Equal(t, strings.Repeat("a", 50)+"…", row.Description)
	assert.Equal(t, long, row.Task)
	assert.Equal(t, "-$1,234.00", row.Amount)
	assert.Equal(t, "Blocked", row.Status)
	assert.True(t, row.Blocked)
}

func TestRowFromHistory_ShortFields(t *testing.T) {
	row := RowFromHistory(core.HistoryEntry{ID: 1234, UserTask: "coffee", Decision: core.Allow, Timestamp: "garbage"})

	assert.Equal(t, "TXN-1234", row.ID)
	assert.Equal(t, "coffee", row.Description)
	assert.Equal(t, "garbage", row.Date)
	assert.Empty(t, row.Time)
	assert.Equal(t, "Allowed", row.Status)
}

func TestFilterRows(t *testing.T) {
	rows := []TransactionRow{
		{ID: "TXN-001", Task: "Buy shoes", Category: "shopping"},
		{ID: "TXN-002", Task: "Flight to Rome", Category: "travel", Blocked: true},
		{ID: "TXN-003", Task: "Groceries", Category: "food"},
	}

	tests := []struct {
		name   string
		query  string
		status StatusFilter
		want   []string
	}{
		{"all", "", StatusAll, []string{"TXN-001", "TXN-002", "TXN-003"}},
		{"blocked only", "", StatusBlocked, []string{"TXN-002"}},
		{"allowed only", "", StatusAllowed, []string{"TXN-001", "TXN-003"}},
		{"search description", "ROME", StatusAll, []string{"TXN-002"}},
		{"search category", "food", StatusAll, []string{"TXN-003"}},
		{"search id", "txn-001", StatusAll, []string{"TXN-001"}},
		{"search and status", "shoes", StatusBlocked, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRows(rows, tt.query, tt.status)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseStatusFilterAndPageSize(t *testing.T) {
	assert.Equal(t, StatusBlocked, ParseStatusFilter(" Blocked "))
	assert.Equal(t, StatusAll, ParseStatusFilter("whatever"))
	assert.Equal(t, 5, ParsePageSize(5))
	assert.Equal(t, 10, ParsePageSize(7))
}

func TestTransactionService_List(t *testing.T) {
	api := newFakeAPI()
	for i := 1; i <= 12; i++ {
		api.history = append(api.history, core.HistoryEntry{ID: int64(i), UserTask: "task", Decision: core.Allow})
	}
	svc := NewTransactionService(api, api)

	page, err := svc.List(context.Background(), TransactionQuery{Page: 3, PageSize: 5})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 11, page.Start)
	assert.Equal(t, 12, page.End)
	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "TXN-011", page.Items[0].ID)
}

func TestTransactionService_ListError(t *testing.T) {
	api := newFakeAPI()
	api.historyErr = errors.New("down")

	_, err := NewTransactionService(api, api).List(context.Background(), TransactionQuery{})
	assert.Error(t, err)
}

func TestTransactionService_Evaluate(t *testing.T) {
	api := newFakeAPI()
	api.decision = core.Block
	svc := NewTransactionService(api, api)

	res, err := svc.Evaluate(context.Background(), InterceptInput{Task: " buy gpu ", Category: "Shopping", Amount: "12,50"})
	require.NoError(t, err)

	assert.Equal(t, core.Block, res.Decision)
	require.Len(t, api.intercepted, 1)
	assert.Equal(t, "buy gpu", api.intercepted[0].UserTask)
	assert.Equal(t, "shopping", api.intercepted[0].ActiveAccountCategory)
	assert.InDelta(t, 12.5, api.intercepted[0].TransactionAmount, 0.0001)
}

func TestTransactionService_EvaluateValidation(t *testing.T) {
	api := newFakeAPI()
	svc := NewTransactionService(api, api)

	tests := []struct {
		name  string
		in    InterceptInput
		field string
	}{
		{"empty task", InterceptInput{Category: "x", Amount: "1"}, "task"},
		{"empty category", InterceptInput{Task: "t", Amount: "1"}, "category"},
		{"bad amount", InterceptInput{Task: "t", Category: "x", Amount: "abc"}, "amount"},
		{"zero amount", InterceptInput{Task: "t", Category: "x", Amount: "0"}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Evaluate(context.Background(), tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, api.intercepted)
}
