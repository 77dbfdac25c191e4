package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"athena/internal/athena"
	"athena/internal/core"
)

const descriptionLimit = 50

// TransactionRow is a history entry shaped for the transaction tables.
type TransactionRow struct {
	ID          string
	Date        string
	Time        string
	Description string
	Task        string
	Category    string
	Amount      string
	Status      string
	Blocked     bool
}

// StatusFilter narrows the transaction list by decision.
type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusAllowed StatusFilter = "allowed"
	StatusBlocked StatusFilter = "blocked"
)

func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAllowed:
		return StatusAllowed
	case StatusBlocked:
		return StatusBlocked
	default:
		return StatusAll
	}
}

// PageSizes are the selectable page sizes of the transaction table.
var PageSizes = []int{5, 10}

// ParsePageSize returns n when it is a selectable size, else the largest one.
func ParsePageSize(n int) int {
	for _, s := range PageSizes {
		if s == n {
			return n
		}
	}
	return PageSizes[len(PageSizes)-1]
}

// RowFromHistory maps one history entry to a table row. Date and time are
// split from the raw timestamp as sent by the API.
func RowFromHistory(h core.HistoryEntry) TransactionRow {
	date, clock := splitTimestamp(h.Timestamp)
	status := "Allowed"
	if h.Blocked() {
		status = "Blocked"
	}
	return TransactionRow{
		ID:          fmt.Sprintf("TXN-%03d", h.ID),
		Date:        date,
		Time:        clock,
		Description: truncate(h.UserTask, descriptionLimit),
		Task:        h.UserTask,
		Category:    h.ActiveAccountCategory,
		Amount:      core.FormatOutflow(h.TransactionAmount),
		Status:      status,
		Blocked:     h.Blocked(),
	}
}

func RowsFromHistory(history []core.HistoryEntry) []TransactionRow {
	rows := make([]TransactionRow, 0, len(history))
	for _, h := range history {
		rows = append(rows, RowFromHistory(h))
	}
	return rows
}

func splitTimestamp(ts string) (date, clock string) {
	sep := strings.IndexAny(ts, "T ")
	if sep < 0 {
		return ts, ""
	}
	date, clock = ts[:sep], ts[sep+1:]
	if len(clock) > 8 {
		clock = clock[:8]
	}
	return date, clock
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// FilterRows keeps rows matching status and whose ID, description or
// category contains query, case-insensitively.
func FilterRows(rows []TransactionRow, query string, status StatusFilter) []TransactionRow {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]TransactionRow, 0, len(rows))
	for _, r := range rows {
		switch status {
		case StatusAllowed:
			if r.Blocked {
				continue
			}
		case StatusBlocked:
			if !r.Blocked {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.ID), q) &&
			!strings.Contains(strings.ToLower(r.Task), q) &&
			!strings.Contains(strings.ToLower(r.Category), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TransactionQuery is the state of the transaction table controls.
type TransactionQuery struct {
	Search   string
	Status   StatusFilter
	Page     int
	PageSize int
}

// InterceptInput is the raw "evaluate transaction" form.
type InterceptInput struct {
	Task     string
	Category string
	Amount   string
}

type TransactionService struct {
	history   HistoryLister
	intercept InterceptAPI
}

func NewTransactionService(history HistoryLister, intercept InterceptAPI) *TransactionService {
	return &TransactionService{history: history, intercept: intercept}
}

// List fetches history and returns the requested page of filtered rows.
func (s *TransactionService) List(ctx context.Context, q TransactionQuery) (core.Page[TransactionRow], error) {
	history, err := s.history.ListHistory(ctx)
	if err != nil {
		return core.Page[TransactionRow]{}, fmt.Errorf("list history: %w", err)
	}
	rows := FilterRows(RowsFromHistory(history), q.Search, q.Status)
	return core.Paginate(rows, q.Page, ParsePageSize(q.PageSize)), nil
}

// Evaluate validates the form and submits it for an upstream decision.
func (s *TransactionService) Evaluate(ctx context.Context, in InterceptInput) (athena.InterceptResponse, error) {
	task := strings.TrimSpace(in.Task)
	if task == "" {
		return athena.InterceptResponse{}, &ValidationError{Field: "task", Err: ErrEmptyTask}
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		return athena.InterceptResponse{}, &ValidationError{Field: "category", Err: core.ErrEmptyName}
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return athena.InterceptResponse{}, &ValidationError{Field: "amount", Err: err}
	}

	res, err := s.intercept.Intercept(ctx, athena.InterceptRequest{
		UserTask:              task,
		ActiveAccountCategory: category,
		TransactionAmount:     amount.InexactFloat64(),
	})
	if err != nil {
		return athena.InterceptResponse{}, fmt.Errorf("intercept: %w", err)
	}
	return res, nil
}
