// Package memory keeps audit records in process; the worker uses it when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"athena/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []sheets.AuditRecord
}

var _ sheets.AuditWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendAudit stores the record and returns a synthetic row reference.
func (s *Store) AppendAudit(ctx context.Context, rec sheets.AuditRecord) (string, error) {
	s.mu.Lock()
	s.items = append(s.items, rec)
	ref := fmt.Sprintf("mem:%d", len(s.items))
	s.mu.Unlock()

	slog.InfoContext(ctx, "Audit record stored in memory",
		"component", "sheets", "ref", ref, "action", rec.Action, "category", rec.Category)
	return ref, nil
}

// Records returns a copy of everything appended so far.
func (s *Store) Records() []sheets.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.AuditRecord(nil), s.items...)
}
