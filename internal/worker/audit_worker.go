package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"athena/internal/amqp"
	applog "athena/internal/log"
	"athena/internal/sheets"
)

// AuditWorker turns category events into audit log rows.
type AuditWorker struct {
	writer    sheets.AuditWriter
	processed atomic.Int64
}

func NewAuditWorker(writer sheets.AuditWriter) *AuditWorker {
	return &AuditWorker{writer: writer}
}

// HandleCategoryEvent appends one audit row for ev. A returned error makes
// the consumer requeue the message.
func (w *AuditWorker) HandleCategoryEvent(ctx context.Context, ev *amqp.CategoryEvent) error {
	slog.InfoContext(ctx, "Processing category event",
		applog.FieldComponent, applog.ComponentWorker,
		"action", ev.Action,
		applog.FieldCategory, ev.Category,
		"actor", ev.Actor)

	ref, err := w.writer.AppendAudit(ctx, RecordFromEvent(ev))
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	w.processed.Add(1)
	slog.InfoContext(ctx, "Category event recorded",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldCategory, ev.Category,
		applog.FieldSheetsRef, ref)
	return nil
}

// Processed returns how many events were recorded since start.
func (w *AuditWorker) Processed() int64 {
	return w.processed.Load()
}

// RecordFromEvent maps an event to its sheet row.
func RecordFromEvent(ev *amqp.CategoryEvent) sheets.AuditRecord {
	return sheets.AuditRecord{
		Timestamp:    ev.Timestamp,
		Action:       string(ev.Action),
		Category:     ev.Category,
		PreviousName: ev.PreviousName,
		Limit:        ev.Limit,
		Domains:      append([]string(nil), ev.Domains...),
		Actor:        ev.Actor,
		RequestID:    ev.RequestID,
	}
}
