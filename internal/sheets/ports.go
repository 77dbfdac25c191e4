package sheets

import (
	"context"
	"strings"
	"time"
)

// AuditRecord is one row of the category audit log.
type AuditRecord struct {
	Timestamp    time.Time
	Action       string
	Category     string
	PreviousName string
	Limit        string
	Domains      []string
	Actor        string
	RequestID    string
}

// Row renders the record in sheet column order.
func (r AuditRecord) Row() []any {
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Action,
		r.Category,
		r.PreviousName,
		r.Limit,
		strings.Join(r.Domains, ", "),
		r.Actor,
		r.RequestID,
	}
}

// Ports for outbound adapters.
type (
	AuditWriter interface {
		AppendAudit(ctx context.Context, rec AuditRecord) (rowRef string, err error)
	}
)
