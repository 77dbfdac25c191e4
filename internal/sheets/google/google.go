// Package google appends category audit records to a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "athena/internal/log"
	ports "athena/internal/sheets"
)

// Header is written by EnsureHeader when the audit sheet is empty.
var Header = []any{"Timestamp", "Action", "Category", "Previous Name", "Limit", "Domains", "Actor", "Request ID"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	attempts      uint
	retryDelay    time.Duration
}

var _ ports.AuditWriter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID, cfg.SheetName,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client from raw API options.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if sheetName == "" {
		sheetName = "Audit"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		attempts:      3,
		retryDelay:    30 * time.Second,
	}, nil
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// EnsureHeader writes the column header when the first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A1:H1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1:H1",
		&gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// AppendAudit appends one row, retrying when the API rate limits.
func (c *Client) AppendAudit(ctx context.Context, rec ports.AuditRecord) (string, error) {
	writeRange := fmt.Sprintf("%s!A:H", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{rec.Row()}}

	var ref string
	err := retry.Do(
		func() error {
			resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, writeRange, vr).
				ValueInputOption("RAW").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			if resp.Updates != nil {
				ref = resp.Updates.UpdatedRange
			}
			return nil
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				slog.WarnContext(ctx, "Sheets rate limited, will retry",
					applog.FieldComponent, applog.ComponentSheets, applog.FieldOperation, applog.OpAppend, applog.FieldError, err)
				return true
			}
			return false
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("append audit row: %w", err)
	}

	slog.InfoContext(ctx, "Audit row appended",
		applog.FieldComponent, applog.ComponentSheets, applog.FieldSheetsRef, ref, "action", rec.Action, applog.FieldCategory, rec.Category)
	return ref, nil
}
