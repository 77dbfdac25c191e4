package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Allow Decision = "ALLOW"
	Block Decision = "BLOCK"
)

type (
	// Decision is the upstream verdict recorded for an intercepted transaction.
	Decision string

	// Category is a named spending bucket with a budget limit and trusted domains.
	Category struct {
		ID              int64           `json:"id"`
		Name            string          `json:"name"`
		InitialLimit    decimal.Decimal `json:"initial_limit"`
		RemainingBudget decimal.Decimal `json:"remaining_budget"`
		Domains         []string        `json:"domains"`
	}

	// HistoryEntry is one logged transaction evaluation.
	HistoryEntry struct {
		ID                    int64           `json:"id"`
		UserTask              string          `json:"user_task"`
		ActiveAccountCategory string          `json:"active_account_category"`
		TransactionAmount     decimal.Decimal `json:"transaction_amount"`
		Decision              Decision        `json:"decision"`
		Timestamp             string          `json:"timestamp"`
	}

	// CategoryDraft carries user input for creating or editing a category.
	CategoryDraft struct {
		Name  string
		Limit decimal.Decimal
	}
)

var (
	ErrEmptyName       = errors.New("empty category name")
	ErrInvalidLimit    = errors.New("limit must be greater than zero")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrDomainNotListed = errors.New("domain is not whitelisted")
	ErrInvalidEmail    = errors.New("please enter a valid email address")
	ErrShortPassword   = errors.New("password must be at least 8 characters")
	ErrEmptyFullName   = errors.New("full name is required")
	ErrEmptyPassword   = errors.New("current password is required")
)

const MinPasswordLength = 8

var (
	domainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)
)

// Spent returns InitialLimit - RemainingBudget. It is not clamped and goes
// negative when the backend reports more budget than the limit.
func (c Category) Spent() decimal.Decimal {
	return c.InitialLimit.Sub(c.RemainingBudget)
}

// OverBudget reports whether spending exceeds the limit.
func (c Category) OverBudget() bool {
	return c.Spent().GreaterThan(c.InitialLimit)
}

// UsedPercent returns spent/limit as a percentage capped at 100. A zero
// limit yields 0.
func (c Category) UsedPercent() float64 {
	if !c.InitialLimit.IsPositive() {
		return 0
	}
	pct := c.Spent().Div(c.InitialLimit).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return 100
	}
	return pct.InexactFloat64()
}

// HasDomain reports whether domain is already in the category's list.
func (c Category) HasDomain(domain string) bool {
	for _, d := range c.Domains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// Blocked reports whether the entry was blocked upstream.
func (h HistoryEntry) Blocked() bool {
	return h.Decision == Block
}

// naiveLayouts are timestamp forms without a zone offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Time parses the entry timestamp. Values without a zone offset are read
// as wall-clock time in loc; values with an offset are converted into loc.
func (h HistoryEntry) Time(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(h.Timestamp)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (d CategoryDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.Limit.IsPositive() {
		return ErrInvalidLimit
	}
	return nil
}

// NormalizeDomain trims and lowercases a domain and checks it looks like a
// hostname.
func NormalizeDomain(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	if s == "" || len(s) > 253 || !domainPattern.MatchString(s) {
		return "", ErrInvalidDomain
	}
	return s, nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrShortPassword
	}
	return nil
}
