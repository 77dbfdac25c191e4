// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// query parameters for the paginated tables and a body parser that accepts
// both form-encoded and JSON payloads.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	applog "athena/internal/log"
	"athena/internal/report"
	"athena/internal/services"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 1 << 20

// ParsePage reads a 1-based page number, defaulting to 1.
func ParsePage(query url.Values) int {
	if n, err := strconv.Atoi(strings.TrimSpace(query.Get("page"))); err == nil && n > 0 {
		return n
	}
	return 1
}

// ParsePosition reads the 1-based ?at= list position of a removed entry.
// It returns 0 when absent or malformed.
func ParsePosition(query url.Values) int {
	if n, err := strconv.Atoi(strings.TrimSpace(query.Get("at"))); err == nil && n > 0 {
		return n
	}
	return 0
}

// ParseRange reads ?range=24h|7d|30d. Anything else is 24h.
func ParseRange(query url.Values) report.Range {
	return report.ParseRange(query.Get("range"))
}

// ParseTransactionQuery reads the transaction table controls.
func ParseTransactionQuery(query url.Values) services.TransactionQuery {
	size, _ := strconv.Atoi(strings.TrimSpace(query.Get("size")))
	return services.TransactionQuery{
		Search:   sanitizeInput(query.Get("q")),
		Status:   services.ParseStatusFilter(query.Get("status")),
		Page:     ParsePage(query),
		PageSize: services.ParsePageSize(size),
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.GetRaw(key))
}

// GetRaw returns a value without sanitizing or trimming. Passwords use it.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Bool reads a checkbox or JSON boolean.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody parses the request body and writes a 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ctx := r.Context()
		applog.FromContext(ctx).WarnContext(ctx, "Request body rejected",
			applog.FieldOperation, applog.OpParse, applog.FieldErrorType, applog.ErrorTypeValidation, applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return nil, false
	}
	return p, true
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
