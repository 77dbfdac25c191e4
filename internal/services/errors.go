package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTask       = errors.New("task description is required")
	ErrCategoryMissing = errors.New("category not found")
)

// ValidationError reports a rejected form field before any API call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Message is the text shown next to the field.
func (e *ValidationError) Message() string {
	if e.Err == nil {
		return ""
	}
	msg := e.Err.Error()
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
