package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"athena/internal/athena"
	applog "athena/internal/log"
	"athena/internal/services"
)

func TestErrorType(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &services.ValidationError{Field: "name", Err: errors.New("empty")}, applog.ErrorTypeValidation},
		{"unauthorized", &athena.APIError{Status: 401}, applog.ErrorTypeAuth},
		{"api not found", &athena.APIError{Status: 404}, applog.ErrorTypeNotFound},
		{"conflict", &athena.APIError{Status: 409}, applog.ErrorTypeConflict},
		{"server error", &athena.APIError{Status: 500}, applog.ErrorTypeUpstream},
		{"missing category", fmt.Errorf("find: %w", services.ErrCategoryMissing), applog.ErrorTypeNotFound},
		{"deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), applog.ErrorTypeTimeout},
		{"dial failure", fmt.Errorf("list categories: %w", dial), applog.ErrorTypeNetwork},
		{"anything else", errors.New("boom"), applog.ErrorTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}
