package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"athena/internal/athena"
	applog "athena/internal/log"
	"athena/internal/services"
)

// userMessage turns a service error into text for the operator.
func userMessage(err error) string {
	var verr *services.ValidationError
	var apiErr *athena.APIError
	switch {
	case errors.As(err, &verr):
		return verr.Message()
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusUnauthorized {
			return "Your session has expired. Please sign in again."
		}
		if d := apiErr.Detail(); d != "" && len(d) < 200 {
			return d
		}
		return apiErr.Error()
	case errors.Is(err, services.ErrCategoryMissing):
		return "Category not found"
	case errors.Is(err, context.DeadlineExceeded):
		return "The Athena API did not answer in time"
	default:
		return "Unable to reach the Athena API"
	}
}

// statusFor picks the fragment status for a failed operation.
func statusFor(err error) int {
	var verr *services.ValidationError
	var apiErr *athena.APIError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCategoryMissing):
		return http.StatusNotFound
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// errorType classifies err for the error_type log field.
func errorType(err error) string {
	var verr *services.ValidationError
	var apiErr *athena.APIError
	var netErr net.Error
	switch {
	case errors.As(err, &verr):
		return applog.ErrorTypeValidation
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return applog.ErrorTypeAuth
		case http.StatusNotFound:
			return applog.ErrorTypeNotFound
		case http.StatusConflict:
			return applog.ErrorTypeConflict
		}
		return applog.ErrorTypeUpstream
	case errors.Is(err, services.ErrCategoryMissing):
		return applog.ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.As(err, &netErr):
		return applog.ErrorTypeNetwork
	default:
		return applog.ErrorTypeInternal
	}
}

// failMutation logs err and answers with an error notification, leaving the
// page untouched.
// A 401 from the API ends the session client-side.
func (s *Server) failMutation(w http.ResponseWriter, r *http.Request, component, op string, err error) {
	logOpError(r, component, op, err)
	b := ErrorResponse(statusFor(err), userMessage(err)).Reswap("none")
	if statusFor(err) == http.StatusUnauthorized {
		b.Redirect("/login")
	}
	b.Write(w)
}

func logOpError(r *http.Request, component, op string, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	fields := applog.NewFields()
	fields[applog.FieldErrorType] = errorType(err)
	var apiErr *athena.APIError
	if errors.As(err, &apiErr) {
		fields[applog.FieldAPIStatus] = apiErr.Status
	}
	if errorType(err) == applog.ErrorTypeValidation {
		logger.WithComponent(component).DebugContext(ctx, "Request rejected",
			fields.WithError(err).WithOperation(op).ToSlice()...)
		return
	}
	applog.NewStructuredLogger(logger).LogError(ctx, "Operation failed", err, component, op, fields)
}

func asValidation(err error) (*services.ValidationError, bool) {
	var verr *services.ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
