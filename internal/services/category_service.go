package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"athena/internal/amqp"
	"athena/internal/athena"
	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/middleware/trace"
)

// CategoryInput is the raw add/edit category form.
type CategoryInput struct {
	Name  string
	Limit string
}

// Draft validates the form into a CategoryDraft. Names are lowercased the
// way the API stores them.
func (in CategoryInput) Draft() (core.CategoryDraft, error) {
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if name == "" {
		return core.CategoryDraft{}, &ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	limit, err := core.ParseAmount(in.Limit)
	if err != nil {
		return core.CategoryDraft{}, &ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	d := core.CategoryDraft{Name: name, Limit: limit}
	if err := d.Validate(); err != nil {
		return core.CategoryDraft{}, &ValidationError{Field: "limit", Err: err}
	}
	return d, nil
}

// CategoryService applies category mutations against the API, re-fetches
// the list after each success and publishes an audit event.
type CategoryService struct {
	api       CategoryAPI
	publisher EventPublisher
}

// NewCategoryService creates the service. publisher may be nil when the
// audit trail is not configured.
func NewCategoryService(api CategoryAPI, publisher EventPublisher) *CategoryService {
	return &CategoryService{api: api, publisher: publisher}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Find returns the category with the given name from a fresh list.
func (s *CategoryService) Find(ctx context.Context, name string) (core.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return core.Category{}, err
	}
	return findCategory(cats, name)
}

func findCategory(cats []core.Category, name string) (core.Category, error) {
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("%q: %w", name, ErrCategoryMissing)
}

// Create adds a category with an empty domain list and returns the fresh list.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) ([]core.Category, error) {
	d, err := in.Draft()
	if err != nil {
		return nil, err
	}
	if _, err := s.api.CreateCategory(ctx, athena.CreateCategoryRequest{
		Name:  d.Name,
		Limit: d.Limit.InexactFloat64(),
	}); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	ev := s.event(ctx, amqp.ActionCreated, d.Name)
	ev.Limit = d.Limit.StringFixed(2)
	s.afterMutation(ctx, applog.OpCreate, ev, 0)
	return s.List(ctx)
}

// Update sends only the fields that differ from current and returns the
// fresh list. Nothing is sent when the form matches current.
func (s *CategoryService) Update(ctx context.Context, current core.Category, in CategoryInput) ([]core.Category, error) {
	d, err := in.Draft()
	if err != nil {
		return nil, err
	}

	var req athena.UpdateCategoryRequest
	if d.Name != current.Name {
		req.Name = &d.Name
	}
	if !d.Limit.Equal(current.InitialLimit) {
		limit := d.Limit.InexactFloat64()
		req.Limit = &limit
	}
	if req.Name == nil && req.Limit == nil {
		return s.List(ctx)
	}

	if _, err := s.api.UpdateCategory(ctx, current.Name, req); err != nil {
		return nil, fmt.Errorf("update category %q: %w", current.Name, err)
	}

	ev := s.event(ctx, amqp.ActionUpdated, d.Name)
	ev.Limit = d.Limit.StringFixed(2)
	if d.Name != current.Name {
		ev.PreviousName = current.Name
	}
	s.afterMutation(ctx, applog.OpUpdate, ev, len(current.Domains))
	return s.List(ctx)
}

// Delete removes a category by name and returns the fresh list.
func (s *CategoryService) Delete(ctx context.Context, name string) ([]core.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	if err := s.api.DeleteCategory(ctx, name); err != nil {
		return nil, fmt.Errorf("delete category %q: %w", name, err)
	}
	s.afterMutation(ctx, applog.OpDelete, s.event(ctx, amqp.ActionDeleted, name), 0)
	return s.List(ctx)
}

// ReplaceDomains overwrites the whitelist of a category.
func (s *CategoryService) ReplaceDomains(ctx context.Context, name string, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	if _, err := s.api.ReplaceDomains(ctx, name, domains); err != nil {
		return fmt.Errorf("replace domains of %q: %w", name, err)
	}
	ev := s.event(ctx, amqp.ActionDomainsReplaced, name)
	ev.Domains = domains
	s.afterMutation(ctx, applog.OpReplace, ev, len(domains))
	return nil
}

func (s *CategoryService) event(ctx context.Context, action amqp.Action, name string) *amqp.CategoryEvent {
	ev := amqp.NewCategoryEvent(action, name, ActorFrom(ctx))
	ev.RequestID = trace.GetRequestID(ctx)
	return ev
}

// afterMutation logs the accepted mutation and publishes its audit event.
// Publishing never fails the mutation.
func (s *CategoryService) afterMutation(ctx context.Context, op string, ev *amqp.CategoryEvent, domainCount int) {
	logger := applog.FromContext(ctx)
	applog.NewStructuredLogger(logger).LogCategoryMutation(ctx, op, ev.Category, ev.Limit, domainCount)

	if s.publisher == nil {
		logger.WarnContext(ctx, "AMQP client not available, skipping category event",
			applog.FieldCategory, ev.Category, applog.FieldOperation, op)
		return
	}
	if err := s.publisher.PublishCategoryEvent(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish category event",
			applog.FieldCategory, ev.Category, applog.FieldOperation, op, applog.FieldError, err)
	}
}

// LimitInput renders a limit for an edit form field.
func LimitInput(d decimal.Decimal) string {
	return d.StringFixed(2)
}
