package services

import (
	"context"

	"athena/internal/amqp"
	"athena/internal/athena"
	"athena/internal/core"
)

// Ports onto the Athena API. *athena.Client satisfies all of them.
type (
	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	HistoryLister interface {
		ListHistory(ctx context.Context) ([]core.HistoryEntry, error)
	}

	CategoryAPI interface {
		CategoryLister
		CreateCategory(ctx context.Context, req athena.CreateCategoryRequest) (athena.MutationResult, error)
		UpdateCategory(ctx context.Context, name string, req athena.UpdateCategoryRequest) (athena.MutationResult, error)
		ReplaceDomains(ctx context.Context, name string, domains []string) (athena.MutationResult, error)
		DeleteCategory(ctx context.Context, name string) error
	}

	InterceptAPI interface {
		Intercept(ctx context.Context, req athena.InterceptRequest) (athena.InterceptResponse, error)
	}

	AuthAPI interface {
		Login(ctx context.Context, creds athena.Credentials) (athena.AuthResponse, error)
		Signup(ctx context.Context, req athena.SignupRequest) (athena.AuthResponse, error)
	}

	SettingsAPI interface {
		GetProfile(ctx context.Context) (athena.Profile, error)
		UpdateProfile(ctx context.Context, p athena.Profile) (athena.Profile, error)
		ChangePassword(ctx context.Context, req athena.PasswordChange) error
		RegenerateAPIKey(ctx context.Context) (athena.APIKey, error)
	}

	// EventPublisher publishes category audit events; *amqp.Client implements it.
	EventPublisher interface {
		PublishCategoryEvent(ctx context.Context, ev *amqp.CategoryEvent) error
	}
)

var (
	_ CategoryAPI    = (*athena.Client)(nil)
	_ HistoryLister  = (*athena.Client)(nil)
	_ InterceptAPI   = (*athena.Client)(nil)
	_ AuthAPI        = (*athena.Client)(nil)
	_ SettingsAPI    = (*athena.Client)(nil)
	_ EventPublisher = (*amqp.Client)(nil)
)

type actorKey struct{}

// WithActor records who is performing mutations in this request.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or "anonymous".
func ActorFrom(ctx context.Context) string {
	if s, ok := ctx.Value(actorKey{}).(string); ok && s != "" {
		return s
	}
	return "anonymous"
}
