package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"athena/internal/amqp"
	"athena/internal/athena"
	"athena/internal/core"
	"athena/internal/storage"
)

type fakeAPI struct {
	mu         sync.Mutex
	categories []core.Category
	history    []core.HistoryEntry

	listErr    error
	historyErr error
	mutateErr  error

	created  []athena.CreateCategoryRequest
	updated  map[string]athena.UpdateCategoryRequest
	replaced map[string][]string
	deleted  []string
	listed   int

	intercepted []athena.InterceptRequest
	decision    core.Decision
}

func newFakeAPI(cats ...core.Category) *fakeAPI {
	return &fakeAPI{
		categories: cats,
		updated:    map[string]athena.UpdateCategoryRequest{},
		replaced:   map[string][]string{},
		decision:   core.Allow,
	}
}

func (f *fakeAPI) ListCategories(ctx context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]core.Category, len(f.categories))
	for i, c := range f.categories {
		c.Domains = append([]string(nil), c.Domains...)
		out[i] = c
	}
	return out, nil
}

func (f *fakeAPI) ListHistory(ctx context.Context) ([]core.HistoryEntry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeAPI) CreateCategory(ctx context.Context, req athena.CreateCategoryRequest) (athena.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return athena.MutationResult{}, f.mutateErr
	}
	f.created = append(f.created, req)
	limit := decimal.NewFromFloat(req.Limit)
	f.categories = append(f.categories, core.Category{
		ID: int64(len(f.categories) + 1), Name: req.Name,
		InitialLimit: limit, RemainingBudget: limit, Domains: []string{},
	})
	return athena.MutationResult{Status: "success", Category: req.Name}, nil
}

func (f *fakeAPI) UpdateCategory(ctx context.Context, name string, req athena.UpdateCategoryRequest) (athena.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return athena.MutationResult{}, f.mutateErr
	}
	f.updated[name] = req
	return athena.MutationResult{Status: "success", Category: name}, nil
}

func (f *fakeAPI) ReplaceDomains(ctx context.Context, name string, domains []string) (athena.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return athena.MutationResult{}, f.mutateErr
	}
	f.replaced[name] = domains
	for i := range f.categories {
		if f.categories[i].Name == name {
			f.categories[i].Domains = domains
		}
	}
	return athena.MutationResult{Status: "success", Category: name}, nil
}

func (f *fakeAPI) DeleteCategory(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, name)
	kept := f.categories[:0]
	for _, c := range f.categories {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	f.categories = kept
	return nil
}

func (f *fakeAPI) Intercept(ctx context.Context, req athena.InterceptRequest) (athena.InterceptResponse, error) {
	if f.mutateErr != nil {
		return athena.InterceptResponse{}, f.mutateErr
	}
	f.intercepted = append(f.intercepted, req)
	return athena.InterceptResponse{Decision: f.decision, SecuritySummary: "ok"}, nil
}

type fakePublisher struct {
	events []*amqp.CategoryEvent
	err    error
}

func (p *fakePublisher) PublishCategoryEvent(ctx context.Context, ev *amqp.CategoryEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type fakeSessions struct {
	sessions map[string]storage.Session
	err      error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]storage.Session{}}
}

func (f *fakeSessions) Create(ctx context.Context, token, name, email string) (storage.Session, error) {
	if f.err != nil {
		return storage.Session{}, f.err
	}
	s := storage.Session{
		ID: "sess-" + email, APIToken: token, UserName: name, UserEmail: email,
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (storage.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return storage.Session{}, storage.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func category(name string, limit, remaining int64, domains ...string) core.Category {
	if domains == nil {
		domains = []string{}
	}
	return core.Category{
		Name:            name,
		InitialLimit:    decimal.NewFromInt(limit),
		RemainingBudget: decimal.NewFromInt(remaining),
		Domains:         domains,
	}
}
