package services

import (
	"context"
	"fmt"
	"strings"

	"athena/internal/athena"
	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/storage"
)

// SessionStore persists console sessions; *storage.SessionStore implements it.
type SessionStore interface {
	Create(ctx context.Context, apiToken, name, email string) (storage.Session, error)
	Get(ctx context.Context, id string) (storage.Session, error)
	Delete(ctx context.Context, id string) error
}

var _ SessionStore = (*storage.SessionStore)(nil)

// LoginInput is the raw sign-in form.
type LoginInput struct {
	Email    string
	Password string
}

// SignupInput is the raw sign-up form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

func (in LoginInput) validate() error {
	if err := core.ValidateEmail(in.Email); err != nil {
		return &ValidationError{Field: "email", Err: err}
	}
	if err := core.ValidatePassword(in.Password); err != nil {
		return &ValidationError{Field: "password", Err: err}
	}
	return nil
}

func (in SignupInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Err: core.ErrEmptyFullName}
	}
	return LoginInput{Email: in.Email, Password: in.Password}.validate()
}

// AuthService exchanges credentials with the API and keeps the returned
// token in a local session.
type AuthService struct {
	api      AuthAPI
	sessions SessionStore
}

func NewAuthService(api AuthAPI, sessions SessionStore) *AuthService {
	return &AuthService{api: api, sessions: sessions}
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (storage.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.validate(); err != nil {
		return storage.Session{}, err
	}
	res, err := s.api.Login(ctx, athena.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return storage.Session{}, fmt.Errorf("login: %w", err)
	}
	return s.start(ctx, res, in.Email)
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (storage.Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return storage.Session{}, err
	}
	res, err := s.api.Signup(ctx, athena.SignupRequest{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		return storage.Session{}, fmt.Errorf("signup: %w", err)
	}
	if res.User.Name == "" {
		res.User.Name = in.Name
	}
	return s.start(ctx, res, in.Email)
}

func (s *AuthService) start(ctx context.Context, res athena.AuthResponse, email string) (storage.Session, error) {
	if res.User.Email != "" {
		email = res.User.Email
	}
	sess, err := s.sessions.Create(ctx, res.Token, res.User.Name, email)
	if err != nil {
		return storage.Session{}, fmt.Errorf("create session: %w", err)
	}
	applog.FromContext(ctx).InfoContext(ctx, "Session started",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldUserEmail, email)
	return sess, nil
}

// Session resolves a session id from the cookie.
func (s *AuthService) Session(ctx context.Context, id string) (storage.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Logout removes the session. Unknown ids are not an error.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}
