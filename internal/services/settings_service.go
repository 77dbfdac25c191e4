package services

import (
	"context"
	"fmt"
	"strings"

	"athena/internal/athena"
	"athena/internal/core"
)

// PasswordInput is the raw change-password form.
type PasswordInput struct {
	Current string
	New     string
}

type SettingsService struct {
	api SettingsAPI
}

func NewSettingsService(api SettingsAPI) *SettingsService {
	return &SettingsService{api: api}
}

func (s *SettingsService) Profile(ctx context.Context) (athena.Profile, error) {
	p, err := s.api.GetProfile(ctx)
	if err != nil {
		return athena.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile validates name and email and saves the profile.
func (s *SettingsService) UpdateProfile(ctx context.Context, p athena.Profile) (athena.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" {
		return athena.Profile{}, &ValidationError{Field: "name", Err: core.ErrEmptyFullName}
	}
	if err := core.ValidateEmail(p.Email); err != nil {
		return athena.Profile{}, &ValidationError{Field: "email", Err: err}
	}
	p.APIKey = ""
	saved, err := s.api.UpdateProfile(ctx, p)
	if err != nil {
		return athena.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return saved, nil
}

func (s *SettingsService) ChangePassword(ctx context.Context, in PasswordInput) error {
	if in.Current == "" {
		return &ValidationError{Field: "current_password", Err: core.ErrEmptyPassword}
	}
	if err := core.ValidatePassword(in.New); err != nil {
		return &ValidationError{Field: "new_password", Err: err}
	}
	if err := s.api.ChangePassword(ctx, athena.PasswordChange{CurrentPassword: in.Current, NewPassword: in.New}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// RegenerateAPIKey issues a new key and returns it in full. It is shown
// once; later renders only see MaskAPIKey output.
func (s *SettingsService) RegenerateAPIKey(ctx context.Context) (string, error) {
	k, err := s.api.RegenerateAPIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("regenerate api key: %w", err)
	}
	return k.APIKey, nil
}

// MaskAPIKey keeps the prefix up to the last underscore plus the final four
// characters, e.g. "sk_live_••••••••3f9a".
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("•", len(key))
	}
	prefix := ""
	if i := strings.LastIndex(key[:len(key)-4], "_"); i >= 0 {
		prefix = key[:i+1]
	}
	return prefix + strings.Repeat("•", 8) + key[len(key)-4:]
}
