package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/athena"
	"athena/internal/core"
)

type fakeSettingsAPI struct {
	profile  athena.Profile
	saved    *athena.Profile
	password *athena.PasswordChange
	key      string
}

func (f *fakeSettingsAPI) GetProfile(ctx context.Context) (athena.Profile, error) {
	return f.profile, nil
}

func (f *fakeSettingsAPI) UpdateProfile(ctx context.Context, p athena.Profile) (athena.Profile, error) {
	f.saved = &p
	return p, nil
}

func (f *fakeSettingsAPI) ChangePassword(ctx context.Context, req athena.PasswordChange) error {
	f.password = &req
	return nil
}

func (f *fakeSettingsAPI) RegenerateAPIKey(ctx context.Context) (athena.APIKey, error) {
	return athena.APIKey{APIKey: f.key}, nil
}

func TestSettingsService_UpdateProfile(t *testing.T) {
	api := &fakeSettingsAPI{}
	svc := NewSettingsService(api)

	_, err := svc.UpdateProfile(context.Background(), athena.Profile{Name: " ", Email: "a@b.co"})
	assert.ErrorIs(t, err, core.ErrEmptyFullName)

	_, err = svc.UpdateProfile(context.Background(), athena.Profile{Name: "Ada", Email: "bad"})
	assert.ErrorIs(t, err, core.ErrInvalidEmail)
	assert.Nil(t, api.saved)

	p, err := svc.UpdateProfile(context.Background(), athena.Profile{Name: " Ada ", Email: "ada@example.com", APIKey: "secret", ThreatAlerts: true})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.True(t, p.ThreatAlerts)
	require.NotNil(t, api.saved)
	assert.Empty(t, api.saved.APIKey)
}

func TestSettingsService_ChangePassword(t *testing.T) {
	api := &fakeSettingsAPI{}
	svc := NewSettingsService(api)

	err := svc.ChangePassword(context.Background(), PasswordInput{New: "password1"})
	assert.ErrorIs(t, err, core.ErrEmptyPassword)

	err = svc.ChangePassword(context.Background(), PasswordInput{Current: "old", New: "short"})
	assert.ErrorIs(t, err, core.ErrShortPassword)
	assert.Nil(t, api.password)

	require.NoError(t, svc.ChangePassword(context.Background(), PasswordInput{Current: "old", New: "password1"}))
	require.NotNil(t, api.password)
	assert.Equal(t, "password1", api.password.NewPassword)
}

func TestSettingsService_RegenerateAPIKey(t *testing.T) {
	svc := NewSettingsService(&fakeSettingsAPI{key: "sk_live_abcdefgh3f9a"})

	key, err := svc.RegenerateAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk_live_abcdefgh3f9a", key)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "sk_live_••••••••3f9a", MaskAPIKey("sk_live_abcdefgh3f9a"))
	assert.Equal(t, "••••••••wxyz", MaskAPIKey("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "•••", MaskAPIKey("abc"))
	assert.Empty(t, MaskAPIKey(""))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "email", Err: core.ErrInvalidEmail}
	assert.Equal(t, "Please enter a valid email address", err.Message())
	assert.Equal(t, "email: please enter a valid email address", err.Error())
}
