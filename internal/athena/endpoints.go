package athena

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"athena/internal/core"
)

type (
	// CreateCategoryRequest is the body of POST /v1/categories.
	CreateCategoryRequest struct {
		Name    string   `json:"name"`
		Limit   float64  `json:"limit"`
		Domains []string `json:"domains"`
	}

	// UpdateCategoryRequest is the body of PATCH /v1/categories/{name}.
	// Nil fields are left unchanged.
	UpdateCategoryRequest struct {
		Name  *string  `json:"name,omitempty"`
		Limit *float64 `json:"limit,omitempty"`
	}

	replaceDomainsRequest struct {
		Domains []string `json:"domains"`
	}

	// MutationResult is the acknowledgement the API returns for category writes.
	MutationResult struct {
		Status   string  `json:"status"`
		Category string  `json:"category"`
		Limit    float64 `json:"limit,omitempty"`
		Message  string  `json:"message"`
	}

	InterceptRequest struct {
		UserTask              string  `json:"user_task"`
		ActiveAccountCategory string  `json:"active_account_category"`
		TransactionAmount     float64 `json:"transaction_amount"`
	}

	// InterceptResponse is the upstream verdict with its verification trail.
	InterceptResponse struct {
		Decision      core.Decision `json:"decision"`
		ExtractedData struct {
			TargetDomain   string `json:"target_domain"`
			PurchaseNature string `json:"purchase_nature"`
		} `json:"extracted_data"`
		ContextVerification struct {
			AccountCategory  string `json:"account_category"`
			IsContextValid   bool   `json:"is_context_valid"`
			ContextReasoning string `json:"context_reasoning"`
		} `json:"context_verification"`
		WhitelistVerification struct {
			IsDomainApproved   bool   `json:"is_domain_approved"`
			WhitelistReasoning string `json:"whitelist_reasoning"`
		} `json:"whitelist_verification"`
		LimitVerification struct {
			InitialLimit    decimal.Decimal `json:"initial_limit"`
			RemainingBudget decimal.Decimal `json:"remaining_budget"`
		} `json:"limit_verification"`
		SecuritySummary string `json:"security_summary"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SignupRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// AuthResponse carries the session token issued by the API.
	AuthResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	// Profile holds account details and notification preferences.
	Profile struct {
		Name               string `json:"name"`
		Email              string `json:"email"`
		Timezone           string `json:"timezone"`
		TwoFactorEnabled   bool   `json:"two_factor_enabled"`
		SessionTimeout     string `json:"session_timeout"`
		EmailNotifications bool   `json:"email_notifications"`
		ThreatAlerts       bool   `json:"threat_alerts"`
		WeeklyReport       bool   `json:"weekly_report"`
		AgentStatusAlerts  bool   `json:"agent_status_alerts"`
		APIKey             string `json:"api_key,omitempty"`
	}

	PasswordChange struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	APIKey struct {
		APIKey string `json:"api_key"`
	}
)

func categoryPath(name string) string {
	return "/v1/categories/" + url.PathEscape(name)
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.Do(ctx, http.MethodGet, "/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (MutationResult, error) {
	if req.Domains == nil {
		req.Domains = []string{}
	}
	var out MutationResult
	err := c.Do(ctx, http.MethodPost, "/v1/categories", req, &out)
	return out, err
}

// ReplaceDomains overwrites the whitelist of the named category.
func (c *Client) ReplaceDomains(ctx context.Context, name string, domains []string) (MutationResult, error) {
	if domains == nil {
		domains = []string{}
	}
	var out MutationResult
	err := c.Do(ctx, http.MethodPut, categoryPath(name), replaceDomainsRequest{Domains: domains}, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, name string, req UpdateCategoryRequest) (MutationResult, error) {
	var out MutationResult
	err := c.Do(ctx, http.MethodPatch, categoryPath(name), req, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, name string) error {
	return c.Do(ctx, http.MethodDelete, categoryPath(name), nil, nil)
}

func (c *Client) ListHistory(ctx context.Context) ([]core.HistoryEntry, error) {
	var out []core.HistoryEntry
	if err := c.Do(ctx, http.MethodGet, "/v1/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Intercept submits a transaction for an upstream decision.
func (c *Client) Intercept(ctx context.Context, req InterceptRequest) (InterceptResponse, error) {
	var out InterceptResponse
	err := c.Do(ctx, http.MethodPost, "/v1/intercept", req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, http.MethodPost, "/v1/auth/login", creds, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, http.MethodPost, "/v1/auth/signup", req, &out)
	return out, err
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.Do(ctx, http.MethodGet, "/v1/settings/profile", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	var out Profile
	err := c.Do(ctx, http.MethodPut, "/v1/settings/profile", p, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, req PasswordChange) error {
	return c.Do(ctx, http.MethodPut, "/v1/settings/password", req, nil)
}

func (c *Client) RegenerateAPIKey(ctx context.Context) (APIKey, error) {
	var out APIKey
	err := c.Do(ctx, http.MethodPost, "/v1/settings/api-key/regenerate", nil, &out)
	return out, err
}
