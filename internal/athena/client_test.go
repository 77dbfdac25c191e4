package athena

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/core"
)

func TestListCategoriesDecodesWireNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/categories", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"name":"cloud","initial_limit":1000.5,"remaining_budget":400,"domains":["aws.amazon.com","aws.amazon.com"]}]`)
	}))
	defer srv.Close()

	cats, err := New(srv.URL + "/api/").ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int64(1), cats[0].ID)
	assert.Equal(t, "cloud", cats[0].Name)
	assert.Equal(t, "1000.5", cats[0].InitialLimit.String())
	assert.Equal(t, "600.5", cats[0].Spent().String())
	assert.Len(t, cats[0].Domains, 2, "duplicates are kept")
}

func TestListHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/history", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":7,"user_task":"buy gpu","active_account_category":"cloud","transaction_amount":12.5,"decision":"BLOCK","timestamp":"2024-05-01T10:00:00.123456"}]`)
	}))
	defer srv.Close()

	hist, err := New(srv.URL + "/api").ListHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Blocked())
	assert.Equal(t, "buy gpu", hist[0].UserTask)
	assert.Equal(t, "2024-05-01T10:00:00.123456", hist[0].Timestamp)
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Category already exists"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateCategory(context.Background(), CreateCategoryRequest{Name: "cloud", Limit: 10})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Bad Request", apiErr.StatusText)
	assert.Equal(t, `{"detail":"Category already exists"}`, apiErr.Body)
	assert.Equal(t, "Category already exists", apiErr.Detail())
	assert.Equal(t, "API error: 400 Bad Request: Category already exists", apiErr.Error())
}

func TestAPIErrorDetailFallsBackToBody(t *testing.T) {
	e := &APIError{Status: 502, StatusText: "Bad Gateway", Body: "upstream down\n"}
	assert.Equal(t, "upstream down", e.Detail())
	assert.Equal(t, "", (&APIError{Status: 500}).Detail())
}

func TestCategoryPathIsEscaped(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"status":"success","category":"food & drink"}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL).ReplaceDomains(context.Background(), "food & drink/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "/v1/categories/food%20&%20drink%2Fx", gotPath)
	assert.Equal(t, []any{}, gotBody["domains"], "nil domains are sent as an empty list")
}

func TestUpdateCategoryOmitsUnsetFields(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		raw, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	limit := 250.0
	_, err := New(srv.URL).UpdateCategory(context.Background(), "cloud", UpdateCategoryRequest{Limit: &limit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":250}`, string(raw))
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).DeleteCategory(context.Background(), "cloud"))
}

func TestTokenFromContextIsSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"name":"Ada","email":"ada@athena.io"}`)
	}))
	defer srv.Close()

	p, err := New(srv.URL).GetProfile(WithToken(context.Background(), "s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
}

func TestInterceptDecodesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req InterceptRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cloud", req.ActiveAccountCategory)
		assert.Equal(t, 42.5, req.TransactionAmount)
		_, _ = io.WriteString(w, `{"decision":"BLOCK","extracted_data":{"target_domain":"evil.xyz","purchase_nature":"gpu"},
			"context_verification":{"account_category":"cloud","is_context_valid":true,"context_reasoning":"ok"},
			"whitelist_verification":{"is_domain_approved":false,"whitelist_reasoning":"nope"},
			"limit_verification":{"initial_limit":100,"remaining_budget":50},
			"security_summary":"Domain evil.xyz is unapproved"}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL).Intercept(context.Background(), InterceptRequest{
		UserTask: "buy a gpu", ActiveAccountCategory: "cloud", TransactionAmount: 42.5,
	})
	require.NoError(t, err)
	assert.Equal(t, core.Block, res.Decision)
	assert.Equal(t, "evil.xyz", res.ExtractedData.TargetDomain)
	assert.False(t, res.WhitelistVerification.IsDomainApproved)
	assert.Equal(t, "50", res.LimitVerification.RemainingBudget.String())
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL).ListHistory(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeout(t *testing.T) {
	c := New("", WithTimeout(3*time.Second))
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 3*time.Second, c.http.Timeout)

	hc := &http.Client{}
	assert.Same(t, hc, New("http://x", WithHTTPClient(hc)).http)
}
