package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerDomainsChanged("shopping").
		TriggerModalClose().
		TriggerSuccessNotification("Category created").
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"categories:changed", "domains:changed", "modal:close", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("HX-Trigger missing %q", name)
		}
	}
	if !strings.Contains(string(triggers["domains:changed"]), `"shopping"`) {
		t.Errorf("domains:changed payload = %s", triggers["domains:changed"])
	}
	if !strings.Contains(string(triggers["show-notification"]), `"type":"success"`) {
		t.Errorf("notification payload = %s", triggers["show-notification"])
	}
}

func TestHTMXResponseBuilder_Redirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)

	if w.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		build  func(string) *HTMXResponseBuilder
		status int
	}{
		{"bad request", BadRequestError, http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError, http.StatusUnprocessableEntity},
		{"bad gateway", BadGatewayError, http.StatusBadGateway},
		{"internal", InternalServerError, http.StatusInternalServerError},
		{"not found", NotFoundError, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.build("<b>bad</b>").Write(w)

			if w.Code != tt.status {
				t.Errorf("Status = %d, want %d", w.Code, tt.status)
			}
			if !strings.Contains(w.Body.String(), "&lt;b&gt;bad&lt;/b&gt;") {
				t.Errorf("message not escaped: %s", w.Body.String())
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
				t.Errorf("missing error notification: %s", w.Header().Get("HX-Trigger"))
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
