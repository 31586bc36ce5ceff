// ABOUTME: Tests for HTTP session middleware
// ABOUTME: Covers token extraction from header and cookie, rejection, and store failures

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2389/salesboard/internal/store"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header    string
		wantToken string
		wantErr   string
	}{
		{"", "", "missing authorization header"},
		{"Basic abc", "", "invalid authorization header format"},
		{"Bearer ", "", "empty token"},
		{"Bearer abc123", "abc123", ""},
	}
	for _, tt := range tests {
		token, errMsg := extractBearerToken(tt.header)
		if token != tt.wantToken || errMsg != tt.wantErr {
			t.Errorf("extractBearerToken(%q) = (%q, %q), want (%q, %q)",
				tt.header, token, errMsg, tt.wantToken, tt.wantErr)
		}
	}
}

func TestStateFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if state := StateFromRequest(req); state.LoggedIn() {
		t.Error("expected empty state without credentials")
	}

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	if got := StateFromRequest(req).Token; got != "from-cookie" {
		t.Errorf("token = %q, want from-cookie", got)
	}

	req.Header.Set("Authorization", "Bearer from-header")
	if got := StateFromRequest(req).Token; got != "from-header" {
		t.Errorf("token = %q, want from-header (header wins)", got)
	}
}

func TestHTTPSessionMiddleware_ValidSession(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	state, err := svc.CreateSession(context.Background(), 11)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var got *store.Session
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/charts/categories", nil)
	req.Header.Set("Authorization", "Bearer "+state.Token)
	rec := httptest.NewRecorder()

	HTTPSessionMiddleware(svc)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got == nil || got.UserID != 11 {
		t.Errorf("expected session for user 11 in context, got %+v", got)
	}
}

func TestHTTPSessionMiddleware_NoSession(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/charts/categories", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	rec := httptest.NewRecorder()

	HTTPSessionMiddleware(svc)(handler).ServeHTTP(rec, req)

	if called {
		t.Error("handler should not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not authenticated") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHTTPSessionMiddleware_StoreDown(t *testing.T) {
	svc, ms, _ := newTestService(t, Options{})
	ms.FailWith(errors.New("down"))

	req := httptest.NewRequest(http.MethodGet, "/api/charts/categories", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := httptest.NewRecorder()

	HTTPSessionMiddleware(svc)(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}
