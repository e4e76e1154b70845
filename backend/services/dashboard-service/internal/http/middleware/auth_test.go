package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tankwatch/backend/services/dashboard-service/internal/service"
)

func protected(t *testing.T) (http.Handler, *service.TokenService) {
	t.Helper()
	tokens := service.NewTokenService("secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Email == "" {
			t.Error("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return AuthMiddleware(tokens)(next), tokens
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h, _ := protected(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareAcceptsCookieAndBearer(t *testing.T) {
	h, tokens := protected(t)
	token, _, err := tokens.GenerateToken("admin@example.com", service.AdminRole)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cookie: expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("bearer: expected 204, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsInvalidTokens(t *testing.T) {
	h, tokens := protected(t)
	viewer, _, err := tokens.GenerateToken("viewer@example.com", "viewer")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	foreign, _, err := service.NewTokenService("other", time.Hour).GenerateToken("admin@example.com", service.AdminRole)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, token := range []string{"garbage", viewer, foreign} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %d", token, rec.Code)
		}
	}
}
