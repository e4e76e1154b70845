package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tankwatch/backend/services/dashboard-service/internal/http/middleware"
	"tankwatch/backend/services/dashboard-service/internal/service"
)

// Authenticator checks admin credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.Session, error)
}

// NewLoginHandler handles POST /login and sets the session cookie.
func NewLoginHandler(auth Authenticator, secureCookie bool, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		session, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			logger.Error("failed to login", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		cookie := &http.Cookie{
			Name:     middleware.CookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteNoneMode,
		}
		if !secureCookie {
			// Browsers drop SameSite=None cookies without Secure.
			cookie.SameSite = http.SameSiteLaxMode
		}
		http.SetCookie(w, cookie)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"redirect":   "/admin",
			"expires_at": session.ExpiresAt,
		})
	}
}
