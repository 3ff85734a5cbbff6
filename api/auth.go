package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/warp/restaurant-pos/auth"
)

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an admin account and returns a one-hour token.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	admin, token, err := h.Auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "Registration failed", err)
		return
	case err != nil:
		h.fail(w, r, "Registration failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{Token: token, AdminID: admin.ID})
}

// Login exchanges credentials for a seven-day token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	admin, token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "USERNAME OR PASSWORD ERROR", nil)
		return
	}
	if err != nil {
		h.fail(w, r, "Login failed", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Admin: toAdminDTO(*admin)})
}

// Verify echoes the admin behind the bearer token.
// GET /api/auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED TOKEN", nil)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Admin: toAdminDTO(*admin)})
}

// Logout is stateless; the client drops its token.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type adminKey struct{}

// AdminFromContext returns the admin attached by RequireAdmin.
func AdminFromContext(ctx context.Context) (*auth.Admin, bool) {
	a, ok := ctx.Value(adminKey{}).(*auth.Admin)
	return a, ok
}

// RequireAdmin rejects requests without a valid "Bearer <token>" header.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED TOKEN", nil)
			return
		}

		admin, err := h.Auth.Verify(r.Context(), strings.TrimSpace(token))
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrAdminNotFound):
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED TOKEN", err)
			return
		case err != nil:
			h.fail(w, r, "Token verification failed", err)
			return
		}

		ctx := context.WithValue(r.Context(), adminKey{}, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
