// Package handler wires login and token endpoints to the auth service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aleksandr505/Confa/internal/auth/token"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
	"github.com/Aleksandr505/Confa/pkg/platform/httputil"
	"github.com/Aleksandr505/Confa/pkg/requestcontext"
)

const refreshCookieName = "refresh_token"

// Service defines the auth operations the handler depends on.
type Service interface {
	AttemptLogin(ctx context.Context, ip, username, plaintext string) (*token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Handler exposes login and refresh over HTTP.
type Handler struct {
	service    Service
	logger     *slog.Logger
	refreshTTL time.Duration
}

// New constructs an auth handler with its dependencies. refreshTTL bounds
// the lifetime of the refresh token cookie.
func New(service Service, logger *slog.Logger, refreshTTL time.Duration) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		refreshTTL: refreshTTL,
	}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth requests. On success the access token is
// returned in the Authorization header and the refresh token in an HttpOnly
// cookie scoped to /auth, so neither is readable by page scripts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := validateLoginRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ip := requestcontext.ClientIP(ctx)
	pair, err := h.service.AttemptLogin(ctx, ip, req.Username, req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
			"username", req.Username,
			"ip", ip,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
		"username", req.Username,
		"ip", ip,
	)

	h.setTokenPair(w, pair)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh handles POST /auth/refresh requests. The refresh token is
// read from the cookie set by HandleLogin; the new access token is returned
// in the Authorization header.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "refresh token is missing"))
		return
	}

	access, err := h.service.Refresh(ctx, cookie.Value)
	if err != nil {
		h.logger.InfoContext(ctx, "token refresh rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+access)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setTokenPair(w http.ResponseWriter, pair *token.Pair) {
	w.Header().Set("Authorization", "Bearer "+pair.AccessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func validateLoginRequest(req LoginRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if req.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	if len(req.Username) > 255 || len(req.Password) > 255 {
		return dErrors.New(dErrors.CodeBadRequest, "credentials exceed maximum length")
	}
	return nil
}
