// Package handler exposes ban administration endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aleksandr505/Confa/internal/ipban/models"
	"github.com/Aleksandr505/Confa/pkg/platform/httputil"
	"github.com/Aleksandr505/Confa/pkg/requestcontext"
)

// Service defines the ban operations the handler depends on.
type Service interface {
	ActiveBans(ctx context.Context) ([]models.BanRecord, error)
}

// Handler exposes ban listing for operators.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ban admin handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts ban endpoints on an admin-gated router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/bans", h.HandleListBans)
}

// BanResponse is the wire form of an active ban.
type BanResponse struct {
	IP          string     `json:"ip"`
	Reason      string     `json:"reason"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	Permanent   bool       `json:"permanent"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListBansResponse wraps the active ban list.
type ListBansResponse struct {
	Bans []BanResponse `json:"bans"`
}

// HandleListBans handles GET /admin/bans requests.
func (h *Handler) HandleListBans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bans, err := h.service.ActiveBans(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list active bans",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListBansResponse{Bans: make([]BanResponse, 0, len(bans))}
	for _, ban := range bans {
		resp.Bans = append(resp.Bans, BanResponse{
			IP:          ban.IP,
			Reason:      ban.Reason,
			BannedUntil: ban.BannedUntil,
			Permanent:   ban.Permanent,
			CreatedAt:   ban.CreatedAt,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
