// Package admin gates administrative routes on the ADMIN role.
package admin

import (
	"log/slog"
	"net/http"

	request "github.com/Aleksandr505/Confa/pkg/platform/middleware/request"
	"github.com/Aleksandr505/Confa/pkg/requestcontext"
)

// RoleAdmin is the role name required by RequireAdmin.
const RoleAdmin = "ADMIN"

// RequireAdmin rejects authenticated requests whose token scope lacks the
// ADMIN role. It must run after auth.RequireAuth in the chain.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.HasRole(ctx, RoleAdmin) {
				logger.WarnContext(ctx, "forbidden access - admin role required",
					"subject", requestcontext.Subject(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
