// Package httpapi assembles the HTTP surface: route mounting, middleware
// ordering, and operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "github.com/Aleksandr505/Confa/internal/auth/handler"
	banhandler "github.com/Aleksandr505/Confa/internal/ipban/handler"
	"github.com/Aleksandr505/Confa/pkg/platform/middleware/admin"
	"github.com/Aleksandr505/Confa/pkg/platform/middleware/auth"
	"github.com/Aleksandr505/Confa/pkg/platform/middleware/metadata"
	request "github.com/Aleksandr505/Confa/pkg/platform/middleware/request"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Auth      *authhandler.Handler
	Bans      *banhandler.Handler
	Validator auth.TokenValidator
	Logger    *slog.Logger

	// Health lists backing dependencies by name; nil checkers are skipped.
	Health map[string]HealthChecker
}

// NewRouter wires all public endpoints. Client metadata and request IDs are
// attached before routing so every handler and log line sees them.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)

	deps.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		r.Use(admin.RequireAdmin(deps.Logger))
		deps.Bans.RegisterAdmin(r)
	})

	r.Get("/healthz", handleHealth(deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, checker := range deps.Health {
			if checker == nil {
				continue
			}
			if err := checker.Health(ctx); err != nil {
				deps.Logger.ErrorContext(ctx, "health check failed",
					"dependency", name,
					"error", err,
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy: " + name))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
