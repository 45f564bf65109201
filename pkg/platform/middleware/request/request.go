// Package request tags every request with an ID for log correlation.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Aleksandr505/Confa/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// RequestID reuses the caller-provided X-Request-ID or generates one, puts
// it in the context, and echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set(headerRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
