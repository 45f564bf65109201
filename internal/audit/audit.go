// Package audit captures security-relevant events from the login pipeline.
// Events always reach the structured log; an optional publisher fans them
// out to an external sink (Kafka in production).
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action names are stable identifiers consumed by downstream alerting.
const (
	ActionLoginRateLimited = "login_rate_limited"
	ActionLoginFailed      = "login_failed"
	ActionIPBanned         = "ip_banned"
	ActionBannedIPRejected = "banned_ip_rejected"
)

// SecurityEvent is one security-relevant occurrence. Keep it
// transport-agnostic so sinks can serialize it however they need.
type SecurityEvent struct {
	Action  string    `json:"action"`
	IP      string    `json:"ip,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers security events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event SecurityEvent) error
}

// Log writes the event to the logger and forwards it to the publisher.
// Publisher failures are logged, never propagated: auditing must not
// change the outcome of the guarded operation.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, event SecurityEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	if logger != nil {
		logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"ip", event.IP,
			"subject", event.Subject,
			"reason", event.Reason,
		)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "audit publish failed", "action", event.Action, "error", err)
	}
}
