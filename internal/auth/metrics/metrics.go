package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for login attempts.
const (
	OutcomeSuccess     = "success"
	OutcomeForbidden   = "forbidden"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	TokenRefreshes prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "confa_auth_login_attempts_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_auth_token_refreshes_total",
			Help: "Total successful access token refreshes",
		}),
	}
}

func (m *Metrics) IncrementLoginAttempts(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementTokenRefreshes() {
	if m != nil {
		m.TokenRefreshes.Inc()
	}
}
