package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FailuresRecorded  prometheus.Counter
	BansIssued        prometheus.Counter
	BannedRejections  prometheus.Counter
	BookkeepingErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		FailuresRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ipban_failures_recorded_total",
			Help: "Total failed login attempts recorded in the sliding window",
		}),
		BansIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ipban_bans_issued_total",
			Help: "Total IP bans issued by the escalation policy",
		}),
		BannedRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ipban_banned_rejections_total",
			Help: "Total login attempts rejected because the IP was banned",
		}),
		BookkeepingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confa_ipban_bookkeeping_errors_total",
			Help: "Total counter or ban store failures swallowed by the fail-open bookkeeping path",
		}),
	}
}

func (m *Metrics) IncrementFailuresRecorded() {
	if m != nil {
		m.FailuresRecorded.Inc()
	}
}

func (m *Metrics) IncrementBansIssued() {
	if m != nil {
		m.BansIssued.Inc()
	}
}

func (m *Metrics) IncrementBannedRejections() {
	if m != nil {
		m.BannedRejections.Inc()
	}
}

func (m *Metrics) IncrementBookkeepingErrors() {
	if m != nil {
		m.BookkeepingErrors.Inc()
	}
}
