// Package service implements the IP ban policy: sliding-window failure
// tracking, tiered ban escalation, and the durable ban gate.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Aleksandr505/Confa/internal/audit"
	"github.com/Aleksandr505/Confa/internal/ipban/metrics"
	"github.com/Aleksandr505/Confa/internal/ipban/models"
	"github.com/Aleksandr505/Confa/internal/platform/config"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
)

const banReason = "Too many failed login attempts"

// CounterStore is the shared TTL-capable counter store. Increment must be
// atomic from the store's perspective: concurrent increments to the same
// key cannot produce a lost update.
type CounterStore interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
}

// BanStore is the durable record of bans per IP.
type BanStore interface {
	FindActiveBan(ctx context.Context, ip string, now time.Time) (*models.BanRecord, error)
	FindLatestByIP(ctx context.Context, ip string) (*models.BanRecord, error)
	FindAllActive(ctx context.Context, now time.Time) ([]models.BanRecord, error)
	Save(ctx context.Context, rec *models.BanRecord) error
}

type Service struct {
	counters CounterStore
	bans     BanStore
	cfg      config.IPBanConfig
	rules    []models.BanRule
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Publisher
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithConfig(cfg config.IPBanConfig) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithRules overrides the escalation ladder. Rules must be in ascending
// threshold order.
func WithRules(rules []models.BanRule) Option {
	return func(s *Service) { s.rules = rules }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(counters CounterStore, bans BanStore, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}
	if bans == nil {
		return nil, errors.New("ban store is required")
	}

	svc := &Service{
		counters: counters,
		bans:     bans,
		cfg: config.IPBanConfig{
			FailureWindow:    15 * time.Minute,
			FailureThreshold: 6,
			BanCounterTTL:    24 * time.Hour,
		},
		rules:  models.DefaultRules(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EnsureAllowed rejects the attempt when the IP has an active ban. Store
// failures surface to the caller: the ban gate is fail-closed with respect
// to the login decision.
func (s *Service) EnsureAllowed(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	rec, err := s.bans.FindActiveBan(ctx, ip, s.now())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ban state")
	}
	if rec == nil {
		return nil
	}

	s.metrics.IncrementBannedRejections()
	audit.Log(ctx, s.logger, s.audit, audit.SecurityEvent{
		Action: audit.ActionBannedIPRejected,
		IP:     ip,
		Reason: rec.Reason,
	})

	if rec.Permanent {
		return dErrors.New(dErrors.CodeForbidden, "your ip is permanently blocked")
	}
	return dErrors.New(dErrors.CodeForbidden, "your ip is temporarily blocked")
}

// RegisterFailure records one failed attempt for the IP and escalates to a
// ban once the window total reaches the threshold. The whole path is
// fail-open bookkeeping: store failures are logged and counted, never
// returned, so an unreachable counter store cannot turn a bad-credentials
// outcome into an infrastructure error. Returns the window total, zero
// when it could not be recorded.
func (s *Service) RegisterFailure(ctx context.Context, ip string) int64 {
	if ip == "" {
		return 0
	}

	total, err := s.counters.Increment(ctx, models.FailureKey(ip), s.cfg.FailureWindow)
	if err != nil {
		s.metrics.IncrementBookkeepingErrors()
		s.logger.WarnContext(ctx, "failed to register login failure", "ip", ip, "error", err)
		return 0
	}
	s.metrics.IncrementFailuresRecorded()

	if total >= int64(s.cfg.FailureThreshold) {
		s.escalate(ctx, ip)
	}
	return total
}

// TierFor resolves the ban duration for an accumulated ban count: the last
// rule whose threshold is <= banCount wins, defaulting to the first tier.
func (s *Service) TierFor(banCount int64) time.Duration {
	duration := s.rules[0].Duration
	for _, rule := range s.rules {
		if banCount >= rule.Threshold {
			duration = rule.Duration
		}
	}
	return duration
}

// ActiveBans lists bans in force right now, newest first.
func (s *Service) ActiveBans(ctx context.Context) ([]models.BanRecord, error) {
	records, err := s.bans.FindAllActive(ctx, s.now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active bans")
	}
	return records, nil
}

func (s *Service) escalate(ctx context.Context, ip string) {
	banCount, err := s.counters.Increment(ctx, models.BanCounterKey(ip), s.cfg.BanCounterTTL)
	if err != nil {
		s.metrics.IncrementBookkeepingErrors()
		s.logger.WarnContext(ctx, "failed to increment ban counter", "ip", ip, "error", err)
		return
	}
	s.createBan(ctx, ip, s.TierFor(banCount))
}

// createBan performs the read-modify-write upsert: the latest row for the
// IP (or a fresh blank one) gets the new reason and expiry while a
// previously set permanent flag is preserved, then the failure counter is
// cleared so the next failed attempt starts a fresh window.
func (s *Service) createBan(ctx context.Context, ip string, duration time.Duration) {
	rec, err := s.bans.FindLatestByIP(ctx, ip)
	if err != nil {
		s.metrics.IncrementBookkeepingErrors()
		s.logger.WarnContext(ctx, "failed to load latest ban", "ip", ip, "error", err)
		return
	}
	if rec == nil {
		rec = &models.BanRecord{IP: ip}
	}

	until := s.now().Add(duration)
	rec.Reason = banReason
	rec.BannedUntil = &until

	if err := s.bans.Save(ctx, rec); err != nil {
		s.metrics.IncrementBookkeepingErrors()
		s.logger.WarnContext(ctx, "failed to persist ip ban", "ip", ip, "error", err)
		return
	}

	if err := s.counters.Delete(ctx, models.FailureKey(ip)); err != nil {
		s.metrics.IncrementBookkeepingErrors()
		s.logger.WarnContext(ctx, "failed to clear failure counter", "ip", ip, "error", err)
	}

	s.metrics.IncrementBansIssued()
	audit.Log(ctx, s.logger, s.audit, audit.SecurityEvent{
		Action: audit.ActionIPBanned,
		IP:     ip,
		Reason: banReason,
	})
}
