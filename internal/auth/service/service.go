// Package service orchestrates the login pipeline: ban gate, rate limit,
// credential check, token issuance, and failure bookkeeping.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleksandr505/Confa/internal/audit"
	"github.com/Aleksandr505/Confa/internal/auth/metrics"
	"github.com/Aleksandr505/Confa/internal/auth/models"
	"github.com/Aleksandr505/Confa/internal/auth/token"
	usermodels "github.com/Aleksandr505/Confa/internal/user/models"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
)

// CredentialVerifier resolves a username/password pair to a principal.
// Rejections are CodeUnauthorized with a generic message.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*models.Principal, error)
}

// BanGuard is the slice of the ipban service this pipeline needs.
type BanGuard interface {
	EnsureAllowed(ctx context.Context, ip string) error
	RegisterFailure(ctx context.Context, ip string) int64
}

// RateLimiter admits one attempt per identity key.
type RateLimiter interface {
	TryConsume(key string) bool
}

// UserStore resolves token subjects back to accounts on refresh.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*usermodels.User, error)
}

type Service struct {
	codec    *token.Codec
	limiter  RateLimiter
	bans     BanGuard
	verifier CredentialVerifier
	users    UserStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Publisher
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(
	codec *token.Codec,
	limiter RateLimiter,
	bans BanGuard,
	verifier CredentialVerifier,
	users UserStore,
	opts ...Option,
) (*Service, error) {
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if bans == nil {
		return nil, errors.New("ban guard is required")
	}
	if verifier == nil {
		return nil, errors.New("credential verifier is required")
	}
	if users == nil {
		return nil, errors.New("user store is required")
	}

	svc := &Service{
		codec:    codec,
		limiter:  limiter,
		bans:     bans,
		verifier: verifier,
		users:    users,
		logger:   slog.Default(),
		tracer:   otel.Tracer("confa/auth"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AttemptLogin runs one login attempt through the pipeline. The ban and
// rate-limit gates are fail-closed; failure bookkeeping after a bad
// credential check is fail-open and can never surface as anything other
// than the generic authentication failure.
func (s *Service) AttemptLogin(ctx context.Context, ip, username, plaintext string) (*token.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.attempt_login")
	defer span.End()

	if err := s.bans.EnsureAllowed(ctx, ip); err != nil {
		s.metrics.IncrementLoginAttempts(metrics.OutcomeForbidden)
		span.SetAttributes(attribute.String("auth.outcome", metrics.OutcomeForbidden))
		return nil, err
	}

	if !s.limiter.TryConsume(ip + ":" + username) {
		s.metrics.IncrementLoginAttempts(metrics.OutcomeRateLimited)
		span.SetAttributes(attribute.String("auth.outcome", metrics.OutcomeRateLimited))
		audit.Log(ctx, s.logger, s.audit, audit.SecurityEvent{
			Action: audit.ActionLoginRateLimited,
			IP:     ip,
		})
		return nil, dErrors.New(dErrors.CodeTooManyAttempts, "too many login attempts, please try again later")
	}

	principal, err := s.verifier.Verify(ctx, username, plaintext)
	if err != nil {
		s.metrics.IncrementLoginAttempts(metrics.OutcomeFailed)
		span.SetAttributes(attribute.String("auth.outcome", metrics.OutcomeFailed))
		s.bans.RegisterFailure(ctx, ip)
		audit.Log(ctx, s.logger, s.audit, audit.SecurityEvent{
			Action: audit.ActionLoginFailed,
			IP:     ip,
		})
		// Generic regardless of the underlying cause: the caller learns
		// nothing about whether the username exists.
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication failed")
	}

	pair, err := s.codec.MintPair(principal.ID, principal.Roles)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token pair")
	}

	s.metrics.IncrementLoginAttempts(metrics.OutcomeSuccess)
	span.SetAttributes(attribute.String("auth.outcome", metrics.OutcomeSuccess))
	return pair, nil
}

// Refresh mints a fresh access token from a refresh token. The subject
// must still resolve to an existing, unlocked account; the refresh token
// itself is not rotated or invalidated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.refresh")
	defer span.End()

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return "", err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve token subject")
	}
	if user == nil || user.Locked {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	// Same subject and scope as the refresh token; fresh id and expiry.
	access, err := s.codec.MintAccessToken(claims.Subject, claims.Scope)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint access token")
	}

	s.metrics.IncrementTokenRefreshes()
	return access, nil
}

// Validate decodes an access token for request-authenticating middleware.
func (s *Service) Validate(tokenString string) (*token.Claims, error) {
	return s.codec.Decode(tokenString)
}
