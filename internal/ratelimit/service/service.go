// Package service applies the fixed-window rate limit policies for signup
// intake: one keyed by hashed client identity, one keyed by normalized email.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"waitlist/internal/ratelimit/metrics"
	"waitlist/internal/ratelimit/models"
	"waitlist/internal/ratelimit/store"
	dErrors "waitlist/pkg/domain-errors"
	"waitlist/pkg/platform/privacy"
)

// Policy is one fixed-window limit: at most MaxAttempts per Window per key.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

type Service struct {
	counters store.CounterStore
	identity Policy
	email    Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(counters store.CounterStore, identity, email Policy, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}
	if identity.MaxAttempts < 1 || email.MaxAttempts < 1 {
		return nil, errors.New("rate limit policies require at least one attempt per window")
	}

	svc := &Service{
		counters: counters,
		identity: identity,
		email:    email,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckIdentity records and checks an attempt under the hashed client
// identity. The hash is already non-identifying, so it is safe to log.
func (s *Service) CheckIdentity(ctx context.Context, identityHash string) (*models.Result, error) {
	return s.check(ctx, models.ScopeIdentity, identityHash, s.identity, identityHash)
}

// CheckEmail records and checks an attempt under the normalized email. Logs
// carry a pseudonymized token in place of the address.
func (s *Service) CheckEmail(ctx context.Context, email string) (*models.Result, error) {
	return s.check(ctx, models.ScopeEmail, email, s.email, privacy.HashIdentity(email))
}

func (s *Service) check(ctx context.Context, scope models.Scope, identifier string, policy Policy, logIdentifier string) (*models.Result, error) {
	key := models.Key(scope, identifier)
	result, err := s.counters.Allow(ctx, key, policy.MaxAttempts, policy.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if !result.Allowed {
		if s.metrics != nil {
			s.metrics.IncrementDenials(string(scope))
		}
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"scope", scope,
			"identifier", logIdentifier,
			"limit", policy.MaxAttempts,
			"window_seconds", int(policy.Window.Seconds()),
		)
	}

	return result, nil
}
