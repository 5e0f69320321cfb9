// Package service orchestrates signup intake: validation, rate limiting,
// persistence, and the fire-and-forget side effects that follow a persisted
// signup.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rlmodels "waitlist/internal/ratelimit/models"
	rlservice "waitlist/internal/ratelimit/service"
	"waitlist/internal/signup/events"
	"waitlist/internal/signup/metrics"
	"waitlist/internal/signup/models"
	"waitlist/internal/signup/notify"
	"waitlist/internal/signup/store"
	dErrors "waitlist/pkg/domain-errors"
	"waitlist/pkg/platform/middleware/metadata"
	"waitlist/pkg/platform/privacy"
)

// RateLimited wraps a rate-limit denial with the counter state so the HTTP
// layer can emit Retry-After and X-RateLimit headers.
type RateLimited struct {
	Scope  rlmodels.Scope
	Result *rlmodels.Result
	err    *dErrors.Error
}

func (e *RateLimited) Error() string { return e.err.Error() }
func (e *RateLimited) Unwrap() error { return e.err }

type Service struct {
	store   store.Store
	limiter *rlservice.Service
	worker  *notify.Worker
	events  *events.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithWorker(w *notify.Worker) Option {
	return func(s *Service) {
		s.worker = w
	}
}

func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

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

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(st store.Store, limiter *rlservice.Service, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("signup store is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	svc := &Service{
		store:   st,
		limiter: limiter,
		logger:  slog.Default(),
		tracer:  otel.Tracer("waitlist/signup"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Intake runs one submission through the pipeline and returns the persisted
// record. Both limiters record the attempt before any validation outcome is
// reported: the email limiter is consulted whenever the submitted address
// itself normalizes, even when other fields failed validation, and a denial
// takes precedence over reporting those field failures.
func (s *Service) Intake(ctx context.Context, sub models.Submission) (*models.SignupRecord, error) {
	ctx, span := s.tracer.Start(ctx, "signup.intake")
	defer span.End()

	identityHash := privacy.HashIdentity(metadata.GetClientIP(ctx))

	request, validateErr := sub.Validate()

	identityResult, err := s.limiter.CheckIdentity(ctx, identityHash)
	if err != nil {
		return nil, s.reject(ctx, span, "limiter_unavailable", err)
	}
	if !identityResult.Allowed {
		denial := &RateLimited{
			Scope:  rlmodels.ScopeIdentity,
			Result: identityResult,
			err:    dErrors.New(dErrors.CodeRateLimited, "too many signup attempts, please try again later"),
		}
		return nil, s.reject(ctx, span, "rate_limited", denial)
	}

	if email, ok := models.NormalizeEmail(sub.Email); ok {
		emailResult, err := s.limiter.CheckEmail(ctx, email)
		if err != nil {
			return nil, s.reject(ctx, span, "limiter_unavailable", err)
		}
		if !emailResult.Allowed {
			// An address already on file gets the idempotent conflict
			// answer rather than a throttle; resubmitting it can never
			// succeed, so 429-and-retry would mislead.
			if exists, exErr := s.store.ExistsByEmail(ctx, email); exErr == nil && exists {
				return nil, s.reject(ctx, span, "duplicate_email",
					dErrors.New(dErrors.CodeDuplicateEmail, "This email is already on the waitlist"))
			}
			denial := &RateLimited{
				Scope:  rlmodels.ScopeEmail,
				Result: emailResult,
				err:    dErrors.New(dErrors.CodeRateLimited, "too many attempts for this email"),
			}
			return nil, s.reject(ctx, span, "rate_limited", denial)
		}
	}

	if validateErr != nil {
		return nil, s.reject(ctx, span, "validation", validateErr)
	}

	request.IdentityHash = identityHash
	request.UserAgent = metadata.GetUserAgent(ctx)
	request.Referer = metadata.GetReferer(ctx)

	record := s.buildRecord(request)
	if err := s.store.Insert(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, s.reject(ctx, span, "duplicate_email",
				dErrors.Wrap(err, dErrors.CodeDuplicateEmail, "This email is already on the waitlist"))
		}
		return nil, s.reject(ctx, span, "storage_unavailable",
			dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "signup could not be saved"))
	}

	if s.metrics != nil {
		s.metrics.IncrementSignupsCreated()
	}
	s.logger.InfoContext(ctx, "signup created",
		"signup_id", record.ID,
		"email", privacy.HashIdentity(record.Email),
		"source", record.Source,
		"identity", identityHash,
		"client_ip", privacy.AnonymizeIP(metadata.GetClientIP(ctx)),
	)

	// Side effects after persistence only. Neither can fail the signup.
	if s.worker != nil {
		s.worker.Enqueue(record.Email)
	}
	s.events.SignupAccepted(ctx, record)

	span.SetAttributes(attribute.String("signup.outcome", "created"))
	return record, nil
}

// ListSignups returns every record oldest first, plus the total count, for
// the admin read path.
func (s *Service) ListSignups(ctx context.Context) ([]*models.SignupRecord, int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "signups could not be read")
	}
	return records, len(records), nil
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) buildRecord(request *models.SignupRequest) *models.SignupRecord {
	return &models.SignupRecord{
		ID:            uuid.NewString(),
		Email:         request.Email,
		Zip:           request.Zip,
		Role:          request.Role,
		UseCase:       request.UseCase,
		Source:        request.Source,
		CreatedAt:     s.now().UTC(),
		UserAgent:     request.UserAgent,
		DeviceSummary: deviceSummary(request.UserAgent),
		Referer:       request.Referer,
		IdentityHash:  request.IdentityHash,
	}
}

func (s *Service) reject(ctx context.Context, span trace.Span, reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementSignupsRejected(reason)
	}
	span.SetAttributes(attribute.String("signup.outcome", reason))
	s.logger.InfoContext(ctx, "signup rejected", "reason", reason, "error", err.Error())
	return err
}

// deviceSummary condenses a raw User-Agent into a short browser/OS label.
func deviceSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	if i := strings.Index(version, "."); i > 0 {
		version = version[:i]
	}

	summary := name
	if version != "" {
		summary = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OSInfo().Name; os != "" {
		summary = fmt.Sprintf("%s on %s", summary, os)
	}
	return summary
}
