package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	rlmodels "waitlist/internal/ratelimit/models"
	rlservice "waitlist/internal/ratelimit/service"
	rlstore "waitlist/internal/ratelimit/store"
	"waitlist/internal/signup/models"
	"waitlist/internal/signup/notify"
	"waitlist/internal/signup/store"
	dErrors "waitlist/pkg/domain-errors"
	"waitlist/pkg/platform/middleware/metadata"
)

type IntakeSuite struct {
	suite.Suite

	store    *store.MemoryStore
	counters *rlstore.Memory
	service  *Service
}

func TestIntakeSuite(t *testing.T) {
	suite.Run(t, new(IntakeSuite))
}

func (s *IntakeSuite) SetupTest() {
	// The email policy is loosened so duplicate-email behavior is exercised
	// without the throttle getting there first; the email-limit tests
	// reconfigure to the production single-attempt window.
	s.configure(
		rlservice.Policy{MaxAttempts: 3, Window: time.Minute},
		rlservice.Policy{MaxAttempts: 10, Window: 24 * time.Hour},
	)
}

func (s *IntakeSuite) configure(identity, email rlservice.Policy) {
	if s.counters != nil {
		s.counters.Close()
	}

	s.store = store.NewMemory()
	s.counters = rlstore.NewMemory(time.Minute)

	limiter, err := rlservice.New(s.counters, identity, email)
	s.Require().NoError(err)

	s.service, err = New(s.store, limiter, WithLogger(slog.Default()))
	s.Require().NoError(err)
}

func (s *IntakeSuite) TearDownTest() {
	s.counters.Close()
}

func (s *IntakeSuite) ctx(clientIP string) context.Context {
	return metadata.WithClientMetadata(context.Background(), clientIP,
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"https://example.org/early-access")
}

func submission(email string) models.Submission {
	return models.Submission{
		Email:   email,
		Zip:     "30309",
		Role:    "voter",
		UseCase: "tracking local ballot measures",
		Consent: true,
	}
}

func (s *IntakeSuite) TestValidSubmissionPersisted() {
	record, err := s.service.Intake(s.ctx("203.0.113.7"), submission("Alice@Example.COM "))
	s.Require().NoError(err)

	s.NotEmpty(record.ID)
	s.Equal("alice@example.com", record.Email)
	s.Equal(models.RoleVoter, record.Role)
	s.Equal(models.DefaultSource, record.Source)
	s.False(record.CreatedAt.IsZero())
	s.Equal("Chrome 120 on Linux", record.DeviceSummary)
	s.NotEmpty(record.IdentityHash)

	count, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *IntakeSuite) TestValidationFailureLeavesStoreUntouched() {
	_, err := s.service.Intake(s.ctx("203.0.113.8"), models.Submission{
		Email:   "not-an-email",
		Zip:     "bad zip",
		Consent: false,
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
	s.Len(dErrors.FieldsOf(err), 3)

	count, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *IntakeSuite) TestDuplicateEmailConflicts() {
	_, err := s.service.Intake(s.ctx("203.0.113.9"), submission("bob@example.com"))
	s.Require().NoError(err)

	// Different spelling of the same address, from another client.
	_, err = s.service.Intake(s.ctx("203.0.113.10"), submission("  BOB@example.com"))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeDuplicateEmail))

	count, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *IntakeSuite) TestIdentityLimitDeniesFourthAttempt() {
	ctx := s.ctx("198.51.100.4")

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := s.service.Intake(ctx, submission(email))
		s.Require().NoError(err, "attempt %d", i+1)
	}

	_, err := s.service.Intake(ctx, submission("d@example.com"))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeRateLimited))

	var denial *RateLimited
	s.Require().True(errors.As(err, &denial))
	s.Equal(rlmodels.ScopeIdentity, denial.Scope)
	s.GreaterOrEqual(denial.Result.RetryAfter, 1)

	// A different client identity is unaffected.
	_, err = s.service.Intake(s.ctx("198.51.100.5"), submission("d@example.com"))
	s.NoError(err)
}

func (s *IntakeSuite) TestEmailLimitCountsAttemptThatFailedValidation() {
	s.configure(
		rlservice.Policy{MaxAttempts: 100, Window: time.Minute},
		rlservice.Policy{MaxAttempts: 1, Window: 24 * time.Hour},
	)

	// First attempt: the address is fine but consent is missing, so the
	// submission fails validation. The email limiter still records it.
	_, err := s.service.Intake(s.ctx("198.51.100.6"), models.Submission{
		Email:   "carol@example.com",
		Consent: false,
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	// Second attempt within the window is denied on the email scope even
	// though it would otherwise be valid.
	_, err = s.service.Intake(s.ctx("198.51.100.7"), submission("carol@example.com"))
	s.Require().Error(err)

	var denial *RateLimited
	s.Require().True(errors.As(err, &denial))
	s.Equal(rlmodels.ScopeEmail, denial.Scope)
}

func (s *IntakeSuite) TestEmailDenialPrecedesValidationReport() {
	s.configure(
		rlservice.Policy{MaxAttempts: 100, Window: time.Minute},
		rlservice.Policy{MaxAttempts: 1, Window: 24 * time.Hour},
	)

	// Two attempts with the same valid address, both missing consent. The
	// second is denied on the email scope, and the throttle wins over the
	// field report.
	_, err := s.service.Intake(s.ctx("198.51.100.8"), models.Submission{
		Email:   "dave@example.com",
		Consent: false,
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	_, err = s.service.Intake(s.ctx("198.51.100.9"), models.Submission{
		Email:   "dave@example.com",
		Consent: false,
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeRateLimited))
}

func (s *IntakeSuite) TestRepeatOfSubscribedEmailIsConflictNotThrottle() {
	s.configure(
		rlservice.Policy{MaxAttempts: 100, Window: time.Minute},
		rlservice.Policy{MaxAttempts: 1, Window: 24 * time.Hour},
	)

	_, err := s.service.Intake(s.ctx("198.51.100.20"), submission("frank@example.com"))
	s.Require().NoError(err)

	// The email limiter denies an immediate repeat, but the address is on
	// file, so the idempotent conflict answer wins over the throttle.
	_, err = s.service.Intake(s.ctx("198.51.100.21"), submission("frank@example.com"))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeDuplicateEmail))

	count, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *IntakeSuite) TestMalformedEmailSkipsEmailLimiter() {
	for i := 0; i < 2; i++ {
		_, err := s.service.Intake(s.ctx("198.51.100.10"), models.Submission{
			Email:   "not-an-email",
			Consent: true,
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation), "attempt %d", i+1)
	}
}

func (s *IntakeSuite) TestNotifierFailureDoesNotFailSignup() {
	worker := notify.NewWorker(notifyFailFunc(func(context.Context, string) error {
		return errors.New("smtp unreachable")
	}), slog.Default(), nil, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	svc := s.service
	svc.worker = worker

	record, err := svc.Intake(s.ctx("198.51.100.11"), submission("erin@example.com"))
	s.Require().NoError(err)
	s.Equal("erin@example.com", record.Email)
}

type notifyFailFunc func(ctx context.Context, toEmail string) error

func (f notifyFailFunc) Send(ctx context.Context, toEmail string) error {
	return f(ctx, toEmail)
}

func TestDeviceSummary(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "chrome on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: "Chrome 120 on Linux",
		},
		{
			name: "crawler",
			ua:   "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want: "bot",
		},
		{
			name: "empty",
			ua:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, deviceSummary(tt.ua))
		})
	}
}
