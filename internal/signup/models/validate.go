package models

import (
	"regexp"
	"strings"

	dErrors "waitlist/pkg/domain-errors"
)

const (
	maxEmailLen   = 255
	maxZipLen     = 10
	maxUseCaseLen = 500
	maxSourceLen  = 50
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// NormalizeEmail lower-cases and trims an email and reports whether it has a
// valid local@domain.tld shape. The normalized form is the identity used for
// both the uniqueness constraint and the email rate limiter.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLen || !emailPattern.MatchString(email) {
		return email, false
	}
	return email, true
}

// Validate checks the submission and produces a normalized SignupRequest, or
// a validation error carrying every field failure at once so a caller can
// display all problems together. No network or storage access happens here.
func (s Submission) Validate() (*SignupRequest, error) {
	var fields []dErrors.Field

	email, ok := NormalizeEmail(s.Email)
	if !ok {
		fields = append(fields, dErrors.Field{Field: "email", Message: "a valid email address is required"})
	}

	zip := strings.TrimSpace(s.Zip)
	if zip != "" && (len(zip) > maxZipLen || !zipPattern.MatchString(zip)) {
		fields = append(fields, dErrors.Field{Field: "zip", Message: "zip must be a 5-digit or 5+4-digit code"})
	}

	var role Role
	if raw := strings.TrimSpace(s.Role); raw != "" {
		role = Role(strings.ToLower(raw))
		if !role.IsValid() {
			fields = append(fields, dErrors.Field{Field: "role", Message: "role must be one of voter, journalist, nonprofit, official, other"})
			role = ""
		}
	}

	useCase := strings.TrimSpace(s.UseCase)
	if useCase == "" {
		useCase = strings.TrimSpace(s.UseCaseAlt)
	}
	if len(useCase) > maxUseCaseLen {
		fields = append(fields, dErrors.Field{Field: "use_case", Message: "use case must be at most 500 characters"})
	}

	source := strings.TrimSpace(s.Source)
	if len(source) > maxSourceLen {
		fields = append(fields, dErrors.Field{Field: "source", Message: "source must be at most 50 characters"})
	}
	if source == "" {
		source = DefaultSource
	}

	// Missing consent is its own failure, distinct from a malformed email.
	if !s.Consent {
		fields = append(fields, dErrors.Field{Field: "consent", Message: "consent is required to join the waitlist"})
	}

	if len(fields) > 0 {
		return nil, dErrors.WithFields(dErrors.CodeValidation, "invalid signup submission", fields)
	}

	return &SignupRequest{
		Email:   email,
		Zip:     zip,
		Role:    role,
		UseCase: useCase,
		Source:  source,
	}, nil
}
