// Package models defines the signup intake types: the raw submission, the
// validated request, and the durable record.
package models

import (
	"time"
)

// Role categorizes who is signing up. Closed set; anything else is rejected.
type Role string

const (
	RoleVoter      Role = "voter"
	RoleJournalist Role = "journalist"
	RoleNonprofit  Role = "nonprofit"
	RoleOfficial   Role = "official"
	RoleOther      Role = "other"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleVoter, RoleJournalist, RoleNonprofit, RoleOfficial, RoleOther:
		return true
	}
	return false
}

// DefaultSource tags signups that arrive without an explicit source.
const DefaultSource = "waitlist"

// Submission is the raw JSON body of a signup request. Both useCase and
// use_case are accepted for the free-text field.
type Submission struct {
	Email      string `json:"email"`
	Zip        string `json:"zip,omitempty"`
	Role       string `json:"role,omitempty"`
	UseCase    string `json:"useCase,omitempty"`
	UseCaseAlt string `json:"use_case,omitempty"`
	Source     string `json:"source,omitempty"`
	Consent    bool   `json:"consent"`
}

// SignupRequest is a validated, normalized submission plus the derived
// transport metadata. Request-scoped; mapped to a SignupRecord before
// persistence.
type SignupRequest struct {
	Email   string // lower-cased, trimmed
	Zip     string
	Role    Role // empty when not supplied
	UseCase string
	Source  string

	IdentityHash string
	UserAgent    string
	Referer      string
}

// SignupRecord is the durable waitlist entry. Exactly one record may exist
// per normalized email; the store enforces this, not the application layer.
type SignupRecord struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Zip           string    `json:"zip,omitempty"`
	Role          Role      `json:"role,omitempty"`
	UseCase       string    `json:"use_case,omitempty"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
	UserAgent     string    `json:"user_agent,omitempty"`
	DeviceSummary string    `json:"device_summary,omitempty"`
	Referer       string    `json:"referer,omitempty"`
	IdentityHash  string    `json:"identity_hash,omitempty"`
}
