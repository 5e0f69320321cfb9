// Package models defines the types shared by rate limit stores and services.
package models

import (
	"strings"
	"time"
)

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Scope labels which policy produced a result, for logs and metrics.
type Scope string

const (
	// ScopeIdentity throttles by hashed client identity to defend against
	// automated bulk submission.
	ScopeIdentity Scope = "identity"
	// ScopeEmail throttles repeated submission of the same address
	// regardless of source.
	ScopeEmail Scope = "email"
)

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit counters.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// Key builds a namespaced counter key for a scope and identifier.
func Key(scope Scope, identifier string) string {
	return string(scope) + ":" + SanitizeKeySegment(identifier)
}
