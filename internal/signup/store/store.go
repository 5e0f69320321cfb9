// Package store persists waitlist signup records. The store is the sole
// arbiter of the one-record-per-email invariant: concurrent inserts racing on
// the same address are resolved by the uniqueness constraint, never by an
// application-layer pre-check.
package store

import (
	"context"
	"errors"

	"waitlist/internal/signup/models"
)

// ErrDuplicateEmail is returned by Insert specifically and only when a record
// with the same normalized email already exists.
var ErrDuplicateEmail = errors.New("email already on the waitlist")

// Store is the durable signup record collaborator.
type Store interface {
	// Insert persists a record, enforcing email uniqueness.
	Insert(ctx context.Context, record *models.SignupRecord) error
	// ExistsByEmail reports whether a record with the normalized email is
	// already on file. This is a read for error classification, never a
	// substitute for the uniqueness constraint Insert enforces.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns all records, oldest first.
	List(ctx context.Context) ([]*models.SignupRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error
}
