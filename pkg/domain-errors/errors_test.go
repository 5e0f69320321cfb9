package domainerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "waitlist/pkg/domain-errors"
)

func TestIs(t *testing.T) {
	err := dErrors.New(dErrors.CodeRateLimited, "too many attempts")

	assert.True(t, dErrors.Is(err, dErrors.CodeRateLimited))
	assert.False(t, dErrors.Is(err, dErrors.CodeDuplicateEmail))
	assert.False(t, dErrors.Is(errors.New("plain"), dErrors.CodeRateLimited))
	assert.False(t, dErrors.Is(nil, dErrors.CodeRateLimited))
}

func TestIs_WrappedChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(cause, dErrors.CodeStorageUnavailable, "signup store unavailable")
	outer := fmt.Errorf("insert signup: %w", err)

	assert.True(t, dErrors.Is(outer, dErrors.CodeStorageUnavailable))
	require.ErrorIs(t, outer, cause)
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(errors.New("oops")))
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(dErrors.New(dErrors.CodeValidation, "bad zip")))
}

func TestMessageOf_NeverLeaksCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := dErrors.Wrap(cause, dErrors.CodeStorageUnavailable, "signup store unavailable")

	assert.Equal(t, "signup store unavailable", dErrors.MessageOf(err))
	assert.Equal(t, "internal error", dErrors.MessageOf(cause))
}

func TestWithFields(t *testing.T) {
	err := dErrors.WithFields(dErrors.CodeValidation, "invalid signup", []dErrors.Field{
		{Field: "email", Message: "a valid email is required"},
		{Field: "zip", Message: "zip must be a 5-digit or 5+4-digit code"},
	})

	fields := dErrors.FieldsOf(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Field)
	assert.Nil(t, dErrors.FieldsOf(errors.New("plain")))
}
