package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", Validation("phone", "bad"), ErrValidation},
		{"not found", NotFound("patient"), ErrNotFound},
		{"conflict", Conflict("email", ""), ErrConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)
			assert.ErrorIs(t, wrapped, tc.target)
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	assert.False(t, errors.Is(NotFound("patient"), ErrValidation))
	assert.False(t, errors.Is(Validation("x", "y"), ErrNotFound))
	assert.False(t, errors.Is(Conflict("email", ""), ErrNotFound))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "phone: Enter Valid Phone Number", Validation("phone", "Enter Valid Phone Number").Error())
	assert.Equal(t, "passwords don't match", Validation("", "passwords don't match").Error())
	assert.Equal(t, "assignment not found", NotFound("assignment").Error())
	assert.Equal(t, "email already exists", Conflict("email", "").Error())
	assert.Equal(t, "custom", Conflict("email", "custom").Error())
}

func TestAsExtractsField(t *testing.T) {
	err := fmt.Errorf("create: %w", Validation("patient", "you may only assign doctors to your own patients"))

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "patient", ve.Field)
	}
}
