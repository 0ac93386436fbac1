package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  []string
	}{
		{"valid", "ada@example.com", nil},
		{"missing", "", []string{"is required"}},
		{"blank", "   ", []string{"is required"}},
		{"malformed", "not-an-email", []string{"must be a valid email address"}},
		{"too long", strings.Repeat("a", 250) + "@example.com", []string{"must be at most 255 characters"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Email("email", tt.email)
			if tt.want == nil {
				assert.True(t, v.Valid())
				assert.NoError(t, v.Err())
				return
			}

			var verr *Error
			require.True(t, errors.As(v.Err(), &verr))
			assert.Equal(t, tt.want, verr.Fields["email"])
		})
	}
}

func TestValidatorPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"ok", "secret123", true},
		{"short", "short", false},
		{"exactly 72 bytes", strings.Repeat("x", 72), true},
		{"73 bytes", strings.Repeat("x", 73), false},
		{"missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Password("password", tt.password)
			assert.Equal(t, tt.valid, v.Valid())
		})
	}
}

func TestValidatorCollectsMultipleFields(t *testing.T) {
	v := New()
	v.Required("name", "")
	v.Email("email", "bad")
	v.In("status", "blocked", "pending", "done")

	err := v.Err()
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, []string{"must be one of pending, done"}, verr.Fields["status"])
	assert.Equal(t, "validation failed: email must be a valid email address; name is required; status must be one of pending, done", err.Error())
}

func TestFieldError(t *testing.T) {
	err := FieldError("email", "has already been taken")
	assert.Equal(t, map[string][]string{"email": {"has already been taken"}}, err.Fields)
}
