package security_test

import (
	"testing"

	"github.com/geocoder89/staroracle/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("Password1")
	require.NoError(t, err)

	assert.NotEqual(t, "Password1", hash)
	assert.NoError(t, security.CheckPassword(hash, "Password1"))
	assert.ErrorIs(t, security.CheckPassword(hash, "password1"), security.ErrPasswordIncorrect)
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"Short1", security.ErrPasswordTooShort},
		{"alllower1", security.ErrPasswordNoUpper},
		{"ALLUPPER1", security.ErrPasswordNoLower},
		{"NoDigitsHere", security.ErrPasswordNoDigit},
		{"Password1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := security.ValidatePasswordStrength(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRandomToken(t *testing.T) {
	a, err := security.RandomToken(16)
	require.NoError(t, err)
	b, err := security.RandomToken(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
