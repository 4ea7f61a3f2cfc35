package validation

import (
	"context"
	"testing"

	apperrors "bundlehub/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,msisdn"`
	Password string `json:"password" validate:"password"`
	Type     string `json:"type" validate:"omitempty,bundletype"`
	Capacity int    `json:"capacity" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      signup
		wantErr string
	}{
		{
			name: "valid",
			in:   signup{Email: "kofi@example.com", Phone: "+233201234567", Password: "Passw0rdX", Type: "AT-ishare", Capacity: 1000},
		},
		{
			name:    "bad email",
			in:      signup{Email: "kofi", Phone: "0201234567", Password: "Passw0rdX", Capacity: 1},
			wantErr: "email must be a valid email address",
		},
		{
			name:    "bad phone",
			in:      signup{Email: "kofi@example.com", Phone: "12-34", Password: "Passw0rdX", Capacity: 1},
			wantErr: "phone must be a valid phone number",
		},
		{
			name:    "weak password",
			in:      signup{Email: "kofi@example.com", Phone: "0201234567", Password: "password", Capacity: 1},
			wantErr: "password must be",
		},
		{
			name:    "unknown bundle type",
			in:      signup{Email: "kofi@example.com", Phone: "0201234567", Password: "Passw0rdX", Type: "vodafone", Capacity: 1},
			wantErr: "type must be a known bundle type",
		},
		{
			name:    "capacity",
			in:      signup{Email: "kofi@example.com", Phone: "0201234567", Password: "Passw0rdX"},
			wantErr: "capacity must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(context.Background(), tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Abcdefg1"))
	assert.False(t, StrongPassword("Abc1"))
	assert.False(t, StrongPassword("abcdefg1"))
	assert.False(t, StrongPassword("ABCDEFG1"))
	assert.False(t, StrongPassword("Abcdefgh"))
}
