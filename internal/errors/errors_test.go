package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", Wrap(ErrDeliveryUnavailable, stderrors.New("dial tcp: connection refused")))

	assert.True(t, stderrors.Is(wrapped, ErrDeliveryUnavailable))
	assert.False(t, stderrors.Is(wrapped, ErrInsufficientBalance))
	assert.Equal(t, KindServiceUnavailable, KindOf(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("BAD", "bad input"), KindValidation},
		{"not found", ErrOrderNotFound, KindNotFound},
		{"insufficient", ErrInsufficientBalance, KindInsufficientFunds},
		{"integrity", Integrity("X", "broken", nil), KindIntegrity},
		{"rejected", ErrDeliveryRejected, KindDeliveryRejected},
		{"plain error", stderrors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestTerminalErrorsAreNotRetryable(t *testing.T) {
	for _, err := range []error{ErrInsufficientBalance, ErrInvalidOrder, ErrDeliveryRejected, ErrOrderOwnerMissing} {
		assert.False(t, IsRetryable(err), err.Error())
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := WithMessage(ErrInvalidOrder, "recipient %q is not a phone number", "abc")

	assert.True(t, stderrors.Is(err, ErrInvalidOrder))
	assert.Equal(t, `recipient "abc" is not a phone number`, err.Error())
	assert.Equal(t, "validation", err.Kind.String())
}
