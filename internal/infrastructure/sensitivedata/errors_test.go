package sensitivedata

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeError(t *testing.T) {
	provider := NewProvider()
	provider.Track("very-secret-token")
	provider.Track("very-secret")

	tests := []struct {
		name     string
		err      error
		expected string
		redacted bool
	}{
		{
			name:     "No secret",
			err:      errors.New("something failed"),
			expected: "something failed",
		},
		{
			name:     "Detailed error with secret",
			err:      errors.New("API call failed with token: very-secret-token"),
			expected: "API call failed with token: [REDACTED]",
			redacted: true,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeError(tt.err, provider)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.EqualError(t, got, tt.expected)
			assert.Equal(t, tt.redacted, IsRedacted(got))
		})
	}
}

func TestSafeError_PreservesChain(t *testing.T) {
	provider := NewProvider()
	provider.Track("hunter2")

	err := SafeError(fmt.Errorf("dial https://rpc/hunter2: %w", context.DeadlineExceeded), provider)
	assert.EqualError(t, err, "dial https://rpc/[REDACTED]: context deadline exceeded")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSafeError_NilProvider(t *testing.T) {
	orig := errors.New("x")
	assert.Same(t, orig, SafeError(orig, nil))
}
