package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelChecks(t *testing.T) {
	err := NewValidationError("search terms must not be empty")
	assert.True(t, IsValidationError(err))
	assert.False(t, IsNotFoundError(err))

	wrapped := Wrap(err, "create job")
	assert.True(t, IsValidationError(wrapped), "wrapping must preserve the sentinel")
}

func TestBusyCoversBothLockErrors(t *testing.T) {
	assert.True(t, IsBusyError(ErrBusy))
	assert.True(t, IsBusyError(ErrAlreadyRunning))
	assert.False(t, IsBusyError(ErrNotFound))
	assert.False(t, IsBusyError(nil))
}

func TestWrapNetworkPreservesCauseText(t *testing.T) {
	cause := New("connection refused")
	err := WrapNetwork(cause, "execute search")
	assert.True(t, IsNetworkError(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "execute search")
}

func TestNotFoundFormatting(t *testing.T) {
	err := NewNotFoundError("job %d", 42)
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "job 42")
}
