package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("boom"), expected: false},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: true},
		{name: "ErrReminderExists", err: ErrReminderExists, expected: true},
		{
			name:     "wrapped ErrReminderExists",
			err:      fmt.Errorf("append reminder event: %w", ErrReminderExists),
			expected: true,
		},
		{name: "ErrNotFound", err: ErrNotFound, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicateError(tt.err))
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsNotFoundError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		base := errors.New("connection reset")
		err := NewStoreError("reminder_event", "append", "insert failed", base)

		assert.Equal(t, "append operation on reminder_event failed: insert failed: connection reset", err.Error())
		assert.True(t, errors.Is(err, base))
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewStoreError("task", "query", "bad window", nil)

		assert.Equal(t, "query operation on task failed: bad window", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("errors.As", func(t *testing.T) {
		wrapped := fmt.Errorf("outer: %w", NewStoreError("task", "query", "m", ErrNotFound))

		var storeErr *StoreError
		assert.True(t, errors.As(wrapped, &storeErr))
		assert.Equal(t, "task", storeErr.Entity)
		assert.True(t, IsNotFoundError(wrapped))
	})
}
