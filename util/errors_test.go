package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexError(t *testing.T) {
	t.Run("Is matches by kind", func(t *testing.T) {
		err := NewError(ErrBadRange, "low exceeds high")
		assert.True(t, Is(err, ErrBadRange))
		assert.False(t, Is(err, ErrBadOperator))
	})

	t.Run("wraps an underlying error", func(t *testing.T) {
		cause := errors.New("disk offline")
		err := WrapError(ErrScanComplete, "flush failed", cause)

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "disk offline")
	})

	t.Run("BufferpoolExhaustedError satisfies error", func(t *testing.T) {
		var err error = NewBufferpoolExhaustedError("no evictable frame")
		assert.Error(t, err)
	})
}
