package chieferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(Unavailable, "store.fetch_one", cause)

	assert.True(t, Is(err, Unavailable))
	assert.False(t, Is(err, Conflict))
	assert.Equal(t, Unavailable, KindOf(err))
}

func TestIsFalseForPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.False(t, Is(err, Transient))
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := New(Conflict, "taskqueue.claim", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "taskqueue.claim")
	assert.Contains(t, err.Error(), "CONFLICT")
}
