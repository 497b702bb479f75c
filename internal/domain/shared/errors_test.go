package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatching(t *testing.T) {
	assert.True(t, errors.Is(ErrEmptyEventTitle, ErrValidation))
	assert.True(t, IsValidation(ErrEmptyNoteContent))
	assert.True(t, IsValidation(ErrFinalAttemptsUsed))
	assert.False(t, IsValidation(ErrStateNotFound))
	assert.True(t, IsNotFound(ErrStateNotFound))
	assert.True(t, IsRetryable(ErrStoreUnavailable))
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError("store", "Save", ErrServiceUnavailable, "save failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, "store.Save: save failed: connection reset", err.Error())
}

func TestUserMessage(t *testing.T) {
	msg, ok := UserMessage(fmt.Errorf("apply: %w", ErrEmptyEventTitle))
	assert.True(t, ok)
	assert.Equal(t, "Please provide a title and time.", msg)

	_, ok = UserMessage(ErrStoreUnavailable)
	assert.False(t, ok)

	_, ok = UserMessage(errors.New("plain"))
	assert.False(t, ok)
}
