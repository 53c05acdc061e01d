package media

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapStorage("stat object", "abc123", cause, true)

	assert.Equal(t, KindStorage, err.Kind)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, CodeStorageError, err.Code)
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "abc123")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsErrorThroughChain(t *testing.T) {
	inner := NewNotFound("media %s not found", "id1")
	wrapped := fmt.Errorf("handler: %w", inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Equal(t, http.StatusNotFound, e.HTTPStatus)

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindValidation))
}

func TestAsErrorPlain(t *testing.T) {
	_, ok := AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationErrorShape(t *testing.T) {
	err := NewValidation("file size %d exceeds limit %d", 10, 5)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.False(t, err.Retryable)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "file size 10 exceeds limit 5", err.Message)
}
