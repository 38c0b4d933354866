package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("x").Status())
	assert.Equal(t, http.StatusConflict, Conflict("x").Status())
	assert.Equal(t, http.StatusBadRequest, InvalidInput("x").Status())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("x").Status())
	assert.Equal(t, http.StatusTooManyRequests, New(KindRateLimited, "x").Status())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("db down")).Status())
}

func TestAsWrapped(t *testing.T) {
	err := fmt.Errorf("outer, %w", NotFound("Pin not found"))

	e := As(err)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
}

func TestAsUnclassified(t *testing.T) {
	cause := errors.New("connection reset")

	e := As(cause)
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "Internal server error", e.Message)
	assert.ErrorIs(t, e, cause)
}
