package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"otasync/internal/failure"

	"github.com/stretchr/testify/assert"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{Code: http.StatusBadRequest, Message: "test error message"}
	assert.Equal(t, "test error message", f.Error())

	wrapped := failure.AuthError("login form not found", errors.New("context deadline exceeded"))
	assert.Equal(t, "login form not found: context deadline exceeded", wrapped.Error())
}

func TestKinds(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		kind failure.Kind
		code int
	}{
		{name: "auth", err: failure.AuthError("x", cause), kind: failure.KindAuth, code: http.StatusBadGateway},
		{name: "navigation", err: failure.NavigationTimeout("x", cause), kind: failure.KindNavigationTimeout, code: http.StatusGatewayTimeout},
		{name: "gap", err: failure.ExtractionGap("total_tax"), kind: failure.KindExtractionGap, code: http.StatusUnprocessableEntity},
		{name: "duplicate", err: failure.DuplicateSkip("x"), kind: failure.KindDuplicateSkip, code: http.StatusConflict},
		{name: "storage", err: failure.StorageError("x", cause), kind: failure.KindStorage, code: http.StatusInternalServerError},
		{name: "not found", err: failure.NotFound("reservation"), kind: failure.KindRequest, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to sync: %w", tt.err)

			assert.Equal(t, tt.kind, failure.GetKind(wrapped))
			assert.Equal(t, tt.code, failure.GetCode(wrapped))
			assert.True(t, failure.Is(wrapped, tt.kind))
		})
	}
}

func TestForeignErrors(t *testing.T) {
	err := errors.New("plain")

	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	assert.Equal(t, failure.Kind(""), failure.GetKind(err))
	assert.False(t, failure.Is(nil, failure.KindAuth))
	assert.Nil(t, failure.BadRequest(nil))
	assert.Nil(t, failure.InternalError(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := failure.StorageError("failed to insert reservation", cause)

	assert.ErrorIs(t, err, cause)
}
