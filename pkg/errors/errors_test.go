package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("command handler failed: %w", NewNotFoundError("event e1"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.False(t, IsTransport(wrapped))
	assert.False(t, IsAppError(errors.New("plain")))
}

func TestIsTransport(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", NewNetworkError("dial", cause), true},
		{"database", NewDatabaseError("put", cause), true},
		{"external", NewExternalError("events-api", cause), true},
		{"unavailable", NewUnavailableError("events-api"), true},
		{"validation", NewValidationError("bad"), false},
		{"conflict", NewConflictError("taken"), false},
		{"unauthorized", NewUnauthorizedError("no"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransport(tt.err))
		})
	}
	assert.True(t, IsUnauthorized(NewUnauthorizedError("no")))
}

func TestErrorHandler_WritesTypedBody(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/events/e1", nil)
	h.Handle(rec, req, fmt.Errorf("wrapped: %w", NewNotFoundError("event e1")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(ErrorTypeNotFound), body.Type)
	assert.NotEmpty(t, body.Error)
	assert.NotContains(t, body.Details, "stack_trace")
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
