package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracer_RunsWithoutSegment(t *testing.T) {
	tracer := NewTracer("tripctl", true)
	called := false

	err := tracer.TraceFunction(context.Background(), "gateway.create", func(context.Context) error {
		called = true
		return errors.New("boom")
	})

	assert.True(t, called)
	assert.EqualError(t, err, "boom")
	tracer.AddAnnotation(context.Background(), "eventID", "a")
}

func TestTracer_DisabledMiddlewareIsIdentity(t *testing.T) {
	var tracer *Tracer
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	tracer.Middleware(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.False(t, tracer.Enabled())
}
