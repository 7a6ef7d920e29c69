package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripgraph/domain/core/valueobjects"
	"tripgraph/infrastructure/config"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/observability"
	"tripgraph/tests/fixtures"
)

func newGateway(t *testing.T, url string) *HTTPGateway {
	t.Helper()
	cfg := config.DefaultPlannerConfig()
	cfg.APIURL = url
	cfg.APIToken = "secret"
	cfg.RequestTimeout = 2 * time.Second
	cfg.Breaker.MinRequests = 3
	cfg.Breaker.FailureRatio = 1

	gw, err := NewHTTPGateway(cfg, observability.NewTracer("tripctl", false), zap.NewNop())
	require.NoError(t, err)
	return gw.(*HTTPGateway)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPGateway_FetchAll(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, fixtures.Sequence("a", "b"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	events, err := newGateway(t, srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID().String())
	assert.Equal(t, "Stop b", events[1].Title())
}

func TestHTTPGateway_CreateOmitsLocalID(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "id")
		assert.Equal(t, "Porto", raw["title"])

		stored := fixtures.NewEventBuilder().WithID("srv-1").WithTitle("Porto").Build()
		writeJSON(w, http.StatusCreated, stored)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	local := fixtures.NewEventBuilder().WithID("local-1").WithTitle("Porto").Build()
	stored, err := newGateway(t, srv.URL).Create(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.MustEventID("srv-1"), stored.ID())
}

func TestHTTPGateway_UpdateAndRemove(t *testing.T) {
	var renamed, removed string
	r := chi.NewRouter()
	r.Put("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body UpdateTitleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		renamed = chi.URLParam(r, "id") + "=" + body.Title
		writeJSON(w, http.StatusOK, map[string]string{"message": "Event updated"})
	})
	r.Delete("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		removed = chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	gw := newGateway(t, srv.URL)
	require.NoError(t, gw.UpdateTitle(context.Background(), "a", "Faro"))
	require.NoError(t, gw.Remove(context.Background(), "a"))

	assert.Equal(t, "a=Faro", renamed)
	assert.Equal(t, "a", removed)
}

func TestHTTPGateway_StatusMapping(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/events/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, pkgerrors.ErrorResponse{Error: "event not found"})
	})
	r.Put("/events/bad", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, pkgerrors.ErrorResponse{Error: "title is required"})
	})
	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, pkgerrors.ErrorResponse{Error: "boom"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	gw := newGateway(t, srv.URL)
	ctx := context.Background()

	assert.True(t, pkgerrors.IsNotFound(gw.Remove(ctx, "missing")))

	err := gw.UpdateTitle(ctx, "bad", "")
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "title is required")

	_, err = gw.FetchAll(ctx)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
}

func TestHTTPGateway_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newGateway(t, url).FetchAll(context.Background())
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNetwork))
}

func TestHTTPGateway_BreakerOpensOnServerFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := newGateway(t, srv.URL)
	for i := 0; i < 3; i++ {
		_, err := gw.FetchAll(context.Background())
		require.Error(t, err)
	}

	_, err := gw.FetchAll(context.Background())
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPGateway_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := newGateway(t, srv.URL)
	for i := 0; i < 5; i++ {
		assert.True(t, pkgerrors.IsNotFound(gw.Remove(context.Background(), "x")))
	}
}
