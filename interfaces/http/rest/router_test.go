package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tripgraph/infrastructure/config"
	"tripgraph/infrastructure/di"
	"tripgraph/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		StoreBackend:       config.StoreBadger,
		AWSRegion:          "us-west-2",
		LogLevel:           "error",
		JWTIssuer:          "tripgraph",
		RateLimitPerMinute: 600,
		RateLimitBurst:     100,
		ListCacheTTL:       5,
		EnableMetrics:      true,
	}
}

func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(container.Handler)
	t.Cleanup(func() {
		srv.Close()
		cleanup()
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body string, headers ...string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	return resp.StatusCode, raw
}

type eventBody struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

func TestEventsAPI_CRUD(t *testing.T) {
	srv := newServer(t, testConfig())

	status, body := call(t, srv, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = call(t, srv, http.MethodPost, "/events",
		`{"title":"Lisbon","position":{"x":50,"y":50},"createdAt":"2026-05-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var first eventBody
	require.NoError(t, json.Unmarshal(body, &first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Lisbon", first.Title)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, strings.ToLower(first.Color))

	status, body = call(t, srv, http.MethodPost, "/events",
		`{"title":"Porto","color":"#112233","createdAt":"2026-05-02T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, status, string(body))
	var second eventBody
	require.NoError(t, json.Unmarshal(body, &second))

	status, body = call(t, srv, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, status)
	var listed []eventBody
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)

	status, body = call(t, srv, http.MethodPut, "/events/"+first.ID, `{"title":"Lisboa"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Event updated"}`, string(body))

	status, body = call(t, srv, http.MethodGet, "/events/"+first.ID, "")
	require.Equal(t, http.StatusOK, status)
	var renamed eventBody
	require.NoError(t, json.Unmarshal(body, &renamed))
	assert.Equal(t, "Lisboa", renamed.Title)
	assert.True(t, first.CreatedAt.Equal(renamed.CreatedAt))

	status, body = call(t, srv, http.MethodDelete, "/events/"+first.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Event deleted"}`, string(body))

	status, _ = call(t, srv, http.MethodDelete, "/events/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, srv, http.MethodPut, "/events/missing", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventsAPI_RejectsInvalidBodies(t *testing.T) {
	srv := newServer(t, testConfig())

	status, _ := call(t, srv, http.MethodPost, "/events", `{"title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPost, "/events", `{"title":"ok","color":"red"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPost, "/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEventsAPI_HealthAndMetrics(t *testing.T) {
	srv := newServer(t, testConfig())

	status, body := call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	call(t, srv, http.MethodGet, "/events", "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `tripgraph_http_requests_total{method="GET",route="/events`)
}

func TestEventsAPI_RequiresBearerTokenWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	srv := newServer(t, cfg)

	status, _ := call(t, srv, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, srv, http.MethodGet, "/events", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	generator, err := auth.NewJWTGenerator("test-secret", "tripgraph", time.Hour)
	require.NoError(t, err)
	token, err := generator.GenerateToken("planner", "events")
	require.NoError(t, err)

	status, _ = call(t, srv, http.MethodGet, "/events", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestEventsAPI_RateLimitsPerClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	cfg.RateLimitBurst = 2
	srv := newServer(t, cfg)

	for i := 0; i < 2; i++ {
		status, _ := call(t, srv, http.MethodGet, "/events", "")
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := call(t, srv, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
}
