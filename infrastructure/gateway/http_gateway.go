// Package gateway talks to the events API on behalf of the planner.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tripgraph/application/ports"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/infrastructure/config"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/observability"
)

const serviceName = "events-api"

// CreateEventRequest is the body of POST /events. The id is assigned by the
// store and never sent.
type CreateEventRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Position    *valueobjects.Position `json:"position,omitempty"`
	Color       string                 `json:"color,omitempty"`
	CreatedAt   *time.Time             `json:"createdAt,omitempty"`
}

// UpdateTitleRequest is the body of PUT /events/{id}
type UpdateTitleRequest struct {
	Title string `json:"title"`
}

// HTTPGateway implements ports.EventGateway over the events REST API
type HTTPGateway struct {
	baseURL *url.URL
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  *observability.Tracer
	logger  *zap.Logger
}

// NewHTTPGateway creates a gateway for the API at cfg.APIURL
func NewHTTPGateway(cfg *config.PlannerConfig, tracer *observability.Tracer, logger *zap.Logger) (ports.EventGateway, error) {
	base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api_url: %w", err)
	}

	g := &HTTPGateway{
		baseURL: base,
		token:   cfg.APIToken,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		tracer:  tracer,
		logger:  logger,
	}
	g.breaker = newBreaker(cfg.Breaker, logger)
	return g, nil
}

func newBreaker(cfg config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Answers the API gave on purpose do not count against it
		IsSuccessful: func(err error) bool {
			return err == nil || !pkgerrors.IsTransport(err)
		},
	})
}

// FetchAll returns every stored event in store order
func (g *HTTPGateway) FetchAll(ctx context.Context) ([]*entities.Event, error) {
	var out []*entities.Event
	err := g.do(ctx, "fetchAll", http.MethodGet, "/events", nil, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores the event and returns the record with its assigned id
func (g *HTTPGateway) Create(ctx context.Context, event *entities.Event) (*entities.Event, error) {
	pos := event.Position()
	createdAt := event.CreatedAt()
	body := CreateEventRequest{
		Title:       event.Title(),
		Description: event.Description(),
		Position:    &pos,
		Color:       event.Color().String(),
	}
	if !createdAt.IsZero() {
		body.CreatedAt = &createdAt
	}

	stored := &entities.Event{}
	if err := g.do(ctx, "create", http.MethodPost, "/events", body, http.StatusCreated, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateTitle renames a stored event
func (g *HTTPGateway) UpdateTitle(ctx context.Context, id, title string) error {
	return g.do(ctx, "updateTitle", http.MethodPut, "/events/"+url.PathEscape(id), UpdateTitleRequest{Title: title}, http.StatusOK, nil)
}

// Remove deletes a stored event
func (g *HTTPGateway) Remove(ctx context.Context, id string) error {
	return g.do(ctx, "remove", http.MethodDelete, "/events/"+url.PathEscape(id), nil, http.StatusOK, nil)
}

func (g *HTTPGateway) do(ctx context.Context, op, method, path string, body interface{}, want int, out interface{}) error {
	return g.tracer.TraceFunction(ctx, "gateway."+op, func(ctx context.Context) error {
		_, err := g.breaker.Execute(func() (interface{}, error) {
			return nil, g.roundTrip(ctx, method, path, body, want, out)
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return pkgerrors.NewUnavailableError(serviceName).WithCause(err)
		case err != nil:
			g.logger.Debug("Events API call failed",
				zap.String("operation", op),
				zap.String("path", path),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewExternalError(serviceName, fmt.Errorf("invalid response body: %w", err))
	}
	return nil
}

// statusError turns an unexpected status into the matching AppError
func statusError(resp *http.Response) error {
	var body pkgerrors.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return pkgerrors.NewNotFoundError("event")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.NewValidationError(body.Error).WithDetails(body.Details)
	case http.StatusConflict:
		return pkgerrors.NewConflictError(body.Error)
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.NewUnauthorizedError(body.Error)
	case http.StatusTooManyRequests:
		return pkgerrors.NewUnavailableError(serviceName).WithCause(errors.New(body.Error))
	default:
		return pkgerrors.NewExternalError(serviceName, fmt.Errorf("status %d: %s", resp.StatusCode, body.Error))
	}
}
