package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tripgraph/application/ports"
	"tripgraph/application/queries"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// ListEventsHandler answers ListEventsQuery, serving from cache when warm
type ListEventsHandler struct {
	repo     ports.EventRepository
	cache    ports.Cache
	cacheTTL int
	logger   *zap.Logger
}

// NewListEventsHandler creates a new list handler; cacheTTL is in seconds
func NewListEventsHandler(repo ports.EventRepository, cache ports.Cache, cacheTTL int, logger *zap.Logger) *ListEventsHandler {
	return &ListEventsHandler{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Handle executes the list query. A cached listing is used only if no
// write has replaced the generation token since it was read.
func (h *ListEventsHandler) Handle(ctx context.Context, _ queries.ListEventsQuery) ([]*entities.Event, error) {
	caching := h.cache != nil && h.cacheTTL > 0

	var generation string
	if caching {
		generation = h.generation(ctx)
		if cached, ok := h.cache.Get(ctx, queries.ListEventsCacheKey); ok {
			if listing, ok := cached.(queries.CachedListing); ok && listing.Generation == generation {
				h.logger.Debug("Serving event list from cache", zap.Int("count", len(listing.Events)))
				return listing.Events, nil
			}
		}
	}

	list, err := h.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	if caching {
		listing := queries.CachedListing{Generation: generation, Events: list}
		if err := h.cache.Set(ctx, queries.ListEventsCacheKey, listing, h.cacheTTL); err != nil {
			h.logger.Warn("Failed to cache event list", zap.Error(err))
		}
	}
	return list, nil
}

func (h *ListEventsHandler) generation(ctx context.Context) string {
	if v, ok := h.cache.Get(ctx, queries.ListEventsGenerationKey); ok {
		if token, ok := v.(string); ok {
			return token
		}
	}
	return ""
}

// GetEventHandler answers GetEventQuery
type GetEventHandler struct {
	repo   ports.EventRepository
	logger *zap.Logger
}

// NewGetEventHandler creates a new get handler
func NewGetEventHandler(repo ports.EventRepository, logger *zap.Logger) *GetEventHandler {
	return &GetEventHandler{repo: repo, logger: logger}
}

// Handle executes the get query
func (h *GetEventHandler) Handle(ctx context.Context, query queries.GetEventQuery) (*entities.Event, error) {
	id, err := valueobjects.NewEventIDFromString(query.EventID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	event, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}
