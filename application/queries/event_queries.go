package queries

import (
	"strings"

	"tripgraph/domain/core/entities"
	"tripgraph/pkg/errors"
)

const (
	// ListEventsCacheKey is the cache entry holding the full ordered listing
	ListEventsCacheKey = "events:list"

	// ListEventsGenerationKey holds a token replaced on every write. A
	// listing is served from cache only while the token it was read under
	// is still current.
	ListEventsGenerationKey = "events:list:generation"

	// ListEventsGenerationTTL keeps the token well past any listing TTL
	ListEventsGenerationTTL = 24 * 60 * 60
)

// CachedListing is the value stored under ListEventsCacheKey
type CachedListing struct {
	Generation string
	Events     []*entities.Event
}

// ListEventsQuery asks for every stored event in creation order
type ListEventsQuery struct{}

// Validate validates the query
func (q ListEventsQuery) Validate() error { return nil }

// GetEventQuery asks for a single event
type GetEventQuery struct {
	EventID string `json:"id"`
}

// Validate validates the query
func (q GetEventQuery) Validate() error {
	if strings.TrimSpace(q.EventID) == "" {
		return errors.NewValidationError("event id is required")
	}
	return nil
}
