package ports

import (
	"context"
	"time"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/domain/events"
)

// EventRepository defines the interface for event persistence on the server side
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type EventRepository interface {
	// List returns every event ordered by createdAt ascending, ties broken by id
	List(ctx context.Context) ([]*entities.Event, error)

	// GetByID retrieves one event; NotFound when absent
	GetByID(ctx context.Context, id valueobjects.EventID) (*entities.Event, error)

	// Create stores a new event; Conflict when the id is taken
	Create(ctx context.Context, event *entities.Event) error

	// UpdateTitle changes only the title; NotFound when absent
	UpdateTitle(ctx context.Context, id valueobjects.EventID, title string) error

	// Delete removes an event; NotFound when absent
	Delete(ctx context.Context, id valueobjects.EventID) error
}

// EventGateway is the planner's view of the remote event store
type EventGateway interface {
	// FetchAll returns all stored events
	FetchAll(ctx context.Context) ([]*entities.Event, error)

	// Create stores the event without its local id and returns the stored
	// record, carrying the id assigned by the store
	Create(ctx context.Context, event *entities.Event) (*entities.Event, error)

	// UpdateTitle changes the title of a stored event
	UpdateTitle(ctx context.Context, id, title string) error

	// Remove deletes a stored event
	Remove(ctx context.Context, id string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// SyncMetrics records the outcome of calls made on behalf of the planner
type SyncMetrics interface {
	ObserveSync(operation string, err error, duration time.Duration)
	SetPending(n int)
}
