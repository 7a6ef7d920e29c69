package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripgraph/application/commands"
	"tripgraph/application/ports"
	"tripgraph/application/queries"
	"tripgraph/domain/config"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/domain/events"
	pkgerrors "tripgraph/pkg/errors"
)

// base carries what every event command handler needs
type base struct {
	repo      ports.EventRepository
	publisher ports.EventPublisher
	cache     ports.Cache
	logger    *zap.Logger
}

// afterWrite publishes the domain event and invalidates cached listings.
// Neither step fails the command.
func (b base) afterWrite(ctx context.Context, event events.DomainEvent) {
	if b.cache != nil {
		b.invalidateListing(ctx)
	}
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("Failed to publish domain event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

// invalidateListing replaces the generation token first, so a listing read
// before this write and cached after it is never served
func (b base) invalidateListing(ctx context.Context) {
	token := uuid.New().String()
	if err := b.cache.Set(ctx, queries.ListEventsGenerationKey, token, queries.ListEventsGenerationTTL); err != nil {
		b.logger.Warn("Failed to rotate event list generation", zap.Error(err))
	}
	if err := b.cache.Delete(ctx, queries.ListEventsCacheKey); err != nil {
		b.logger.Warn("Failed to invalidate event list cache", zap.Error(err))
	}
}

// CreateEventHandler handles the CreateEventCommand
type CreateEventHandler struct {
	base
	cfg *config.DomainConfig
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCreateEventHandler creates a new handler instance
func NewCreateEventHandler(
	repo ports.EventRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CreateEventHandler {
	return &CreateEventHandler{
		base: base{repo: repo, publisher: publisher, cache: cache, logger: logger},
		cfg:  cfg,
		now:  time.Now,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Handle executes the create event command
func (h *CreateEventHandler) Handle(ctx context.Context, cmd commands.CreateEventCommand) error {
	id, err := valueobjects.NewEventIDFromString(cmd.EventID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	position, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	var color valueobjects.Color
	if cmd.Color == "" {
		h.mu.Lock()
		color = valueobjects.RandomColor(h.rng)
		h.mu.Unlock()
	} else if color, err = valueobjects.ParseColor(cmd.Color); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	createdAt := cmd.CreatedAt
	if createdAt.IsZero() {
		createdAt = h.now()
	}

	event, err := entities.NewEvent(id, cmd.Title, cmd.Description, position, color, createdAt, h.cfg)
	if err != nil {
		return err
	}

	if err := h.repo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}

	h.logger.Info("Event created",
		zap.String("eventID", event.ID().String()),
		zap.String("title", event.Title()),
	)

	h.afterWrite(ctx, events.NewEventCreated(event.ID(), event.Title(), h.now()))
	return nil
}

// RenameEventHandler handles the RenameEventCommand
type RenameEventHandler struct {
	base
}

// NewRenameEventHandler creates a new handler instance
func NewRenameEventHandler(repo ports.EventRepository, publisher ports.EventPublisher, cache ports.Cache, logger *zap.Logger) *RenameEventHandler {
	return &RenameEventHandler{base: base{repo: repo, publisher: publisher, cache: cache, logger: logger}}
}

// Handle executes the rename command
func (h *RenameEventHandler) Handle(ctx context.Context, cmd commands.RenameEventCommand) error {
	id, err := valueobjects.NewEventIDFromString(cmd.EventID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	title := strings.TrimSpace(cmd.Title)

	if err := h.repo.UpdateTitle(ctx, id, title); err != nil {
		return fmt.Errorf("failed to rename event: %w", err)
	}

	h.logger.Info("Event renamed",
		zap.String("eventID", id.String()),
		zap.String("title", title),
	)

	h.afterWrite(ctx, events.NewEventRenamed(id, title, time.Now()))
	return nil
}

// DeleteEventHandler handles the DeleteEventCommand
type DeleteEventHandler struct {
	base
}

// NewDeleteEventHandler creates a new handler instance
func NewDeleteEventHandler(repo ports.EventRepository, publisher ports.EventPublisher, cache ports.Cache, logger *zap.Logger) *DeleteEventHandler {
	return &DeleteEventHandler{base: base{repo: repo, publisher: publisher, cache: cache, logger: logger}}
}

// Handle executes the delete command
func (h *DeleteEventHandler) Handle(ctx context.Context, cmd commands.DeleteEventCommand) error {
	id, err := valueobjects.NewEventIDFromString(cmd.EventID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	h.logger.Info("Event deleted", zap.String("eventID", id.String()))

	h.afterWrite(ctx, events.NewEventDeleted(id, time.Now()))
	return nil
}
