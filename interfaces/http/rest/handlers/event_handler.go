package handlers

import (
	"net/http"
	"time"

	"tripgraph/application/commands"
	"tripgraph/application/commands/bus"
	"tripgraph/application/queries"
	querybus "tripgraph/application/queries/bus"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/pkg/common"
	pkgerrors "tripgraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventHandler handles the events CRUD endpoints
type EventHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateEventRequest is a partial event record; the server assigns the id
type CreateEventRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Position    *valueobjects.Position `json:"position,omitempty"`
	Color       string                 `json:"color,omitempty"`
	CreatedAt   *time.Time             `json:"createdAt,omitempty"`
}

// UpdateEventRequest carries the only mutable field
type UpdateEventRequest struct {
	Title string `json:"title"`
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListEventsQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	events, _ := result.([]*entities.Event)
	if events == nil {
		events = []*entities.Event{}
	}
	common.RespondJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{eventID}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetEventQuery{EventID: chi.URLParam(r, "eventID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := common.DecodeJSON(r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.CreateEventCommand{
		EventID:     uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
	}
	if req.Position != nil {
		cmd.X, cmd.Y = req.Position.X, req.Position.Y
	}
	if req.CreatedAt != nil {
		cmd.CreatedAt = *req.CreatedAt
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	stored, err := h.queryBus.Ask(r.Context(), queries.GetEventQuery{EventID: cmd.EventID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Event created", zap.String("eventID", cmd.EventID))
	common.RespondJSON(w, http.StatusCreated, stored)
}

// UpdateEvent handles PUT /events/{eventID}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if err := common.DecodeJSON(r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.RenameEventCommand{
		EventID: chi.URLParam(r, "eventID"),
		Title:   req.Title,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondMessage(w, http.StatusOK, "Event updated")
}

// DeleteEvent handles DELETE /events/{eventID}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteEventCommand{EventID: chi.URLParam(r, "eventID")}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondMessage(w, http.StatusOK, "Event deleted")
}
