package handlers

import (
	"context"
	"net/http"
	"time"

	"tripgraph/domain/config"
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
	domainservices "tripgraph/domain/services"
	"tripgraph/pkg/common"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Planner is the timeline session the planner endpoints drive
type Planner interface {
	Mode() config.ChainMode
	Refresh(ctx context.Context) error
	Append(ctx context.Context, draft entities.EventDraft) (*entities.Event, error)
	Rename(ctx context.Context, id, title string) (*entities.Event, error)
	Remove(ctx context.Context, id string) error
	Connect(source, target string) (entities.Edge, error)
	Disconnect(edgeID string) error
	Events() []*entities.Event
	Graph() domainservices.RenderModel
	Pending() int
}

// TimelineHandler serves the planner's timeline endpoints
type TimelineHandler struct {
	planner Planner
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(planner Planner, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{planner: planner, errors: errorHandler, logger: logger}
}

// AppendEventRequest lets the caller override the defaults of a new event
type AppendEventRequest struct {
	ID          string                 `json:"id,omitempty"`
	Title       string                 `json:"title,omitempty" validate:"omitempty,max=200"`
	Description string                 `json:"description,omitempty" validate:"max=5000"`
	Position    *valueobjects.Position `json:"position,omitempty"`
	Color       string                 `json:"color,omitempty" validate:"omitempty,rgbhex"`
	CreatedAt   *time.Time             `json:"createdAt,omitempty"`
}

// RenameEventRequest is the body of PUT /timeline/events/{id}
type RenameEventRequest struct {
	Title string `json:"title" validate:"notblank,max=200"`
}

// ConnectRequest is the body of POST /timeline/edges
type ConnectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// StatusResponse describes the session
type StatusResponse struct {
	Mode    config.ChainMode `json:"mode"`
	Events  int              `json:"events"`
	Pending int              `json:"pending"`
}

// Graph handles GET /timeline/graph
func (h *TimelineHandler) Graph(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.planner.Graph())
}

// Events handles GET /timeline/events
func (h *TimelineHandler) Events(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.planner.Events())
}

// Status handles GET /timeline/status
func (h *TimelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, StatusResponse{
		Mode:    h.planner.Mode(),
		Events:  len(h.planner.Events()),
		Pending: h.planner.Pending(),
	})
}

// AppendEvent handles POST /timeline/events
func (h *TimelineHandler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	var req AppendEventRequest
	if err := common.DecodeJSON(r, &req, true); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	draft := entities.EventDraft{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		Color:       req.Color,
	}
	if req.CreatedAt != nil {
		draft.CreatedAt = *req.CreatedAt
	}

	event, err := h.planner.Append(r.Context(), draft)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, event)
}

// RenameEvent handles PUT /timeline/events/{eventID}
func (h *TimelineHandler) RenameEvent(w http.ResponseWriter, r *http.Request) {
	var req RenameEventRequest
	if err := common.DecodeJSON(r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	event, err := h.planner.Rename(r.Context(), chi.URLParam(r, "eventID"), req.Title)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, event)
}

// RemoveEvent handles DELETE /timeline/events/{eventID}
func (h *TimelineHandler) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Remove(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Event removed")
}

// Connect handles POST /timeline/edges
func (h *TimelineHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := common.DecodeJSON(r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edge, err := h.planner.Connect(req.Source, req.Target)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, edge)
}

// Disconnect handles DELETE /timeline/edges/{edgeID}
func (h *TimelineHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Disconnect(chi.URLParam(r, "edgeID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Edge removed")
}

// Refresh handles POST /timeline/refresh
func (h *TimelineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Refresh(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.logger.Info("Timeline refreshed from store", zap.Int("events", len(h.planner.Events())))
	common.RespondJSON(w, http.StatusOK, h.planner.Graph())
}
