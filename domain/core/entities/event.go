package entities

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"tripgraph/domain/config"
	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// Event is one stop or activity on a trip timeline
type Event struct {
	id          valueobjects.EventID
	title       string
	description string
	position    valueobjects.Position
	color       valueobjects.Color
	createdAt   time.Time
}

// EventDraft carries the caller-supplied fields of a new event.
// ID is empty for client-created events until the store assigns one.
type EventDraft struct {
	ID          string
	Title       string
	Description string
	Position    *valueobjects.Position
	Color       string
	CreatedAt   time.Time
}

// NewEvent creates an event with full business rule validation
func NewEvent(
	id valueobjects.EventID,
	title, description string,
	position valueobjects.Position,
	color valueobjects.Color,
	createdAt time.Time,
	cfg *config.DomainConfig,
) (*Event, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("event id cannot be empty")
	}
	title, err := normalizeTitle(title, cfg)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(description) > cfg.MaxDescriptionLength {
		return nil, pkgerrors.NewValidationError("description too long").
			WithDetails(map[string]interface{}{"max": cfg.MaxDescriptionLength})
	}
	if !color.IsValid() {
		return nil, pkgerrors.NewValidationError("color must match #rrggbb")
	}
	if createdAt.IsZero() {
		return nil, pkgerrors.NewValidationError("createdAt is required")
	}

	return &Event{
		id:          id,
		title:       title,
		description: description,
		position:    position,
		color:       color,
		createdAt:   createdAt.UTC(),
	}, nil
}

// ReconstructEvent rebuilds an event from stored data without validation.
// Stored records are displayed as-is even when a field is malformed.
func ReconstructEvent(
	id valueobjects.EventID,
	title, description string,
	position valueobjects.Position,
	color valueobjects.Color,
	createdAt time.Time,
) *Event {
	return &Event{
		id:          id,
		title:       title,
		description: description,
		position:    position,
		color:       color,
		createdAt:   createdAt,
	}
}

// ID returns the event's identifier
func (e *Event) ID() valueobjects.EventID { return e.id }

// Title returns the event's title
func (e *Event) Title() string { return e.title }

// Description returns the free-form description
func (e *Event) Description() string { return e.description }

// Position returns the canvas position
func (e *Event) Position() valueobjects.Position { return e.position }

// Color returns the display color
func (e *Event) Color() valueobjects.Color { return e.color }

// CreatedAt returns the creation timestamp
func (e *Event) CreatedAt() time.Time { return e.createdAt }

// Rename replaces the title. No other field changes.
func (e *Event) Rename(title string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	normalized, err := normalizeTitle(title, cfg)
	if err != nil {
		return err
	}
	e.title = normalized
	return nil
}

// WithID returns a copy of the event carrying a different id
func (e *Event) WithID(id valueobjects.EventID) *Event {
	clone := *e
	clone.id = id
	return &clone
}

// Clone returns a copy that shares no state with e
func (e *Event) Clone() *Event {
	clone := *e
	return &clone
}

func normalizeTitle(title string, cfg *config.DomainConfig) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", pkgerrors.NewValidationError("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > cfg.MaxTitleLength {
		return "", pkgerrors.NewValidationError("title too long").
			WithDetails(map[string]interface{}{"max": cfg.MaxTitleLength})
	}
	return title, nil
}

// eventJSON is the wire shape shared by the CRUD API and the planner
type eventJSON struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Position    valueobjects.Position `json:"position"`
	Color       string                `json:"color"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// MarshalJSON implements json.Marshaler
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:          e.id.String(),
		Title:       e.title,
		Description: e.description,
		Position:    e.position,
		Color:       e.color.String(),
		CreatedAt:   e.createdAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Values pass through unchecked.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := valueobjects.NewEventIDFromString(raw.ID)
	if err != nil {
		return err
	}
	*e = *ReconstructEvent(id, raw.Title, raw.Description, raw.Position, valueobjects.Color(raw.Color), raw.CreatedAt)
	return nil
}

// SortByCreation orders events by createdAt ascending, ties broken by id
func SortByCreation(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].createdAt, events[j].createdAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return events[i].id.String() < events[j].id.String()
	})
}
