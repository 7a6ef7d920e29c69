package events

import (
	"time"

	"tripgraph/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// SourceEventsAPI is the source name attached to published events
const SourceEventsAPI = "tripgraph.events"

// Event types
const (
	TypeEventCreated = "event.created"
	TypeEventRenamed = "event.renamed"
	TypeEventDeleted = "event.deleted"

	TypeTimelineLoaded     = "timeline.loaded"
	TypeTimelineEventAdded = "timeline.event_added"
	TypeTimelineRenamed    = "timeline.event_renamed"
	TypeTimelineRemoved    = "timeline.event_removed"
	TypeTimelineReassigned = "timeline.event_reassigned"
	TypeTimelineEdgeAdded  = "timeline.edge_added"
	TypeTimelineEdgeRemove = "timeline.edge_removed"
)

func base(aggregateID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Store Events

// EventCreated is raised when the store persists a new event
type EventCreated struct {
	BaseEvent
	EventID valueobjects.EventID `json:"event_id"`
	Title   string               `json:"title"`
}

// NewEventCreated creates an EventCreated event
func NewEventCreated(eventID valueobjects.EventID, title string, timestamp time.Time) EventCreated {
	return EventCreated{
		BaseEvent: base(eventID.String(), TypeEventCreated, 1, timestamp),
		EventID:   eventID,
		Title:     title,
	}
}

// EventRenamed is raised when the store changes an event title
type EventRenamed struct {
	BaseEvent
	EventID  valueobjects.EventID `json:"event_id"`
	NewTitle string               `json:"new_title"`
}

// NewEventRenamed creates an EventRenamed event
func NewEventRenamed(eventID valueobjects.EventID, title string, timestamp time.Time) EventRenamed {
	return EventRenamed{
		BaseEvent: base(eventID.String(), TypeEventRenamed, 1, timestamp),
		EventID:   eventID,
		NewTitle:  title,
	}
}

// EventDeleted is raised when the store removes an event
type EventDeleted struct {
	BaseEvent
	EventID valueobjects.EventID `json:"event_id"`
}

// NewEventDeleted creates an EventDeleted event
func NewEventDeleted(eventID valueobjects.EventID, timestamp time.Time) EventDeleted {
	return EventDeleted{
		BaseEvent: base(eventID.String(), TypeEventDeleted, 1, timestamp),
		EventID:   eventID,
	}
}

// Timeline Events

// TimelineLoaded is raised when the sequence is replaced from the store
type TimelineLoaded struct {
	BaseEvent
	EventCount int `json:"event_count"`
	EdgeCount  int `json:"edge_count"`
}

// NewTimelineLoaded creates a TimelineLoaded event
func NewTimelineLoaded(timelineID string, version, events, edges int, timestamp time.Time) TimelineLoaded {
	return TimelineLoaded{
		BaseEvent:  base(timelineID, TypeTimelineLoaded, version, timestamp),
		EventCount: events,
		EdgeCount:  edges,
	}
}

// TimelineEventAdded is raised when an event is appended
type TimelineEventAdded struct {
	BaseEvent
	EventID  valueobjects.EventID  `json:"event_id"`
	Position valueobjects.Position `json:"position"`
}

// NewTimelineEventAdded creates a TimelineEventAdded event
func NewTimelineEventAdded(timelineID string, version int, eventID valueobjects.EventID, pos valueobjects.Position, timestamp time.Time) TimelineEventAdded {
	return TimelineEventAdded{
		BaseEvent: base(timelineID, TypeTimelineEventAdded, version, timestamp),
		EventID:   eventID,
		Position:  pos,
	}
}

// TimelineEventRenamed is raised when an event title changes
type TimelineEventRenamed struct {
	BaseEvent
	EventID  valueobjects.EventID `json:"event_id"`
	OldTitle string               `json:"old_title"`
	NewTitle string               `json:"new_title"`
}

// NewTimelineEventRenamed creates a TimelineEventRenamed event
func NewTimelineEventRenamed(timelineID string, version int, eventID valueobjects.EventID, oldTitle, newTitle string, timestamp time.Time) TimelineEventRenamed {
	return TimelineEventRenamed{
		BaseEvent: base(timelineID, TypeTimelineRenamed, version, timestamp),
		EventID:   eventID,
		OldTitle:  oldTitle,
		NewTitle:  newTitle,
	}
}

// TimelineEventRemoved is raised when an event leaves the sequence
type TimelineEventRemoved struct {
	BaseEvent
	EventID valueobjects.EventID `json:"event_id"`
	Index   int                  `json:"index"`
}

// NewTimelineEventRemoved creates a TimelineEventRemoved event
func NewTimelineEventRemoved(timelineID string, version int, eventID valueobjects.EventID, index int, timestamp time.Time) TimelineEventRemoved {
	return TimelineEventRemoved{
		BaseEvent: base(timelineID, TypeTimelineRemoved, version, timestamp),
		EventID:   eventID,
		Index:     index,
	}
}

// TimelineEventReassigned is raised when a provisional id is replaced
type TimelineEventReassigned struct {
	BaseEvent
	OldID valueobjects.EventID `json:"old_id"`
	NewID valueobjects.EventID `json:"new_id"`
}

// NewTimelineEventReassigned creates a TimelineEventReassigned event
func NewTimelineEventReassigned(timelineID string, version int, oldID, newID valueobjects.EventID, timestamp time.Time) TimelineEventReassigned {
	return TimelineEventReassigned{
		BaseEvent: base(timelineID, TypeTimelineReassigned, version, timestamp),
		OldID:     oldID,
		NewID:     newID,
	}
}

// TimelineEdgeAdded is raised when an edge is stored
type TimelineEdgeAdded struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
	Kind   string `json:"kind"`
}

// NewTimelineEdgeAdded creates a TimelineEdgeAdded event
func NewTimelineEdgeAdded(timelineID string, version int, edgeID, kind string, timestamp time.Time) TimelineEdgeAdded {
	return TimelineEdgeAdded{
		BaseEvent: base(timelineID, TypeTimelineEdgeAdded, version, timestamp),
		EdgeID:    edgeID,
		Kind:      kind,
	}
}

// TimelineEdgeRemoved is raised when an edge is dropped
type TimelineEdgeRemoved struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
}

// NewTimelineEdgeRemoved creates a TimelineEdgeRemoved event
func NewTimelineEdgeRemoved(timelineID string, version int, edgeID string, timestamp time.Time) TimelineEdgeRemoved {
	return TimelineEdgeRemoved{
		BaseEvent: base(timelineID, TypeTimelineEdgeRemove, version, timestamp),
		EdgeID:    edgeID,
	}
}
