package fixtures

import (
	"time"

	"github.com/google/uuid"

	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// BaseTime is the creation time of the first built event
var BaseTime = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

// EventBuilder helps create test events with default values
type EventBuilder struct {
	id          string
	title       string
	description string
	x, y        float64
	color       string
	createdAt   time.Time
}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		id:        uuid.New().String(),
		title:     "Test Event",
		x:         50,
		y:         50,
		color:     "#336699",
		createdAt: BaseTime,
	}
}

func (b *EventBuilder) WithID(id string) *EventBuilder {
	b.id = id
	return b
}

func (b *EventBuilder) WithTitle(title string) *EventBuilder {
	b.title = title
	return b
}

func (b *EventBuilder) WithDescription(description string) *EventBuilder {
	b.description = description
	return b
}

func (b *EventBuilder) WithPosition(x, y float64) *EventBuilder {
	b.x, b.y = x, y
	return b
}

func (b *EventBuilder) WithColor(color string) *EventBuilder {
	b.color = color
	return b
}

func (b *EventBuilder) WithCreatedAt(t time.Time) *EventBuilder {
	b.createdAt = t
	return b
}

// Build returns the event without validating its fields
func (b *EventBuilder) Build() *entities.Event {
	return entities.ReconstructEvent(
		valueobjects.MustEventID(b.id),
		b.title,
		b.description,
		valueobjects.Position{X: b.x, Y: b.y},
		valueobjects.Color(b.color),
		b.createdAt,
	)
}

// Sequence builds events with the given ids, one minute and one step apart
func Sequence(ids ...string) []*entities.Event {
	out := make([]*entities.Event, len(ids))
	for i, id := range ids {
		out[i] = NewEventBuilder().
			WithID(id).
			WithTitle("Stop " + id).
			WithPosition(float64(50+150*i), 50).
			WithCreatedAt(BaseTime.Add(time.Duration(i) * time.Minute)).
			Build()
	}
	return out
}
