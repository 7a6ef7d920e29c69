package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// EventID is a value object representing an event identifier.
// Ids are opaque: remote ids are UUIDs, provisional ids are "local-N".
type EventID struct {
	value string
}

// NewEventID creates a new random EventID
func NewEventID() EventID {
	return EventID{value: uuid.New().String()}
}

// NewEventIDFromString creates an EventID from an existing string
func NewEventIDFromString(id string) (EventID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return EventID{}, errors.New("event ID cannot be empty")
	}
	return EventID{value: id}, nil
}

// MustEventID panics on an empty id; used by fixtures
func MustEventID(id string) EventID {
	eid, err := NewEventIDFromString(id)
	if err != nil {
		panic(err)
	}
	return eid
}

// String returns the string representation of the EventID
func (id EventID) String() string {
	return id.value
}

// Equals checks if two EventIDs are equal
func (id EventID) Equals(other EventID) bool {
	return id.value == other.value
}

// IsZero checks if the EventID is the zero value
func (id EventID) IsZero() bool {
	return id.value == ""
}

// HasPrefix reports whether the id carries the given prefix
func (id EventID) HasPrefix(prefix string) bool {
	return strings.HasPrefix(id.value, prefix)
}

// MarshalJSON implements json.Marshaler
func (id EventID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *EventID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("EventID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
