package commands

import (
	"time"

	"tripgraph/pkg/utils"
)

// CreateEventCommand represents the command to store a new event
type CreateEventCommand struct {
	EventID     string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Color       string    `json:"color" validate:"omitempty,rgbhex"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate validates the command
func (c CreateEventCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RenameEventCommand changes the title of a stored event
type RenameEventCommand struct {
	EventID string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"notblank,max=200"`
}

// Validate validates the command
func (c RenameEventCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteEventCommand removes a stored event
type DeleteEventCommand struct {
	EventID string `json:"id" validate:"required"`
}

// Validate validates the command
func (c DeleteEventCommand) Validate() error {
	return utils.ValidateStruct(c)
}
