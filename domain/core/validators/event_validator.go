package validators

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"tripgraph/domain/config"
	"tripgraph/domain/core/valueobjects"
	"tripgraph/pkg/errors"
)

// EventValidator validates event fields arriving from outside the domain
type EventValidator struct {
	cfg *config.DomainConfig
}

// NewEventValidator creates a validator bound to the domain rules
func NewEventValidator(cfg *config.DomainConfig) *EventValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EventValidator{cfg: cfg}
}

// EventFields are the user-editable fields of an event
type EventFields struct {
	Title       string
	Description string
	Position    valueobjects.Position
	Color       string
}

// Validate returns a single validation error listing every bad field
func (v *EventValidator) Validate(f EventFields) error {
	problems := map[string]interface{}{}

	if msg := v.titleProblem(f.Title); msg != "" {
		problems["title"] = msg
	}
	if utf8.RuneCountInString(f.Description) > v.cfg.MaxDescriptionLength {
		problems["description"] = fmt.Sprintf("must be at most %d characters", v.cfg.MaxDescriptionLength)
	}
	if isBad(f.Position.X) || isBad(f.Position.Y) {
		problems["position"] = "coordinates must be finite numbers"
	}
	if f.Color != "" {
		if _, err := valueobjects.ParseColor(f.Color); err != nil {
			problems["color"] = "must match #rrggbb"
		}
	}

	if len(problems) > 0 {
		return errors.NewValidationError("invalid event").WithDetails(problems)
	}
	return nil
}

// ValidateTitle checks a title on its own, as sent by a rename
func (v *EventValidator) ValidateTitle(title string) error {
	if msg := v.titleProblem(title); msg != "" {
		return errors.NewValidationError("title " + msg)
	}
	return nil
}

func (v *EventValidator) titleProblem(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "is required"
	}
	if utf8.RuneCountInString(title) > v.cfg.MaxTitleLength {
		return fmt.Sprintf("must be at most %d characters", v.cfg.MaxTitleLength)
	}
	return ""
}

func isBad(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
