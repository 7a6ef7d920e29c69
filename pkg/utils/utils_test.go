package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgraph/pkg/errors"
)

type sample struct {
	Title string `validate:"notblank,max=5"`
	Color string `validate:"omitempty,rgbhex"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Title: "ok", Color: "#A0b1c2"}))

	err := ValidateStruct(sample{Title: "  ", Color: "#abc"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "color must match #rrggbb")

	err = ValidateStruct(sample{Title: "too long"})
	assert.Contains(t, err.Error(), "title must be at most 5 characters")
}

func TestTimestampRoundTrip(t *testing.T) {
	at := time.Date(2026, 7, 1, 8, 30, 0, 123000000, time.FixedZone("CEST", 2*3600))

	s := FormatTimestamp(at)
	assert.Equal(t, "2026-07-01T06:30:00.123Z", s)

	back, err := ParseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, at.Equal(back))

	plain, err := ParseTimestamp("2026-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 2026, plain.Year())
}
