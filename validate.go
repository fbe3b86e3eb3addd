package netatmo

import (
	"fmt"
	"strings"
)

// Temperature bounds accepted by the truetemperature endpoint, inclusive.
const (
	minTemperature = -50.0
	maxTemperature = 50.0
)

// validateTemperature checks that a temperature is within the accepted
// range. field names the offending parameter in the error.
func validateTemperature(value float64, field string) error {
	if value < minTemperature || value > maxTemperature {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %.1f°C and %.1f°C, got %.1f", minTemperature, maxTemperature, value),
		}
	}
	return nil
}

// validateRoomID checks that a room ID is non-blank.
func validateRoomID(roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrEmptyRoomID
	}
	return nil
}

// validateHomeID checks that a home ID is non-blank.
func validateHomeID(homeID string) error {
	if strings.TrimSpace(homeID) == "" {
		return ErrEmptyHomeID
	}
	return nil
}
