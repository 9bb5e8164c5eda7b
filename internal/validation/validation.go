package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateTitle checks if an event title is valid
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > 200 {
		return ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return nil
}

// ValidateDateKey checks if a string is a valid YYYY-MM-DD date
func ValidateDateKey(dateKey string) error {
	if dateKey == "" {
		return ValidationError{Field: "date", Message: "date is required"}
	}
	if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		return ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	return nil
}

// ValidateStartTime checks if a string is a valid HH:MM time of day
func ValidateStartTime(startTime string) error {
	if startTime == "" {
		return ValidationError{Field: "start_time", Message: "start time is required"}
	}
	if _, err := time.Parse("15:04", startTime); err != nil {
		return ValidationError{Field: "start_time", Message: "start time must be HH:MM"}
	}
	return nil
}

// ValidateCapacity checks an optional RSVP capacity
func ValidateCapacity(capacity *int) error {
	if capacity != nil && *capacity < 1 {
		return ValidationError{Field: "capacity", Message: "capacity must be at least 1"}
	}
	return nil
}

// ValidateSlotConfig checks the timeslot configuration
func ValidateSlotConfig(slotCount, slotMinutes int) error {
	if slotCount < 0 {
		return ValidationError{Field: "slot_count", Message: "slot count cannot be negative"}
	}
	if slotCount > 100 {
		return ValidationError{Field: "slot_count", Message: "slot count must be at most 100"}
	}
	if slotCount > 0 && slotMinutes < 1 {
		return ValidationError{Field: "slot_minutes", Message: "slot minutes must be at least 1"}
	}
	return nil
}
