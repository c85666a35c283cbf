package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

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
	switch {
	case password == "":
		return ValidationError{Field: "password", Message: "password is required"}
	case len(password) < 8:
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	case len(password) > maxPasswordBytes:
		return ValidationError{Field: "password", Message: "password is too long"}
	}
	return nil
}

// ValidateName checks if a display name is valid. Length is counted in characters.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	n := utf8.RuneCountInString(name)
	if n < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if n > 50 {
		return ValidationError{Field: "name", Message: "name must be at most 50 characters"}
	}
	return nil
}

// ValidateReminderTime checks a 24-hour "HH:MM" clock time
func ValidateReminderTime(value string) error {
	if len(value) != len("15:04") {
		return ValidationError{Field: "reminder_time", Message: "reminder time must look like HH:MM"}
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return ValidationError{Field: "reminder_time", Message: "reminder time must look like HH:MM"}
	}
	return nil
}
