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

// ValidateRequestTitle checks a help request title
func ValidateRequestTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > 200 {
		return ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return nil
}

// ValidateStartTime checks that a request start time is in the future
func ValidateStartTime(startAt, now time.Time) error {
	if startAt.IsZero() {
		return ValidationError{Field: "startAt", Message: "start time is required"}
	}
	if !startAt.After(now) {
		return ValidationError{Field: "startAt", Message: "start time must be in the future"}
	}
	return nil
}

// ValidateTimeRange checks that an optional end time follows the start time
func ValidateTimeRange(startAt time.Time, endAt *time.Time) error {
	if endAt != nil && !endAt.After(startAt) {
		return ValidationError{Field: "endAt", Message: "end time must be after start time"}
	}
	return nil
}

// ValidateMessageBody checks a thread message body
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ValidationError{Field: "body", Message: "message body is required"}
	}
	if len(body) > 2000 {
		return ValidationError{Field: "body", Message: "message must be at most 2000 characters"}
	}
	return nil
}
