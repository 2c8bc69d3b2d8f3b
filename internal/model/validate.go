package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// ValidateLocation checks that a location has a name and coordinates on the globe.
// The gate orchestrator never calls this; locations are validated where research
// tasks are created.
func ValidateLocation(l Location) error {
	var ve ValidationError
	validateLocation(&ve, "", l)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validateLocation(ve *ValidationError, prefix string, l Location) {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		ve.add(prefix+"name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add(prefix+"name", "must be 200 characters or fewer")
	}
	if l.Lat < -90 || l.Lat > 90 {
		ve.add(prefix+"lat", fmt.Sprintf("must be between -90 and 90, got %g", l.Lat))
	}
	if l.Lng < -180 || l.Lng > 180 {
		ve.add(prefix+"lng", fmt.Sprintf("must be between -180 and 180, got %g", l.Lng))
	}
}

// ValidateTask checks a ResearchTask before it is stored.
func ValidateTask(t *ResearchTask) error {
	var ve ValidationError
	if strings.TrimSpace(t.Token) == "" {
		ve.add("token", "is required")
	}
	validateLocation(&ve, "location_", t.Location())
	if !t.Status.IsValid() {
		ve.add("status", fmt.Sprintf("invalid value %q", t.Status))
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateInquiry checks that the required inquiry fields are present and the
// contact email is well formed.
func ValidateInquiry(q *Inquiry) error {
	var ve ValidationError
	for _, f := range []struct {
		name  string
		value string
	}{
		{"company_name", q.CompanyName},
		{"contact_name", q.ContactName},
		{"contact_email", q.ContactEmail},
		{"job_title", q.JobTitle},
		{"use_case", q.UseCase},
	} {
		if strings.TrimSpace(f.value) == "" {
			ve.add(f.name, "is required")
		}
	}
	if q.ContactEmail != "" && !emailPattern.MatchString(q.ContactEmail) {
		ve.add("contact_email", "invalid email format")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
