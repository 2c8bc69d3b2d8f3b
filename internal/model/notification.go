package model

import "time"

// Severity classifies a transient notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// IsValid checks whether the severity is a known value.
func (s Severity) IsValid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityInfo:
		return true
	}
	return false
}

// Notification is a transient banner message.
type Notification struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
