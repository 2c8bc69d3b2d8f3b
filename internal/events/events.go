// Package events publishes view and research events to the message bus.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// Event topics.
const (
	TopicSessionChosen     = "history.session.chosen"
	TopicSessionClosed     = "history.session.closed"
	TopicGateChanged       = "history.gate.changed"
	TopicNotify            = "history.notify"
	TopicResearchCreated   = "history.research.created"
	TopicEnterpriseInquiry = "history.enterprise.inquiry"

	// TopicAll matches every history topic.
	TopicAll = "history.>"
)

// View events carry the ID of the view that emitted them.

type SessionChosen struct {
	ViewID  string        `json:"view_id"`
	Session model.Session `json:"session"`
}

type SessionClosed struct {
	ViewID string `json:"view_id"`
}

type GateChanged struct {
	ViewID  string          `json:"view_id"`
	State   model.GateState `json:"state"`
	ResetAt *time.Time      `json:"reset_at,omitempty"`
}

// Notified carries a nil Notification when the view's notification cleared.
type Notified struct {
	ViewID       string              `json:"view_id"`
	Notification *model.Notification `json:"notification"`
}

type ResearchCreated struct {
	Task *model.ResearchTask `json:"task"`
}

// InquiryReceived is consumed by the mailer that delivers enterprise
// inquiries.
type InquiryReceived struct {
	Inquiry *model.Inquiry `json:"inquiry"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
