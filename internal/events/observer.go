package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

// ViewObserver publishes a view's orchestrator events. Publish failures are
// logged and dropped; the bus is best-effort.
type ViewObserver struct {
	pub     Publisher
	viewID  string
	logger  *slog.Logger
	timeout time.Duration
}

// NewViewObserver returns an observer that tags every event with viewID.
func NewViewObserver(pub Publisher, viewID string, logger *slog.Logger) *ViewObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewObserver{pub: pub, viewID: viewID, logger: logger, timeout: 2 * time.Second}
}

func (o *ViewObserver) OnLocationChosen(s model.Session) {
	o.publish(TopicSessionChosen, SessionChosen{ViewID: o.viewID, Session: s})
}

func (o *ViewObserver) OnSessionClosed() {
	o.publish(TopicSessionClosed, SessionClosed{ViewID: o.viewID})
}

func (o *ViewObserver) OnNotify(n *model.Notification) {
	o.publish(TopicNotify, Notified{ViewID: o.viewID, Notification: n})
}

func (o *ViewObserver) OnGateStateChanged(state model.GateState, resetAt *time.Time) {
	o.publish(TopicGateChanged, GateChanged{ViewID: o.viewID, State: state, ResetAt: resetAt})
}

func (o *ViewObserver) publish(topic string, event any) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.pub.Publish(ctx, topic, event); err != nil {
		o.logger.Warn("failed to publish view event", "topic", topic, "view", o.viewID, "error", err)
	}
}
