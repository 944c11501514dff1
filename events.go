package session

import (
	"context"
	"time"
)

// EventType enumerates supported session event categories.
type EventType string

const (
	EventLoginSuccess    EventType = "session.login.success"
	EventLoginFailure    EventType = "session.login.failure"
	EventRegisterSuccess EventType = "session.register.success"
	EventRegisterFailure EventType = "session.register.failure"
	EventLogout          EventType = "session.logout"
	EventRefreshSuccess  EventType = "session.refresh.success"
	EventRefreshFailure  EventType = "session.refresh.failure"
	EventExpired         EventType = "session.expired"
	EventProfileUpdated  EventType = "session.profile.updated"
	EventRestored        EventType = "session.restored"
	EventRestoreRejected EventType = "session.restore.rejected"
)

// Event captures audit-friendly information about a session transition.
type Event struct {
	Type       EventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// EventSink consumes session events for auditing/telemetry purposes. Sinks
// run best-effort; errors are logged, never surfaced to the caller.
type EventSink interface {
	Record(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, event Event) error

// Record implements EventSink.
func (f EventSinkFunc) Record(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopEventSink struct{}

func (noopEventSink) Record(context.Context, Event) error {
	return nil
}

func normalizeEventSink(s EventSink) EventSink {
	if s == nil {
		return noopEventSink{}
	}
	return s
}
