// Package sse streams server-sent events to dashboard clients: toast
// notifications, job-list refreshes from the poller and session expiry.
package sse

import (
	"context"
	"time"
)

// Event is one server-sent event, written as
// "event: <Type>\nid: <ID>\ndata: <json Data>\n\n".
type Event struct {
	Type  string `json:"type"`
	Data  any    `json:"data"`
	ID    string `json:"id,omitempty"`
	Retry int    `json:"retry,omitempty"`

	// UserID targets the event at one user's subscriptions. Empty means
	// every subscriber.
	UserID string `json:"-"`
}

// Publisher sends events to the broker.
type Publisher interface {
	// Publish enqueues event without blocking. It fails when the broker is
	// not running or its buffer is full.
	Publish(ctx context.Context, event Event) error
}

// Subscriber hands out event streams.
type Subscriber interface {
	// Subscribe returns a channel closed when ctx ends, cleanup is called
	// or the broker stops.
	Subscribe(ctx context.Context, opts ...ClientOption) (events <-chan Event, cleanup func())
}

// Broker fans published events out to subscribers.
type Broker interface {
	Publisher
	Subscriber
	Start(ctx context.Context) error
	Stop() error
	ClientCount() int
}

// EventFilter reports whether a client receives event.
type EventFilter func(event Event) bool

// ClientOptions configures one subscription.
type ClientOptions struct {
	Filter     EventFilter
	BufferSize int
	UserID     string
}

// Event types.
const (
	EventTypeNotification   = "notification"
	EventTypeJobsUpdated    = "jobs.updated"
	EventTypeSessionExpired = "session.expired"

	eventTypeConnected = "connected"
)

// Notification levels, mirroring toast severities.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// NotificationData is the payload of a notification event.
type NotificationData struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// JobsUpdatedData is the payload of a jobs.updated event.
type JobsUpdatedData struct {
	Generation uint64 `json:"generation"`
	Count      int    `json:"count"`
	Timestamp  string `json:"timestamp"`
}

// SessionExpiredData tells the client to return to the login screen.
type SessionExpiredData struct {
	ExpiredAt string `json:"expired_at"`
	Redirect  string `json:"redirect"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewNotificationEvent builds a toast for userID.
func NewNotificationEvent(userID, level, message string) Event {
	return Event{
		Type:   EventTypeNotification,
		UserID: userID,
		Data: NotificationData{
			Level:     level,
			Message:   message,
			Timestamp: timestamp(),
		},
	}
}

// NewJobsUpdatedEvent announces a freshly applied poll result.
func NewJobsUpdatedEvent(userID string, generation uint64, count int) Event {
	return Event{
		Type:   EventTypeJobsUpdated,
		UserID: userID,
		Data: JobsUpdatedData{
			Generation: generation,
			Count:      count,
			Timestamp:  timestamp(),
		},
	}
}

// NewSessionExpiredEvent tells userID's clients to log in again.
func NewSessionExpiredEvent(userID string, expiredAt time.Time) Event {
	return Event{
		Type:   EventTypeSessionExpired,
		UserID: userID,
		Data: SessionExpiredData{
			ExpiredAt: expiredAt.UTC().Format(time.RFC3339),
			Redirect:  "/authentication/login",
		},
	}
}
