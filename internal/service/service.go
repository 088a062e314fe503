// Package service implements the dashboard workflows on top of the backend
// gateway and per-user state. Every user-visible outcome is also pushed to
// the user as a notification.
package service

import (
	"context"
	"errors"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
)

var (
	// ErrValidation wraps form validation failures. No backend call is made.
	ErrValidation = errors.New("validation failed")
	// ErrNoProfileSelected is returned when a run has no profile to use.
	ErrNoProfileSelected = errors.New("Please select a profile and ensure you're logged in")
	// ErrAlreadyDefault is returned when a value is already the stored default.
	ErrAlreadyDefault = errors.New("value is already the default")
)

// Notifier delivers toast messages to a user.
type Notifier interface {
	Notify(userID, level, message string)
}

// NopNotifier drops every message.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string, string, string) {}

// SSENotifier publishes notifications through the event broker.
type SSENotifier struct {
	publisher sse.Publisher
	log       logger.Logger
}

// NewSSENotifier returns a notifier backed by publisher.
func NewSSENotifier(publisher sse.Publisher, log logger.Logger) *SSENotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &SSENotifier{publisher: publisher, log: log}
}

// Notify publishes without blocking. A full or stopped broker drops the message.
func (n *SSENotifier) Notify(userID, level, message string) {
	err := n.publisher.Publish(context.Background(), sse.NewNotificationEvent(userID, level, message))
	if err != nil {
		n.log.Debug("Notification dropped",
			logger.String("user_id", userID),
			logger.String("message", message),
			logger.Error(err),
		)
	}
}

func orNop(n Notifier) Notifier {
	if n == nil {
		return NopNotifier{}
	}
	return n
}

func orNopLogger(l logger.Logger) logger.Logger {
	if l == nil {
		return logger.NewNop()
	}
	return l
}
