package sse

import "time"

const (
	DefaultEventBufferSize   = 1000
	DefaultClientBufferSize  = 100
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultMaxClients        = 1000
)

// BrokerOption configures a broker.
type BrokerOption func(*broker)

// WithEventBufferSize sets the size of the shared publish queue.
func WithEventBufferSize(size int) BrokerOption {
	return func(b *broker) {
		if size > 0 {
			b.eventBufferSize = size
		}
	}
}

// WithClientBufferSize sets the default per-client buffer.
func WithClientBufferSize(size int) BrokerOption {
	return func(b *broker) {
		if size > 0 {
			b.clientBufferSize = size
		}
	}
}

// WithShutdownTimeout bounds Stop.
func WithShutdownTimeout(timeout time.Duration) BrokerOption {
	return func(b *broker) {
		if timeout > 0 {
			b.shutdownTimeout = timeout
		}
	}
}

// WithMaxClients caps concurrent subscriptions; zero means unlimited.
func WithMaxClients(maxClients int) BrokerOption {
	return func(b *broker) {
		b.maxClients = maxClients
	}
}

// ClientOption configures a subscription.
type ClientOption func(*ClientOptions)

// WithFilter adds an event filter.
func WithFilter(filter EventFilter) ClientOption {
	return func(opts *ClientOptions) {
		opts.Filter = filter
	}
}

// WithBufferSize overrides the client buffer.
func WithBufferSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		if size > 0 {
			opts.BufferSize = size
		}
	}
}

// WithUser restricts the subscription to untargeted events and events
// targeted at userID.
func WithUser(userID string) ClientOption {
	return func(opts *ClientOptions) {
		opts.UserID = userID
	}
}

// WithTypes passes only the listed event types.
func WithTypes(types ...string) ClientOption {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return WithFilter(func(event Event) bool {
		_, ok := allowed[event.Type]
		return ok
	})
}
