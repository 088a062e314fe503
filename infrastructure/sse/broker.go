package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infralogger "github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

// ErrBrokerNotRunning is returned by Publish before Start or after Stop.
var ErrBrokerNotRunning = errors.New("sse broker not running")

type broker struct {
	logger  infralogger.Logger
	clients map[string]*client
	mu      sync.RWMutex

	publish chan Event

	runMu   sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	eventBufferSize  int
	clientBufferSize int
	shutdownTimeout  time.Duration
	maxClients       int
}

// NewBroker returns a stopped broker. Call Start before publishing.
func NewBroker(logger infralogger.Logger, opts ...BrokerOption) Broker {
	b := &broker{
		logger:           logger,
		clients:          make(map[string]*client),
		eventBufferSize:  DefaultEventBufferSize,
		clientBufferSize: DefaultClientBufferSize,
		shutdownTimeout:  DefaultShutdownTimeout,
		maxClients:       DefaultMaxClients,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.publish = make(chan Event, b.eventBufferSize)
	return b
}

// Start launches the broadcast loop. Calling it twice is a no-op.
func (b *broker) Start(ctx context.Context) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.running {
		return nil
	}

	b.ctx, b.cancel = context.WithCancel(ctx)
	b.running = true

	b.wg.Add(1)
	go b.broadcastLoop()

	b.logger.Info("SSE broker started",
		infralogger.Int("event_buffer_size", b.eventBufferSize),
		infralogger.Int("client_buffer_size", b.clientBufferSize),
		infralogger.Int("max_clients", b.maxClients),
	)
	return nil
}

// Stop disconnects every client and waits for the loop, up to the shutdown
// timeout.
func (b *broker) Stop() error {
	b.runMu.Lock()
	if !b.running {
		b.runMu.Unlock()
		return nil
	}
	b.running = false
	b.cancel()
	b.runMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("SSE broker stopped")
		return nil
	case <-time.After(b.shutdownTimeout):
		b.logger.Warn("SSE broker shutdown timeout exceeded")
		return fmt.Errorf("sse broker: shutdown exceeded %s", b.shutdownTimeout)
	}
}

func (b *broker) isRunning() bool {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	return b.running
}

func (b *broker) Publish(ctx context.Context, event Event) error {
	if !b.isRunning() {
		return ErrBrokerNotRunning
	}

	select {
	case b.publish <- event:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish cancelled: %w", ctx.Err())
	default:
		return fmt.Errorf("publish buffer full (dropped event: %s)", event.Type)
	}
}

func (b *broker) Subscribe(ctx context.Context, opts ...ClientOption) (events <-chan Event, cleanup func()) {
	clientOpts := ClientOptions{BufferSize: b.clientBufferSize}
	for _, opt := range opts {
		opt(&clientOpts)
	}

	b.mu.Lock()
	if b.maxClients > 0 && len(b.clients) >= b.maxClients {
		current := len(b.clients)
		b.mu.Unlock()

		b.logger.Warn("Max SSE clients reached, rejecting new connection",
			infralogger.Int("max_clients", b.maxClients),
			infralogger.Int("current_clients", current),
		)
		closed := make(chan Event)
		close(closed)
		return closed, func() {}
	}

	c := newClient(ctx, clientOpts)
	b.clients[c.id] = c
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Debug("Client subscribed",
		infralogger.String("client_id", c.id),
		infralogger.String("user_id", c.userID),
		infralogger.Int("total_clients", total),
	)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-c.ctx.Done()
		b.removeClient(c.id)
	}()

	return c.events, func() { b.removeClient(c.id) }
}

func (b *broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *broker) broadcastLoop() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.publish:
			b.broadcast(event)
		case <-b.ctx.Done():
			b.disconnectAllClients()
			return
		}
	}
}

func (b *broker) broadcast(event Event) {
	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	var slow []string
	for _, c := range clients {
		if !c.send(event) {
			slow = append(slow, c.id)
		}
	}

	for _, id := range slow {
		b.logger.Warn("Client buffer full, closing slow connection",
			infralogger.String("client_id", id),
			infralogger.String("event_type", event.Type),
		)
		b.removeClient(id)
	}
}

func (b *broker) removeClient(clientID string) {
	b.mu.Lock()
	c, exists := b.clients[clientID]
	delete(b.clients, clientID)
	b.mu.Unlock()

	if exists {
		c.close()
		b.logger.Debug("Client disconnected", infralogger.String("client_id", clientID))
	}
}

func (b *broker) disconnectAllClients() {
	b.mu.Lock()
	clients := b.clients
	b.clients = make(map[string]*client)
	b.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	b.logger.Info("All SSE clients disconnected", infralogger.Int("count", len(clients)))
}
