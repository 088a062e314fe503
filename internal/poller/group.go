package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

// TokenFetchFunc loads jobs with a user's access token.
type TokenFetchFunc func(ctx context.Context, token string) ([]domain.Job, error)

type member struct {
	token  string
	poller *Poller
}

// Group runs one poller per logged-in user. Results land in a JobsState and
// are announced to the user as a jobs.updated event.
type Group struct {
	fetch     TokenFetchFunc
	jobs      *state.JobsState
	publisher sse.Publisher
	interval  time.Duration
	log       logger.Logger
	observer  Observer
	gen       atomic.Uint64
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	members map[string]member
}

// NewGroup creates an empty group. publisher may be nil.
func NewGroup(
	fetch TokenFetchFunc,
	jobs *state.JobsState,
	publisher sse.Publisher,
	interval time.Duration,
	log logger.Logger,
	observer Observer,
) *Group {
	if log == nil {
		log = logger.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{
		fetch:     fetch,
		jobs:      jobs,
		publisher: publisher,
		interval:  interval,
		log:       log,
		observer:  observer,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		members:   make(map[string]member),
	}
}

// Ensure makes sure userID is polled with token. A running poller with the
// same token is left alone; one with a different token is replaced.
func (g *Group) Ensure(userID, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m, ok := g.members[userID]; ok {
		if m.token == token {
			return nil
		}
		m.poller.Stop()
		delete(g.members, userID)
	}

	p := New(
		func(ctx context.Context) ([]domain.Job, error) { return g.fetch(ctx, token) },
		g.sinkFor(userID),
		g.interval,
		g.log.With(logger.String("user_id", userID)),
		WithObserver(g.observer),
		WithGenerations(&g.gen),
	)
	if err := p.Start(g.ctx); err != nil {
		return err
	}
	g.members[userID] = member{token: token, poller: p}
	g.log.Debug("Job poller started", logger.String("user_id", userID))
	return nil
}

func (g *Group) sinkFor(userID string) Sink {
	return SinkFunc(func(ctx context.Context, generation uint64, jobs []domain.Job) {
		if !g.jobs.Apply(userID, generation, jobs, g.now()) {
			return
		}
		if g.publisher == nil {
			return
		}
		if err := g.publisher.Publish(ctx, sse.NewJobsUpdatedEvent(userID, generation, len(jobs))); err != nil {
			g.log.Debug("Jobs update not published",
				logger.String("user_id", userID),
				logger.Error(err),
			)
		}
	})
}

// Stop ends userID's poller.
func (g *Group) Stop(userID string) {
	g.mu.Lock()
	m, ok := g.members[userID]
	delete(g.members, userID)
	g.mu.Unlock()

	if ok {
		m.poller.Stop()
	}
}

// StopAll ends every poller. The group cannot be used afterwards.
func (g *Group) StopAll() {
	g.mu.Lock()
	members := g.members
	g.members = make(map[string]member)
	g.mu.Unlock()

	for _, m := range members {
		m.poller.Stop()
	}
	g.cancel()
}

// Len is the number of running pollers.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}
