// Package poller refreshes each logged-in user's job list on an interval.
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 10 * time.Second

// Poll outcomes reported to an Observer.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeError   = "error"
)

// ErrAlreadyRunning is returned by Start on a running poller.
var ErrAlreadyRunning = errors.New("poller is already running")

// FetchFunc loads the current jobs.
type FetchFunc func(ctx context.Context) ([]domain.Job, error)

// Sink receives results in strictly increasing generation order.
type Sink interface {
	Apply(ctx context.Context, generation uint64, jobs []domain.Job)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, generation uint64, jobs []domain.Job)

// Apply calls f.
func (f SinkFunc) Apply(ctx context.Context, generation uint64, jobs []domain.Job) {
	f(ctx, generation, jobs)
}

// Observer counts poll outcomes.
type Observer interface {
	ObservePoll(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObservePoll(string) {}

// Poller fetches on every tick in its own goroutine, so slow fetches may
// overlap. A result is applied only when its generation is newer than the
// last applied one.
type Poller struct {
	fetch    FetchFunc
	sink     Sink
	interval time.Duration
	log      logger.Logger
	observer Observer
	gen      *atomic.Uint64

	applyMu     sync.Mutex
	lastApplied uint64

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithObserver reports poll outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Poller) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithGenerations draws generation numbers from a shared counter, so a
// replacement poller never reuses numbers a previous one handed out.
func WithGenerations(counter *atomic.Uint64) Option {
	return func(p *Poller) {
		if counter != nil {
			p.gen = counter
		}
	}
}

// New creates a stopped poller.
func New(fetch FetchFunc, sink Sink, interval time.Duration, log logger.Logger, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Poller{
		fetch:    fetch,
		sink:     sink,
		interval: interval,
		log:      log,
		observer: nopObserver{},
		gen:      &atomic.Uint64{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls once immediately and then every interval until Stop or ctx ends.
func (p *Poller) Start(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}
	p.running = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
	return nil
}

// Stop cancels in-flight fetches and waits for every poll goroutine.
func (p *Poller) Stop() {
	p.runMu.Lock()
	if !p.running {
		p.runMu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.runMu.Unlock()

	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	generation := p.gen.Add(1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		jobs, err := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.observer.ObservePoll(OutcomeError)
			p.log.Warn("Job poll failed",
				logger.Uint64("generation", generation),
				logger.Error(err),
			)
			return
		}
		p.apply(ctx, generation, jobs)
	}()
}

func (p *Poller) apply(ctx context.Context, generation uint64, jobs []domain.Job) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if generation <= p.lastApplied {
		p.observer.ObservePoll(OutcomeStale)
		p.log.Debug("Discarding stale job poll",
			logger.Uint64("generation", generation),
			logger.Uint64("last_applied", p.lastApplied),
		)
		return
	}
	p.lastApplied = generation
	p.observer.ObservePoll(OutcomeApplied)
	p.sink.Apply(ctx, generation, jobs)
}
