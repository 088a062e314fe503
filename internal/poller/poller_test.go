package poller_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/poller"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

const (
	fastInterval = 20 * time.Millisecond
	waitFor      = 2 * time.Second
	pollEvery    = 5 * time.Millisecond
)

type recordingSink struct {
	mu   sync.Mutex
	gens []uint64
}

func (s *recordingSink) Apply(_ context.Context, generation uint64, _ []domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens = append(s.gens, generation)
}

func (s *recordingSink) generations() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.gens...)
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObservePoll(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[outcome]++
}

func (o *countingObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[outcome]
}

func TestPoller_FiresImmediately(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var calls atomic.Int32
	sink := &recordingSink{}
	p := poller.New(func(context.Context) ([]domain.Job, error) {
		calls.Add(1)
		return nil, nil
	}, sink, time.Hour, nil)

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return len(sink.generations()) == 1 }, waitFor, pollEvery)
	p.Stop()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []uint64{1}, sink.generations())
}

func TestPoller_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := poller.New(func(context.Context) ([]domain.Job, error) { return nil, nil }, &recordingSink{}, time.Hour, nil)
	require.NoError(t, p.Start(context.Background()))
	require.ErrorIs(t, p.Start(context.Background()), poller.ErrAlreadyRunning)
	p.Stop()
	p.Stop()
}

func TestPoller_DiscardsStaleResults(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]domain.Job, error) {
		n := calls.Add(1)
		if n == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []domain.Job{{JobID: strconv.Itoa(int(n))}}, nil
	}

	sink := &recordingSink{}
	obs := &countingObserver{}
	p := poller.New(fetch, sink, fastInterval, nil, poller.WithObserver(obs))
	require.NoError(t, p.Start(context.Background()))

	require.Eventually(t, func() bool { return len(sink.generations()) >= 1 }, waitFor, pollEvery)
	close(release)
	require.Eventually(t, func() bool { return obs.count(poller.OutcomeStale) >= 1 }, waitFor, pollEvery)
	p.Stop()

	gens := sink.generations()
	assert.NotContains(t, gens, uint64(1))
	for i := 1; i < len(gens); i++ {
		assert.Greater(t, gens[i], gens[i-1])
	}
}

func TestPoller_ErrorsAreCountedNotApplied(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := &recordingSink{}
	obs := &countingObserver{}
	p := poller.New(func(context.Context) ([]domain.Job, error) {
		return nil, errors.New("backend down")
	}, sink, time.Hour, nil, poller.WithObserver(obs))

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return obs.count(poller.OutcomeError) == 1 }, waitFor, pollEvery)
	p.Stop()

	assert.Empty(t, sink.generations())
}

func TestPoller_StopCancelsInFlightFetch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	started := make(chan struct{}, 1)
	sink := &recordingSink{}
	p := poller.New(func(ctx context.Context) ([]domain.Job, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}, sink, time.Hour, nil)

	require.NoError(t, p.Start(context.Background()))
	<-started
	p.Stop()

	assert.Empty(t, sink.generations())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e sse.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) snapshot() []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sse.Event(nil), r.events...)
}

func TestGroup_EnsureStopAndReplace(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var mu sync.Mutex
	tokensSeen := map[string]int{}
	fetch := func(_ context.Context, token string) ([]domain.Job, error) {
		mu.Lock()
		tokensSeen[token]++
		mu.Unlock()
		return []domain.Job{{JobID: token}}, nil
	}

	jobs := state.NewJobsState()
	pub := &recordingPublisher{}
	g := poller.NewGroup(fetch, jobs, pub, time.Hour, nil, nil)

	require.NoError(t, g.Ensure("u1", "tok-a"))
	require.NoError(t, g.Ensure("u1", "tok-a"))
	assert.Equal(t, 1, g.Len())

	require.Eventually(t, func() bool {
		snap, ok := jobs.Get("u1")
		return ok && len(snap.Jobs) == 1 && snap.Jobs[0].JobID == "tok-a"
	}, waitFor, pollEvery)

	require.NoError(t, g.Ensure("u1", "tok-b"))
	require.Eventually(t, func() bool {
		snap, ok := jobs.Get("u1")
		return ok && snap.Jobs[0].JobID == "tok-b"
	}, waitFor, pollEvery)
	assert.Equal(t, 1, g.Len())

	require.NoError(t, g.Ensure("u2", "tok-c"))
	assert.Equal(t, 2, g.Len())
	g.Stop("u2")
	assert.Equal(t, 1, g.Len())

	g.StopAll()
	assert.Equal(t, 0, g.Len())

	mu.Lock()
	assert.Equal(t, 1, tokensSeen["tok-a"])
	assert.Equal(t, 1, tokensSeen["tok-b"])
	mu.Unlock()

	events := pub.snapshot()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, sse.EventTypeJobsUpdated, e.Type)
		assert.NotEmpty(t, e.UserID)
	}
}
