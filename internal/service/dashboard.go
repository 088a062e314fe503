package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/jobs"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

// DashboardBackend is the slice of the gateway the dashboard needs.
type DashboardBackend interface {
	ListRuns(ctx context.Context, token string) ([]domain.Run, error)
	ListJobs(ctx context.Context, token string) ([]domain.Job, error)
	RemainingRuns(ctx context.Context, token string) (domain.RemainingRuns, error)
	ListErrorLogs(ctx context.Context, token string) ([]domain.ErrorLog, error)
	ClearErrorLogs(ctx context.Context, token string) error
	CreateCheckoutSession(ctx context.Context, token string) (domain.CheckoutSession, error)
}

// DashboardService assembles the dashboard views.
type DashboardService struct {
	backend     DashboardBackend
	jobs        *state.JobsState
	presenter   *jobs.Presenter
	expansions  *state.Registry[jobs.Expansion]
	notifier    Notifier
	log         logger.Logger
	recentLimit int
	now         func() time.Time

	errMu     sync.Mutex
	errorLogs map[string][]domain.ErrorLog
	cleared   map[string]bool
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

// WithRecentLimit caps the recent-runs table.
func WithRecentLimit(n int) DashboardOption {
	return func(s *DashboardService) { s.recentLimit = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

// NewDashboardService wires a DashboardService. jobsState may be nil when no
// poller runs.
func NewDashboardService(
	backend DashboardBackend,
	jobsState *state.JobsState,
	presenter *jobs.Presenter,
	notifier Notifier,
	log logger.Logger,
	opts ...DashboardOption,
) *DashboardService {
	s := &DashboardService{
		backend:     backend,
		jobs:        jobsState,
		presenter:   presenter,
		expansions:  state.NewRegistry(jobs.NewExpansion),
		notifier:    orNop(notifier),
		log:         orNopLogger(log),
		recentLimit: analytics.DefaultRecentLimit,
		now:         time.Now,
		errorLogs:   make(map[string][]domain.ErrorLog),
		cleared:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary aggregates the user's runs over tf.
func (s *DashboardService) Summary(ctx context.Context, sess session.Session, tf analytics.Timeframe) (analytics.Dashboard, error) {
	runs, err := s.backend.ListRuns(ctx, sess.Token)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.Summary(runs, tf, s.now(), analytics.WithRecentLimit(s.recentLimit)), nil
}

// Jobs renders one page of the job list, from the poller's cache when it
// has a result and from the backend otherwise.
func (s *DashboardService) Jobs(ctx context.Context, sess session.Session, page int) (jobs.PageView, error) {
	list, err := s.currentJobs(ctx, sess)
	if err != nil {
		return jobs.PageView{}, err
	}
	return s.presenter.Page(list, page, s.expansions.For(sess.UserID)), nil
}

func (s *DashboardService) currentJobs(ctx context.Context, sess session.Session) ([]domain.Job, error) {
	if s.jobs != nil {
		if snap, ok := s.jobs.Get(sess.UserID); ok {
			return snap.Jobs, nil
		}
	}
	return s.backend.ListJobs(ctx, sess.Token)
}

// ToggleJob flips a job's expanded state and returns the new one.
func (s *DashboardService) ToggleJob(sess session.Session, jobID string) bool {
	return s.expansions.For(sess.UserID).Toggle(jobID)
}

// Remaining returns the free-tier run allowance.
func (s *DashboardService) Remaining(ctx context.Context, sess session.Session) (domain.RemainingRuns, error) {
	return s.backend.RemainingRuns(ctx, sess.Token)
}

// ErrorLogs returns the failures the user can fix. After a successful clear
// the emptied list is served until refresh is set, so the page does not
// repopulate from a backend that has not caught up.
func (s *DashboardService) ErrorLogs(ctx context.Context, sess session.Session, refresh bool) ([]domain.ErrorLog, error) {
	s.errMu.Lock()
	if !refresh && s.cleared[sess.UserID] {
		logs := slices.Clone(s.errorLogs[sess.UserID])
		s.errMu.Unlock()
		return logs, nil
	}
	s.errMu.Unlock()

	logs, err := s.backend.ListErrorLogs(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	filtered := analytics.ErrorLogs(logs)
	if filtered == nil {
		filtered = []domain.ErrorLog{}
	}

	s.errMu.Lock()
	s.errorLogs[sess.UserID] = filtered
	delete(s.cleared, sess.UserID)
	s.errMu.Unlock()
	return slices.Clone(filtered), nil
}

// ClearErrorLogs empties the visible list, then deletes on the backend. It
// returns the list the user should now see: empty on success, the previous
// list when the delete failed.
func (s *DashboardService) ClearErrorLogs(ctx context.Context, sess session.Session) ([]domain.ErrorLog, error) {
	s.errMu.Lock()
	previous, had := s.errorLogs[sess.UserID]
	s.errorLogs[sess.UserID] = []domain.ErrorLog{}
	s.errMu.Unlock()

	if err := s.backend.ClearErrorLogs(ctx, sess.Token); err != nil {
		s.errMu.Lock()
		if had {
			s.errorLogs[sess.UserID] = previous
		} else {
			delete(s.errorLogs, sess.UserID)
		}
		s.errMu.Unlock()

		s.log.Error("Clearing error logs failed", logger.String("user_id", sess.UserID), logger.Error(err))
		s.notifier.Notify(sess.UserID, sse.LevelError, "Failed to clear errors: "+err.Error())
		return slices.Clone(previous), err
	}

	s.errMu.Lock()
	s.cleared[sess.UserID] = true
	s.errMu.Unlock()
	s.notifier.Notify(sess.UserID, sse.LevelSuccess, "Error logs cleared")
	return []domain.ErrorLog{}, nil
}

// Checkout opens a hosted checkout session for the upgrade banner.
func (s *DashboardService) Checkout(ctx context.Context, sess session.Session) (domain.CheckoutSession, error) {
	return s.backend.CreateCheckoutSession(ctx, sess.Token)
}

// Forget drops userID's cached views.
func (s *DashboardService) Forget(userID string) {
	s.expansions.Drop(userID)
	s.errMu.Lock()
	delete(s.errorLogs, userID)
	delete(s.cleared, userID)
	s.errMu.Unlock()
}
