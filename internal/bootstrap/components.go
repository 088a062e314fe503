package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	infrahttp "github.com/Activ8Auto/ProAutoFill/infrastructure/http"
	infralogger "github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
	"github.com/Activ8Auto/ProAutoFill/internal/api"
	"github.com/Activ8Auto/ProAutoFill/internal/config"
	"github.com/Activ8Auto/ProAutoFill/internal/gateway"
	"github.com/Activ8Auto/ProAutoFill/internal/jobs"
	"github.com/Activ8Auto/ProAutoFill/internal/poller"
	"github.com/Activ8Auto/ProAutoFill/internal/service"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
	"github.com/Activ8Auto/ProAutoFill/internal/telemetry"
)

// App holds every long-lived component of the service.
type App struct {
	cfg    *config.Config
	log    infralogger.Logger
	stores *SessionStores

	Metrics  *telemetry.Metrics
	Broker   sse.Broker
	Gateway  *gateway.Client
	Sessions *session.Manager
	Profiles *state.Registry[state.ProfileState]
	Jobs     *state.JobsState
	Pollers  *poller.Group

	Dashboard   *service.DashboardService
	Profile     *service.ProfileService
	Diagnoses   *service.DiagnosisService
	Defaults    *service.DefaultsService
	ProfileInfo *service.ProfileInfoService

	Handler *api.Handler
}

// AppOption adjusts NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	registry *prometheus.Registry
}

// WithRegistry registers metrics on reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) AppOption {
	return func(o *appOptions) { o.registry = reg }
}

// NewApp builds the component graph. Nothing runs until Start.
func NewApp(cfg *config.Config, stores *SessionStores, log infralogger.Logger, opts ...AppOption) *App {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log, stores: stores}

	a.Metrics = telemetry.NewMetrics(o.registry)
	a.Broker = sse.NewBroker(log)

	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Backend.Timeout})
	a.Gateway = gateway.NewClient(cfg.Backend.BaseURL, httpClient, log, gateway.WithObserver(a.Metrics))

	a.Sessions = session.NewManager(stores.Store,
		session.WithSecret(cfg.Auth.JWTSecret),
		session.WithExpirySkew(cfg.Session.ExpirySkew),
		session.WithLogger(log),
	)

	a.Profiles = state.NewProfileRegistry()
	a.Jobs = state.NewJobsState()
	a.Pollers = poller.NewGroup(a.Gateway.ListJobs, a.Jobs, a.Broker, cfg.Poller.Interval, log, a.Metrics)

	notifier := service.NewSSENotifier(a.Broker, log)
	presenter := jobs.NewPresenter(cfg.Dashboard.JobsPageSize,
		jobs.WithPolicy(jobs.ParsePolicy(cfg.Dashboard.FinishedJobProgress)),
	)
	a.Dashboard = service.NewDashboardService(a.Gateway, a.Jobs, presenter, notifier, log,
		service.WithRecentLimit(cfg.Dashboard.RecentRunsLimit),
	)
	a.Profile = service.NewProfileService(a.Gateway, a.Profiles, notifier, log)
	a.Diagnoses = service.NewDiagnosisService(a.Gateway, notifier, log)
	a.Defaults = service.NewDefaultsService(a.Gateway, notifier, log)
	a.ProfileInfo = service.NewProfileInfoService(a.Gateway, notifier, log)

	a.Metrics.RegisterGauges(a.Sessions.Active, a.Broker.ClientCount)
	a.Sessions.OnExpire(a.endSession)

	deps := api.Deps{
		Auth:        a.Gateway,
		Sessions:    a.Sessions,
		Dashboard:   a.Dashboard,
		Profiles:    a.Profile,
		Diagnoses:   a.Diagnoses,
		Defaults:    a.Defaults,
		ProfileInfo: a.ProfileInfo,
		Broker:      a.Broker,
		Public: api.PublicConfig{
			StripePublishableKey: cfg.Backend.StripePublishableKey,
			APIBaseURL:           cfg.Backend.BaseURL,
		},
		DefaultTimeframe: analytics.Timeframe(cfg.Dashboard.DefaultTimeframe),
		OnLogout:         a.forget,
	}
	if cfg.Poller.IsEnabled() {
		deps.Pollers = a.Pollers
	}
	a.Handler = api.NewHandler(deps, log)

	return a
}

// Start runs the broker and session manager and resumes polling for
// sessions that survived a restart.
func (a *App) Start(ctx context.Context) error {
	if err := a.Broker.Start(ctx); err != nil {
		return fmt.Errorf("start sse broker: %w", err)
	}
	if err := a.Sessions.Start(ctx); err != nil {
		return fmt.Errorf("start session manager: %w", err)
	}

	if !a.cfg.Poller.IsEnabled() {
		return nil
	}
	restored, err := a.stores.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range restored {
		if ensureErr := a.Pollers.Ensure(s.UserID, s.Token); ensureErr != nil {
			a.log.Warn("Job poller not resumed",
				infralogger.String("user_id", s.UserID),
				infralogger.Error(ensureErr),
			)
		}
	}
	return nil
}

// Stop halts pollers, expiry timers and the broker, in that order.
func (a *App) Stop() {
	a.Pollers.StopAll()
	a.Sessions.Stop()
	if err := a.Broker.Stop(); err != nil {
		a.log.Warn("SSE broker stop failed", infralogger.Error(err))
	}
}

// endSession runs when a session's token expires.
func (a *App) endSession(s session.Session) {
	a.Pollers.Stop(s.UserID)
	a.forget(s.UserID)

	if err := a.Broker.Publish(context.Background(), sse.NewSessionExpiredEvent(s.UserID, s.ExpiresAt)); err != nil {
		a.log.Debug("Session expiry not delivered",
			infralogger.String("user_id", s.UserID),
			infralogger.Error(err),
		)
	}
}

// forget drops every cached view of userID.
func (a *App) forget(userID string) {
	a.Profiles.Drop(userID)
	a.Jobs.Drop(userID)
	a.Dashboard.Forget(userID)
	a.Defaults.Forget(userID)
}
