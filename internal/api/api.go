// Package api is the dashboard's HTTP surface.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	infragin "github.com/Activ8Auto/ProAutoFill/infrastructure/gin"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/jobs"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) (map[string]any, error)
}

// Sessions opens, finds and closes logged-in sessions.
type Sessions interface {
	Open(ctx context.Context, token string) (session.Session, error)
	Lookup(ctx context.Context, token string) (session.Session, error)
	Close(ctx context.Context, token string) error
}

// JobPollers starts and stops per-user job polling.
type JobPollers interface {
	Ensure(userID, token string) error
	Stop(userID string)
}

// DashboardService serves the overview, jobs and error pages.
type DashboardService interface {
	Summary(ctx context.Context, sess session.Session, tf analytics.Timeframe) (analytics.Dashboard, error)
	Jobs(ctx context.Context, sess session.Session, page int) (jobs.PageView, error)
	ToggleJob(sess session.Session, jobID string) bool
	Remaining(ctx context.Context, sess session.Session) (domain.RemainingRuns, error)
	ErrorLogs(ctx context.Context, sess session.Session, refresh bool) ([]domain.ErrorLog, error)
	ClearErrorLogs(ctx context.Context, sess session.Session) ([]domain.ErrorLog, error)
	Checkout(ctx context.Context, sess session.Session) (domain.CheckoutSession, error)
}

// ProfileService manages automation profiles and runs.
type ProfileService interface {
	List(ctx context.Context, sess session.Session) (*state.ProfileSnapshot, error)
	Create(ctx context.Context, sess session.Session, draft domain.AutomationProfile) (domain.AutomationProfile, domain.WeightReport, error)
	Update(ctx context.Context, sess session.Session, id string, fields map[string]any) (domain.AutomationProfile, error)
	Delete(ctx context.Context, sess session.Session, id string) (*state.ProfileSnapshot, error)
	Select(ctx context.Context, sess session.Session, id string) (domain.AutomationProfile, error)
	Selected(sess session.Session) (domain.AutomationProfile, bool)
	Run(ctx context.Context, sess session.Session, profileID string) (domain.RunTriggerResult, error)
}

// DiagnosisService manages diagnosis templates.
type DiagnosisService interface {
	List(ctx context.Context, token string) ([]domain.DiagnosisEntry, error)
	Create(ctx context.Context, sess session.Session, draft domain.DiagnosisEntry) (domain.DiagnosisEntry, error)
	Update(ctx context.Context, sess session.Session, id string, draft domain.DiagnosisEntry) (domain.DiagnosisEntry, error)
	Delete(ctx context.Context, sess session.Session, id string) error
}

// DefaultsService manages form defaults.
type DefaultsService interface {
	Get(ctx context.Context, sess session.Session) (domain.UserDefaults, error)
	SetDefault(ctx context.Context, sess session.Session, key string, value any) (domain.UserDefaults, error)
	SetProfileDefault(ctx context.Context, sess session.Session, profileID, key string, value any) (map[string]any, error)
}

// ProfileInfoService passes account details through.
type ProfileInfoService interface {
	Get(ctx context.Context, sess session.Session) (domain.ProfileInfo, error)
	Update(ctx context.Context, sess session.Session, info domain.ProfileInfo) (domain.ProfileInfo, error)
}

// PublicConfig is served to unauthenticated clients.
type PublicConfig struct {
	StripePublishableKey string `json:"stripe_publishable_key"`
	APIBaseURL           string `json:"api_base_url"`
}

// Deps are the collaborators of Handler. Broker and Pollers may be nil.
type Deps struct {
	Auth        Authenticator
	Sessions    Sessions
	Pollers     JobPollers
	Dashboard   DashboardService
	Profiles    ProfileService
	Diagnoses   DiagnosisService
	Defaults    DefaultsService
	ProfileInfo ProfileInfoService
	Broker      sse.Broker

	Public           PublicConfig
	DefaultTimeframe analytics.Timeframe

	// OnLogout runs after a session is closed by the user.
	OnLogout func(userID string)
}

// Handler holds every route handler.
type Handler struct {
	deps Deps
	log  logger.Logger
}

// NewHandler wires a Handler.
func NewHandler(deps Deps, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	if deps.DefaultTimeframe == "" {
		deps.DefaultTimeframe = analytics.DefaultTimeframe
	}
	return &Handler{deps: deps, log: log}
}

// Register mounts the /api/v1 routes on router.
func (h *Handler) Register(router *gin.Engine) {
	public, protected := infragin.SetupAPIRoutesWithPublic(router, SessionAuth(h.deps.Sessions, h.log))

	public.POST("/auth/login", h.Login)
	public.POST("/auth/register", h.RegisterAccount)
	public.GET("/config/public", h.PublicConfig)

	protected.POST("/auth/logout", h.Logout)

	protected.GET("/dashboard", h.Summary)
	protected.GET("/runs/remaining", h.Remaining)
	protected.GET("/jobs", h.Jobs)
	protected.POST("/jobs/:id/toggle", h.ToggleJob)
	protected.GET("/errors", h.ErrorLogs)
	protected.DELETE("/errors", h.ClearErrorLogs)

	protected.GET("/profiles", h.ListProfiles)
	protected.POST("/profiles", h.CreateProfile)
	protected.GET("/profiles/selected", h.SelectedProfile)
	protected.GET("/profiles/defaults/template", h.ProfileTemplate)
	protected.PATCH("/profiles/:id", h.UpdateProfile)
	protected.DELETE("/profiles/:id", h.DeleteProfile)
	protected.POST("/profiles/:id/select", h.SelectProfile)
	protected.POST("/profiles/:id/defaults", h.SetProfileDefault)

	protected.POST("/automation/run", h.RunAutomation)

	protected.GET("/diagnoses", h.ListDiagnoses)
	protected.POST("/diagnoses", h.CreateDiagnosis)
	protected.PUT("/diagnoses/:id", h.UpdateDiagnosis)
	protected.DELETE("/diagnoses/:id", h.DeleteDiagnosis)

	protected.GET("/defaults", h.GetDefaults)
	protected.POST("/defaults", h.SetDefault)
	protected.GET("/profile-info", h.GetProfileInfo)
	protected.PATCH("/profile-info", h.UpdateProfileInfo)

	protected.POST("/billing/checkout", h.Checkout)

	if h.deps.Broker != nil {
		protected.GET("/events", h.Events)
	}
}
