package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

// ProfileBackend is the slice of the gateway profiles need.
type ProfileBackend interface {
	ListProfiles(ctx context.Context, token string) ([]domain.AutomationProfile, error)
	CreateProfile(ctx context.Context, token string, p domain.AutomationProfile) (domain.AutomationProfile, error)
	UpdateProfile(ctx context.Context, token, id string, fields map[string]any) (domain.AutomationProfile, error)
	DeleteProfile(ctx context.Context, token, id string) error
	TriggerRun(ctx context.Context, token, profileID string) (domain.RunTriggerResult, error)
}

// ProfileService manages automation profiles and starts runs.
type ProfileService struct {
	backend  ProfileBackend
	profiles *state.Registry[state.ProfileState]
	notifier Notifier
	log      logger.Logger
}

// NewProfileService wires a ProfileService.
func NewProfileService(
	backend ProfileBackend,
	profiles *state.Registry[state.ProfileState],
	notifier Notifier,
	log logger.Logger,
) *ProfileService {
	return &ProfileService{backend: backend, profiles: profiles, notifier: orNop(notifier), log: orNopLogger(log)}
}

// List refetches the user's profiles and replaces the cached list.
func (s *ProfileService) List(ctx context.Context, sess session.Session) (*state.ProfileSnapshot, error) {
	profiles, err := s.backend.ListProfiles(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return s.profiles.For(sess.UserID).Replace(profiles), nil
}

// Create fills draft from the default distributions, stores it and reports
// on its weights. Unbalanced weights are logged, not rejected.
func (s *ProfileService) Create(
	ctx context.Context,
	sess session.Session,
	draft domain.AutomationProfile,
) (domain.AutomationProfile, domain.WeightReport, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return domain.AutomationProfile{}, domain.WeightReport{}, fmt.Errorf("%w: name required", ErrValidation)
	}

	p := MergeProfileDefaults(draft)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.UserID = sess.UserID

	report := domain.ValidateWeights(p)
	if !report.Balanced {
		s.log.Warn("Profile weights do not sum to 100",
			logger.String("user_id", sess.UserID),
			logger.String("profile", p.Name),
			logger.Strings("distributions", report.Unbalanced()),
		)
	}

	created, err := s.backend.CreateProfile(ctx, sess.Token, p)
	s.report(sess.UserID, "create", "Profile created", err)
	if err != nil {
		return domain.AutomationProfile{}, report, err
	}
	if created.ID == "" {
		created = p
	}
	s.profiles.For(sess.UserID).Add(created)
	return created, report, nil
}

// MergeProfileDefaults lays draft over the default distributions. Gender,
// race and complexity always come from the defaults; the other
// distributions only when draft leaves them empty.
func MergeProfileDefaults(draft domain.AutomationProfile) domain.AutomationProfile {
	p := draft
	p.Gender = domain.DefaultGender()
	p.Race = domain.DefaultRace()
	p.Complexity = domain.DefaultComplexity()

	if len(p.AgeRanges) == 0 {
		p.AgeRanges = domain.DefaultAgeRanges()
	}
	if len(p.StudentFunctionWeights) == 0 {
		p.StudentFunctionWeights = domain.DefaultStudentFunctions()
	}
	if len(p.DurationOptions) == 0 && len(p.DurationWeights) == 0 {
		p.DurationOptions, p.DurationWeights = domain.DefaultDurations()
	}
	if p.MaxDiagnoses == 0 {
		p.MaxDiagnoses = domain.DefaultMaxDiagnoses
	}
	if p.SiteLocation == "" {
		p.SiteLocation = domain.DefaultSiteLocation
	}
	if p.Diagnoses == nil {
		p.Diagnoses = []domain.DiagnosisEntry{}
	}
	return p
}

// Update patches the given fields of profile id and refreshes the cached copy.
func (s *ProfileService) Update(
	ctx context.Context,
	sess session.Session,
	id string,
	fields map[string]any,
) (domain.AutomationProfile, error) {
	if len(fields) == 0 {
		return domain.AutomationProfile{}, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if name, ok := fields["name"].(string); ok && strings.TrimSpace(name) == "" {
		return domain.AutomationProfile{}, fmt.Errorf("%w: name required", ErrValidation)
	}

	updated, err := s.backend.UpdateProfile(ctx, sess.Token, id, fields)
	s.report(sess.UserID, "update", "Profile updated!", err)
	if err != nil {
		return domain.AutomationProfile{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	s.profiles.For(sess.UserID).Put(updated)
	return updated, nil
}

// Delete removes profile id; the selection is cleared if it pointed there.
func (s *ProfileService) Delete(ctx context.Context, sess session.Session, id string) (*state.ProfileSnapshot, error) {
	err := s.backend.DeleteProfile(ctx, sess.Token, id)
	s.report(sess.UserID, "delete", "Profile deleted", err)
	if err != nil {
		return nil, err
	}
	return s.profiles.For(sess.UserID).Remove(id), nil
}

func (s *ProfileService) report(userID, verb, success string, err error) {
	if err != nil {
		s.log.Error("Profile write failed",
			logger.String("user_id", userID),
			logger.String("operation", verb),
			logger.Error(err),
		)
		s.notifier.Notify(userID, sse.LevelError, "Failed to "+verb+" profile.")
		return
	}
	s.notifier.Notify(userID, sse.LevelSuccess, success)
}

// Select marks profile id as the one runs use. The list is fetched first
// if it has never been loaded.
func (s *ProfileService) Select(ctx context.Context, sess session.Session, id string) (domain.AutomationProfile, error) {
	ps := s.profiles.For(sess.UserID)
	if ps.Snapshot().Len() == 0 {
		if _, err := s.List(ctx, sess); err != nil {
			return domain.AutomationProfile{}, err
		}
	}
	if _, err := ps.Select(id); err != nil {
		return domain.AutomationProfile{}, err
	}
	p, _ := ps.Selected()
	return p, nil
}

// Selected returns the selected profile.
func (s *ProfileService) Selected(sess session.Session) (domain.AutomationProfile, bool) {
	return s.profiles.For(sess.UserID).Selected()
}

// Run starts automation with profileID, or with the selected profile when
// profileID is empty.
func (s *ProfileService) Run(ctx context.Context, sess session.Session, profileID string) (domain.RunTriggerResult, error) {
	if profileID == "" {
		if p, ok := s.Selected(sess); ok {
			profileID = p.ID
		}
	}
	if profileID == "" || sess.Token == "" {
		return domain.RunTriggerResult{}, ErrNoProfileSelected
	}

	result, err := s.backend.TriggerRun(ctx, sess.Token, profileID)
	if err != nil {
		s.log.Error("Automation trigger failed",
			logger.String("user_id", sess.UserID),
			logger.String("profile_id", profileID),
			logger.Error(err),
		)
		s.notifier.Notify(sess.UserID, sse.LevelError, "Failed to start automation")
		return domain.RunTriggerResult{}, err
	}

	s.log.Info("Automation started",
		logger.String("user_id", sess.UserID),
		logger.String("profile_id", profileID),
		logger.String("task_id", result.TaskID),
	)
	s.notifier.Notify(sess.UserID, sse.LevelSuccess, "Automation started successfully!")
	return result, nil
}
