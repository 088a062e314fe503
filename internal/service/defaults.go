package service

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"sync"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

// DefaultsBackend is the slice of the gateway defaults need.
type DefaultsBackend interface {
	GetUserDefaults(ctx context.Context, token, userID string) (domain.UserDefaults, error)
	UpdateUserDefaults(ctx context.Context, token, userID string, values domain.UserDefaults) (domain.UserDefaults, error)
	PatchProfileDefaults(ctx context.Context, token, id string, values map[string]any) (map[string]any, error)
}

// DefaultsService reads and writes the pre-fill values of the diagnosis
// form, per user and per profile.
type DefaultsService struct {
	backend  DefaultsBackend
	notifier Notifier
	log      logger.Logger

	// The backend cannot read profile defaults back, so the last values it
	// acknowledged are kept here, keyed by user then profile.
	mu       sync.Mutex
	profiles map[string]map[string]map[string]any
}

// NewDefaultsService wires a DefaultsService.
func NewDefaultsService(backend DefaultsBackend, notifier Notifier, log logger.Logger) *DefaultsService {
	return &DefaultsService{
		backend:  backend,
		notifier: orNop(notifier),
		log:      orNopLogger(log),
		profiles: make(map[string]map[string]map[string]any),
	}
}

// Get returns the user's defaults.
func (s *DefaultsService) Get(ctx context.Context, sess session.Session) (domain.UserDefaults, error) {
	return s.backend.GetUserDefaults(ctx, sess.Token, sess.UserID)
}

// SetDefault stores value under key. It returns ErrAlreadyDefault without
// writing when the stored value is already equal.
func (s *DefaultsService) SetDefault(ctx context.Context, sess session.Session, key string, value any) (domain.UserDefaults, error) {
	current, err := s.backend.GetUserDefaults(ctx, sess.Token, sess.UserID)
	if err != nil {
		return nil, err
	}

	normalized, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if stored, ok := current[key]; ok && reflect.DeepEqual(stored, normalized) {
		return current, ErrAlreadyDefault
	}

	merged := make(domain.UserDefaults, len(current)+1)
	maps.Copy(merged, current)
	merged[key] = normalized

	updated, err := s.backend.UpdateUserDefaults(ctx, sess.Token, sess.UserID, merged)
	if err != nil {
		s.log.Error("Default update failed", logger.String("user_id", sess.UserID), logger.String("key", key), logger.Error(err))
		s.notifier.Notify(sess.UserID, sse.LevelError, "Failed to update default")
		return nil, err
	}
	s.notifier.Notify(sess.UserID, sse.LevelSuccess, "Default updated")
	return updated, nil
}

// SetProfileDefault stores value under key in profileID's defaults, with
// the same guard as SetDefault.
func (s *DefaultsService) SetProfileDefault(
	ctx context.Context,
	sess session.Session,
	profileID, key string,
	value any,
) (map[string]any, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s.mu.Lock()
	current := maps.Clone(s.profiles[sess.UserID][profileID])
	s.mu.Unlock()

	if stored, ok := current[key]; ok && reflect.DeepEqual(stored, normalized) {
		return current, ErrAlreadyDefault
	}
	if current == nil {
		current = make(map[string]any, 1)
	}
	current[key] = normalized

	updated, err := s.backend.PatchProfileDefaults(ctx, sess.Token, profileID, current)
	if err != nil {
		s.log.Error("Profile default update failed",
			logger.String("user_id", sess.UserID),
			logger.String("profile_id", profileID),
			logger.Error(err),
		)
		s.notifier.Notify(sess.UserID, sse.LevelError, "Failed to update profile default")
		return nil, err
	}
	if updated == nil {
		updated = current
	}

	s.mu.Lock()
	if s.profiles[sess.UserID] == nil {
		s.profiles[sess.UserID] = make(map[string]map[string]any)
	}
	s.profiles[sess.UserID][profileID] = updated
	s.mu.Unlock()

	s.notifier.Notify(sess.UserID, sse.LevelSuccess, "Profile default updated")
	return maps.Clone(updated), nil
}

// Forget drops cached profile defaults for userID.
func (s *DefaultsService) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
}

// normalize gives value the shape it has after a JSON round trip, so it
// compares equal to values decoded from the backend.
func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
