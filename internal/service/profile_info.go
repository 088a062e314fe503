package service

import (
	"context"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

// ProfileInfoBackend is the slice of the gateway profile info needs.
type ProfileInfoBackend interface {
	GetProfileInfo(ctx context.Context, token, userID string) (domain.ProfileInfo, error)
	UpdateProfileInfo(ctx context.Context, token, userID string, info domain.ProfileInfo) (domain.ProfileInfo, error)
}

// ProfileInfoService passes the user's account details through.
type ProfileInfoService struct {
	backend  ProfileInfoBackend
	notifier Notifier
	log      logger.Logger
}

// NewProfileInfoService wires a ProfileInfoService.
func NewProfileInfoService(backend ProfileInfoBackend, notifier Notifier, log logger.Logger) *ProfileInfoService {
	return &ProfileInfoService{backend: backend, notifier: orNop(notifier), log: orNopLogger(log)}
}

// Get fetches the caller's account details.
func (s *ProfileInfoService) Get(ctx context.Context, sess session.Session) (domain.ProfileInfo, error) {
	return s.backend.GetProfileInfo(ctx, sess.Token, sess.UserID)
}

// Update saves the caller's account details and toasts the outcome.
func (s *ProfileInfoService) Update(ctx context.Context, sess session.Session, info domain.ProfileInfo) (domain.ProfileInfo, error) {
	updated, err := s.backend.UpdateProfileInfo(ctx, sess.Token, sess.UserID, info)
	if err != nil {
		s.log.Error("Profile info update failed", logger.String("user_id", sess.UserID), logger.Error(err))
		s.notifier.Notify(sess.UserID, sse.LevelError, "Failed to update profile.")
		return nil, err
	}
	s.notifier.Notify(sess.UserID, sse.LevelSuccess, "Profile updated!")
	return updated, nil
}
