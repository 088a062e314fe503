package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/sse"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

// DiagnosisBackend is the slice of the gateway diagnoses need.
type DiagnosisBackend interface {
	ListDiagnoses(ctx context.Context, token string) ([]domain.DiagnosisEntry, error)
	CreateDiagnosis(ctx context.Context, token string, d domain.DiagnosisEntry) (domain.DiagnosisEntry, error)
	UpdateDiagnosis(ctx context.Context, token, id string, d domain.DiagnosisEntry) (domain.DiagnosisEntry, error)
	DeleteDiagnosis(ctx context.Context, token, id string) error
}

// DiagnosisService manages the user's diagnosis templates.
type DiagnosisService struct {
	backend  DiagnosisBackend
	notifier Notifier
	log      logger.Logger
}

// NewDiagnosisService wires a DiagnosisService.
func NewDiagnosisService(backend DiagnosisBackend, notifier Notifier, log logger.Logger) *DiagnosisService {
	return &DiagnosisService{backend: backend, notifier: orNop(notifier), log: orNopLogger(log)}
}

// List returns every diagnosis visible to the token.
func (s *DiagnosisService) List(ctx context.Context, token string) ([]domain.DiagnosisEntry, error) {
	return s.backend.ListDiagnoses(ctx, token)
}

// Create validates draft, stamps the session's user and stores it.
func (s *DiagnosisService) Create(ctx context.Context, sess session.Session, draft domain.DiagnosisEntry) (domain.DiagnosisEntry, error) {
	if err := validateDiagnosis(draft); err != nil {
		return domain.DiagnosisEntry{}, err
	}
	draft.UserID = sess.UserID

	created, err := s.backend.CreateDiagnosis(ctx, sess.Token, draft)
	s.report(sess.UserID, "create", "Diagnosis created", err)
	return created, err
}

// Update validates draft and replaces diagnosis id.
func (s *DiagnosisService) Update(ctx context.Context, sess session.Session, id string, draft domain.DiagnosisEntry) (domain.DiagnosisEntry, error) {
	if err := validateDiagnosis(draft); err != nil {
		return domain.DiagnosisEntry{}, err
	}
	draft.ID = id
	draft.UserID = sess.UserID

	updated, err := s.backend.UpdateDiagnosis(ctx, sess.Token, id, draft)
	s.report(sess.UserID, "update", "Diagnosis updated", err)
	return updated, err
}

// Delete removes diagnosis id.
func (s *DiagnosisService) Delete(ctx context.Context, sess session.Session, id string) error {
	err := s.backend.DeleteDiagnosis(ctx, sess.Token, id)
	s.report(sess.UserID, "delete", "Diagnosis deleted", err)
	return err
}

func (s *DiagnosisService) report(userID, verb, success string, err error) {
	if err != nil {
		s.log.Error("Diagnosis write failed",
			logger.String("user_id", userID),
			logger.String("operation", verb),
			logger.Error(err),
		)
		s.notifier.Notify(userID, sse.LevelError, "Failed to "+verb+" diagnosis")
		return
	}
	s.notifier.Notify(userID, sse.LevelSuccess, success)
}

func validateDiagnosis(d domain.DiagnosisEntry) error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.ICDCode) == "" {
		missing = append(missing, "icd_code")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}
