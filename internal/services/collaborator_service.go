package services

import (
	"strings"
	"time"

	"github.com/canvasslabs/canvass/internal/models"
)

type CollaboratorStore interface {
	GetSurvey(id string) (*models.Survey, error)
	FindUserByEmail(email string) (*models.User, error)
	ListCollaborators(surveyID string) ([]models.Collaborator, error)
	AddCollaborator(surveyID, userID, role string) (bool, error)
	RemoveCollaborator(surveyID, userID string) (bool, error)
	AddAudit(entry models.AuditEntry)
}

// CollaboratorService manages per-survey editor/viewer grants within a tenant.
type CollaboratorService struct {
	store CollaboratorStore
	now   func() time.Time
}

func NewCollaboratorService(store CollaboratorStore) *CollaboratorService {
	return &CollaboratorService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "viewer":
		return "viewer"
	default:
		return "editor"
	}
}

func (s *CollaboratorService) List(tenantID, surveyID string) ([]models.Collaborator, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return nil, err
	}
	return s.store.ListCollaborators(surveyID)
}

// Add grants a user in the same tenant access to the survey by email.
func (s *CollaboratorService) Add(tenantID, surveyID, email, role, actor string) (*models.Collaborator, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return nil, err
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.TenantID != tenantID {
		return nil, NewInvalidError("user not found in tenant")
	}
	role = normalizeRole(role)
	ok, err := s.store.AddCollaborator(surveyID, u.ID, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewInvalidError("unable to add collaborator")
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: actor, Action: "collab.add", Target: surveyID, Note: u.Email + ":" + role})
	return &models.Collaborator{UserID: u.ID, Email: u.Email, Role: role}, nil
}

func (s *CollaboratorService) Remove(tenantID, surveyID, userID, actor string) error {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return err
	}
	ok, err := s.store.RemoveCollaborator(surveyID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("collaborator not found")
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: actor, Action: "collab.remove", Target: surveyID, Note: userID})
	return nil
}

func (s *CollaboratorService) ownedSurvey(tenantID, surveyID string) (*models.Survey, error) {
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil || sv.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return sv, nil
}
