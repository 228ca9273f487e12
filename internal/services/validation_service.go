package services

import (
	"github.com/canvasslabs/canvass/internal/logic"
	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/scoring"
)

// ValidationStore is the read surface the validation report needs.
type ValidationStore interface {
	GetSurvey(id string) (*models.Survey, error)
	ListQuestions(surveyID string) ([]*models.Question, error)
}

// ValidationReport aggregates both validators for inline authoring warnings
// and the publish gate.
type ValidationReport struct {
	Issues     []models.ValidationIssue `json:"issues"`
	CanPublish bool                     `json:"can_publish"`
}

type ValidationService struct {
	store ValidationStore
}

func NewValidationService(store ValidationStore) *ValidationService {
	return &ValidationService{store: store}
}

// Report recomputes all validation issues for a survey. Issues are ephemeral;
// nothing here is persisted.
func (s *ValidationService) Report(tenantID, surveyID string) (*ValidationReport, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if sv.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	stored, err := s.store.ListQuestions(surveyID)
	if err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, len(stored))
	for _, q := range stored {
		questions = append(questions, *q)
	}

	issues := logic.ValidateFlow(questions, logic.GrammarVersion(sv.LogicVersion))
	issues = append(issues, scoring.ValidateConfig(questions, sv.ScoreConfig)...)
	return &ValidationReport{Issues: issues, CanPublish: models.CanPublish(issues)}, nil
}
