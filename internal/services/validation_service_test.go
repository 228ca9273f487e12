package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/models"
)

func TestValidationReportCleanSurvey(t *testing.T) {
	store := newFakeStore()
	svc := newTestSurveyService(store)
	sv := seedSurvey(t, svc, "t1")
	_, err := svc.AddQuestion("t1", sv.ID, &models.Question{ID: "q1", Title: "Name", Type: models.TypeTextShort})
	require.NoError(t, err)

	report, err := NewValidationService(store).Report("t1", sv.ID)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
	assert.True(t, report.CanPublish)
}

func TestValidationReportAggregatesLogicAndScoring(t *testing.T) {
	store := newFakeStore()
	svc := newTestSurveyService(store)
	sv := seedSurvey(t, svc, "t1")
	q1, err := svc.AddQuestion("t1", sv.ID, &models.Question{ID: "q1", Title: "Pick", Type: models.TypeMultipleChoice,
		Options: []models.Option{{Value: "a", Label: "A"}}, Scorable: true, ScoringCategory: "missing"})
	require.NoError(t, err)
	_, err = svc.ReplaceRules("t1", sv.ID, q1.ID, []models.LogicRule{
		{Condition: `answer("q1") == "a"`, Action: models.ActionSkip, TargetQuestionID: "ghost"},
	})
	require.NoError(t, err)
	_, err = svc.SetScoreConfig("t1", sv.ID, &models.ScoreConfig{Enabled: true})
	require.NoError(t, err)

	report, err := NewValidationService(store).Report("t1", sv.ID)
	require.NoError(t, err)
	assert.False(t, report.CanPublish)

	codes := map[models.IssueCode]bool{}
	for _, issue := range report.Issues {
		codes[issue.Code] = true
	}
	assert.True(t, codes[models.CodeMissingTarget])
	assert.True(t, codes[models.CodeNoBandsDefined])
	assert.True(t, codes[models.CodeInvalidCategoryRef])
}

func TestValidationReportTenantScoped(t *testing.T) {
	store := newFakeStore()
	svc := newTestSurveyService(store)
	sv := seedSurvey(t, svc, "t1")

	_, err := NewValidationService(store).Report("t2", sv.ID)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorForbidden, se.Code)

	_, err = NewValidationService(store).Report("t1", "nope")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}
