package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/models"
)

func csvLines(t *testing.T, b []byte) []string {
	t.Helper()
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestExportLongCSVShape(t *testing.T) {
	b, err := ExportLongCSV([]LongRow{
		{ResponseID: "r1", QuestionID: "q1", Value: "yes", SubmittedAt: "2025-06-02T09:00:00Z"},
		{ResponseID: "r1", QuestionID: "q2", Value: "a, b", SubmittedAt: "2025-06-02T09:00:00Z"},
	})
	require.NoError(t, err)
	lines := csvLines(t, b)
	require.Len(t, lines, 3)
	assert.Equal(t, "response_id,question_id,value,submitted_at", lines[0])
	// Values with commas come out quoted.
	assert.Equal(t, `r1,q2,"a, b",2025-06-02T09:00:00Z`, lines[2])
}

func TestExportWideCSVSortedColumns(t *testing.T) {
	b, err := ExportWideCSV(map[string]map[string]string{
		"r2": {"q1": "no"},
		"r1": {"q2": "5", "q1": "yes"},
	})
	require.NoError(t, err)
	lines := csvLines(t, b)
	require.Len(t, lines, 3)
	assert.Equal(t, "response_id,q1,q2", lines[0])
	assert.Equal(t, "r1,yes,5", lines[1])
	// Missing answers render as empty cells.
	assert.Equal(t, "r2,no,", lines[2])
}

func TestExportScoresCSVShape(t *testing.T) {
	b, err := ExportScoresCSV([]ScoreRow{
		{ResponseID: "r1", Total: 7.5, Max: 10, Percentage: 75, Band: "high"},
	})
	require.NoError(t, err)
	lines := csvLines(t, b)
	require.Len(t, lines, 2)
	assert.Equal(t, "response_id,total_score,max_score,percentage,band", lines[0])
	assert.Equal(t, "r1,7.5,10,75,high", lines[1])
}

func TestBuildExportFormats(t *testing.T) {
	store, resp := scoredFixture(t, models.AnswerMap{"q1": 4.0, "q2": 2.0})
	svc := NewExportService(store)

	b, name, err := svc.BuildExport("t1", resp.SurveyID, "long")
	require.NoError(t, err)
	assert.Equal(t, "responses_long.csv", name)
	lines := csvLines(t, b)
	require.Len(t, lines, 3) // header + two answers
	assert.True(t, strings.HasPrefix(lines[1], resp.ID+",q1,4,"))

	b, name, err = svc.BuildExport("t1", resp.SurveyID, "wide")
	require.NoError(t, err)
	assert.Equal(t, "responses_wide.csv", name)
	lines = csvLines(t, b)
	assert.Equal(t, "response_id,q1,q2", lines[0])
	assert.Equal(t, resp.ID+",4,2", lines[1])

	b, name, err = svc.BuildExport("t1", resp.SurveyID, "scores")
	require.NoError(t, err)
	assert.Equal(t, "responses_scores.csv", name)
	lines = csvLines(t, b)
	require.Len(t, lines, 2)
	assert.Equal(t, resp.ID+",6,10,60,high", lines[1])
}

func TestBuildExportScoresAgainstPinnedVersion(t *testing.T) {
	store, resp := scoredFixture(t, models.AnswerMap{"q1": 4.0, "q2": 2.0})

	// Add a question and republish; the old response's max stays 10.
	surveySvc := newTestSurveyService(store)
	_, err := surveySvc.AddQuestion("t1", resp.SurveyID, &models.Question{
		ID: "q9", Title: "Extra", Type: models.TypeRating, Scorable: true, ScoringCategory: "mood",
	})
	require.NoError(t, err)
	_, _, err = surveySvc.Publish("t1", resp.SurveyID, "admin")
	require.NoError(t, err)

	b, _, err := NewExportService(store).BuildExport("t1", resp.SurveyID, "scores")
	require.NoError(t, err)
	lines := csvLines(t, b)
	require.Len(t, lines, 2)
	assert.Equal(t, resp.ID+",6,10,60,high", lines[1])
}

func TestBuildExportErrors(t *testing.T) {
	store, resp := scoredFixture(t, models.AnswerMap{"q1": 4.0})
	svc := NewExportService(store)

	_, _, err := svc.BuildExport("t2", resp.SurveyID, "long")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorForbidden, se.Code)

	_, _, err = svc.BuildExport("t1", resp.SurveyID, "xml")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)

	_, _, err = svc.BuildExport("t1", "ghost", "long")
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}
