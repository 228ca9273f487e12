package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/models"
)

func findIssues(issues []models.ValidationIssue, code models.IssueCode) []models.ValidationIssue {
	var out []models.ValidationIssue
	for _, is := range issues {
		if is.Code == code {
			out = append(out, is)
		}
	}
	return out
}

func TestValidateConfigDisabled(t *testing.T) {
	issues := ValidateConfig(nil, nil)
	require.NotNil(t, issues)
	assert.Empty(t, issues)
	assert.Empty(t, ValidateConfig(nil, &models.ScoreConfig{Enabled: false, Bands: []models.ScoreBand{{ID: "b", Min: 50, Max: 10}}}))
}

func TestValidateConfigNoBands(t *testing.T) {
	issues := ValidateConfig(nil, &models.ScoreConfig{Enabled: true})
	found := findIssues(issues, models.CodeNoBandsDefined)
	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityWarning, found[0].Severity)
}

func TestValidateConfigInvalidBandRange(t *testing.T) {
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{
		{ID: "bad", Min: 60, Max: 40, Label: "Bad"},
	}}
	found := findIssues(ValidateConfig(nil, cfg), models.CodeInvalidBandRange)
	require.Len(t, found, 1)
	assert.Equal(t, "bad", found[0].BandID)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestValidateConfigBandOutOfRange(t *testing.T) {
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{
		{ID: "b1", Min: -5, Max: 50},
		{ID: "b2", Min: 51, Max: 120},
	}}
	found := findIssues(ValidateConfig(nil, cfg), models.CodeBandOutOfRange)
	assert.Len(t, found, 2)
}

func TestValidateConfigBandGap(t *testing.T) {
	// Bands 0-30 and 70-100 leave 31-69 uncovered.
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{
		{ID: "low", Min: 0, Max: 30, Label: "Low"},
		{ID: "high", Min: 70, Max: 100, Label: "High"},
	}}
	found := findIssues(ValidateConfig(nil, cfg), models.CodeBandGap)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].Range)
	assert.Equal(t, 31.0, found[0].Range.Start)
	assert.Equal(t, 69.0, found[0].Range.End)
	assert.Equal(t, models.SeverityError, found[0].Severity)
}

func TestValidateConfigAdjacentBandsNoGap(t *testing.T) {
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{
		{ID: "low", Min: 0, Max: 40},
		{ID: "mid", Min: 41, Max: 74},
		{ID: "high", Min: 75, Max: 100},
	}}
	issues := ValidateConfig(nil, cfg)
	assert.Empty(t, findIssues(issues, models.CodeBandGap))
	assert.Empty(t, findIssues(issues, models.CodeBandOverlap))
}

func TestValidateConfigBandOverlap(t *testing.T) {
	// Bands 0-50 and 40-70 intersect over 40-50.
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{
		{ID: "low", Min: 0, Max: 50, Label: "Low"},
		{ID: "mid", Min: 40, Max: 70, Label: "Mid"},
	}}
	found := findIssues(ValidateConfig(nil, cfg), models.CodeBandOverlap)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].Range)
	assert.Equal(t, 40.0, found[0].Range.Start)
	assert.Equal(t, 50.0, found[0].Range.End)
}

func TestValidateConfigOverlapOrderIndependent(t *testing.T) {
	a := models.ScoreBand{ID: "low", Min: 0, Max: 50}
	b := models.ScoreBand{ID: "mid", Min: 40, Max: 70}

	first := findIssues(ValidateConfig(nil, &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{a, b}}), models.CodeBandOverlap)
	second := findIssues(ValidateConfig(nil, &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{b, a}}), models.CodeBandOverlap)
	require.Len(t, first, 1)
	assert.Equal(t, first, second)
}

func TestValidateConfigBandGroupsIndependent(t *testing.T) {
	// Overall and per-category bands covering the same spans must not be
	// reported as overlapping each other.
	cfg := &models.ScoreConfig{
		Enabled:    true,
		Categories: []models.ScoreCategory{{ID: "eng", Name: "Engagement"}},
		Bands: []models.ScoreBand{
			{ID: "o-low", Min: 0, Max: 49},
			{ID: "o-high", Min: 50, Max: 100},
			{ID: "c-low", Min: 0, Max: 49, Category: "eng"},
			{ID: "c-high", Min: 50, Max: 100, Category: "eng"},
		},
	}
	questions := []models.Question{
		{ID: "q1", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng"},
	}
	issues := ValidateConfig(questions, cfg)
	assert.Empty(t, findIssues(issues, models.CodeBandOverlap))
	assert.Empty(t, findIssues(issues, models.CodeBandGap))
}

func TestValidateConfigCategoryChecks(t *testing.T) {
	cfg := &models.ScoreConfig{
		Enabled: true,
		Categories: []models.ScoreCategory{
			{ID: "used", Name: "Used"},
			{ID: "unused", Name: "Unused"},
		},
		Bands: []models.ScoreBand{{ID: "all", Min: 0, Max: 100}},
	}
	questions := []models.Question{
		{ID: "q1", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "used"},
		{ID: "q2", Type: models.TypeRating, RatingScale: 5, Scorable: true},
		{ID: "q3", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "ghost"},
	}
	issues := ValidateConfig(questions, cfg)

	unused := findIssues(issues, models.CodeUnusedCategory)
	require.Len(t, unused, 1)
	assert.Equal(t, "unused", unused[0].CategoryID)

	noCat := findIssues(issues, models.CodeScorableNoCategory)
	require.Len(t, noCat, 1)
	assert.Equal(t, "q2", noCat[0].QuestionID)

	badRef := findIssues(issues, models.CodeInvalidCategoryRef)
	require.Len(t, badRef, 1)
	assert.Equal(t, "q3", badRef[0].QuestionID)
	assert.Equal(t, "ghost", badRef[0].CategoryID)
	assert.Equal(t, models.SeverityError, badRef[0].Severity)
}

func TestValidateConfigMissingOptionScores(t *testing.T) {
	cfg := &models.ScoreConfig{Enabled: true, Bands: []models.ScoreBand{{ID: "all", Min: 0, Max: 100}}}
	questions := []models.Question{
		{ID: "q1", Type: models.TypeMultipleChoice, Scorable: true},
		{ID: "q2", Type: models.TypeCheckbox, Scorable: true, OptionScores: map[string]float64{"a": 1}},
		{ID: "q3", Type: models.TypeRating, RatingScale: 5, Scorable: true},
	}
	found := findIssues(ValidateConfig(questions, cfg), models.CodeMissingOptionScores)
	require.Len(t, found, 1)
	assert.Equal(t, "q1", found[0].QuestionID)
}

func TestValidateConfigWeightImbalance(t *testing.T) {
	cfg := &models.ScoreConfig{
		Enabled:    true,
		Categories: []models.ScoreCategory{{ID: "eng", Name: "Engagement"}},
		Bands:      []models.ScoreBand{{ID: "all", Min: 0, Max: 100}},
	}
	questions := []models.Question{
		{ID: "q1", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng", ScoreWeight: 1},
		{ID: "q2", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng", ScoreWeight: 1},
		{ID: "q3", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng", ScoreWeight: 4},
	}
	found := findIssues(ValidateConfig(questions, cfg), models.CodeWeightImbalance)
	require.Len(t, found, 1)
	assert.Equal(t, "q3", found[0].QuestionID)
}

func TestValidateConfigExtremeWeightVariance(t *testing.T) {
	cfg := &models.ScoreConfig{
		Enabled:    true,
		Categories: []models.ScoreCategory{{ID: "eng", Name: "Engagement"}},
		Bands:      []models.ScoreBand{{ID: "all", Min: 0, Max: 100}},
	}
	questions := []models.Question{
		{ID: "q1", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng", ScoreWeight: 1},
		{ID: "q2", Type: models.TypeRating, RatingScale: 5, Scorable: true, ScoringCategory: "eng", ScoreWeight: 10},
	}
	issues := ValidateConfig(questions, cfg)
	// The extreme code replaces the milder one for the dominating question.
	extreme := findIssues(issues, models.CodeExtremeWeightVariance)
	require.Len(t, extreme, 1)
	assert.Equal(t, "q2", extreme[0].QuestionID)
	for _, is := range findIssues(issues, models.CodeWeightImbalance) {
		assert.NotEqual(t, "q2", is.QuestionID)
	}
}
