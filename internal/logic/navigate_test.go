package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasslabs/canvass/internal/models"
)

func playerQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Order: 0, Rules: []models.LogicRule{
			{ID: "r1", Condition: `answer("q1") == "no"`, Action: models.ActionEnd},
			{ID: "r2", Condition: `answer("q1") == "expert"`, Action: models.ActionSkip, TargetQuestionID: "q3"},
		}},
		{ID: "q2", Order: 1},
		{ID: "q3", Order: 2},
	}
}

func TestNextQuestionEntry(t *testing.T) {
	res := NextQuestion(playerQuestions(), "", nil, GrammarV2)
	assert.Equal(t, "q1", res.NextQuestionID)
}

func TestNextQuestionFallthrough(t *testing.T) {
	res := NextQuestion(playerQuestions(), "q1", models.AnswerMap{"q1": "maybe"}, GrammarV2)
	assert.Equal(t, "q2", res.NextQuestionID)
	assert.Nil(t, res.MatchedRule)
}

func TestNextQuestionFirstMatchWins(t *testing.T) {
	res := NextQuestion(playerQuestions(), "q1", models.AnswerMap{"q1": "expert"}, GrammarV2)
	assert.Equal(t, "q3", res.NextQuestionID)
	assert.Equal(t, models.ActionSkip, res.Action)
	require.NotNil(t, res.MatchedRule)
	assert.Equal(t, "r2", res.MatchedRule.ID)
}

func TestNextQuestionEndRule(t *testing.T) {
	res := NextQuestion(playerQuestions(), "q1", models.AnswerMap{"q1": "no"}, GrammarV2)
	assert.Equal(t, models.ActionEnd, res.Action)
	assert.Empty(t, res.NextQuestionID)
	require.NotNil(t, res.MatchedRule)
	assert.Equal(t, "r1", res.MatchedRule.ID)
}

func TestNextQuestionLastFallsOffTheEnd(t *testing.T) {
	res := NextQuestion(playerQuestions(), "q3", models.AnswerMap{"q3": 1.0}, GrammarV2)
	assert.Equal(t, models.ActionEnd, res.Action)
	assert.Empty(t, res.NextQuestionID)
}

func TestNextQuestionDanglingTargetIgnored(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Order: 0, Rules: []models.LogicRule{
			{ID: "r1", Condition: `answer("q1") == 1`, Action: models.ActionSkip, TargetQuestionID: "deleted"},
		}},
		{ID: "q2", Order: 1},
	}
	// The matching rule points at a removed question; navigation falls through.
	res := NextQuestion(questions, "q1", models.AnswerMap{"q1": 1.0}, GrammarV2)
	assert.Equal(t, "q2", res.NextQuestionID)
	assert.Nil(t, res.MatchedRule)
}

func TestNextQuestionUnknownCurrent(t *testing.T) {
	res := NextQuestion(playerQuestions(), "ghost", nil, GrammarV2)
	assert.Equal(t, models.ActionEnd, res.Action)
}
