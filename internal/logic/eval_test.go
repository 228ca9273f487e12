package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canvasslabs/canvass/internal/models"
)

func TestEvaluateComparisonOperators(t *testing.T) {
	answers := models.AnswerMap{"q1": 4.0, "q2": "blue"}
	cases := []struct {
		cond string
		want bool
	}{
		{`answer("q1") == 4`, true},
		{`answer("q1") != 4`, false},
		{`answer("q1") < 5`, true},
		{`answer("q1") <= 4`, true},
		{`answer("q1") > 4`, false},
		{`answer("q1") >= 4`, true},
		{`answer("q2") == "blue"`, true},
		{`answer("q2") != "red"`, true},
		// Ordering against a non-numeric answer never fires.
		{`answer("q2") < 5`, false},
		// Numeric answer compared against a string literal.
		{`answer("q1") == "blue"`, false},
	}
	for _, c := range cases {
		t.Run(c.cond, func(t *testing.T) {
			assert.Equal(t, c.want, EvaluateCondition(c.cond, answers, GrammarV2))
		})
	}
}

func TestEvaluateNumericCoercion(t *testing.T) {
	// A numeric string answer compares numerically.
	answers := models.AnswerMap{"q1": "4"}
	assert.True(t, EvaluateCondition(`answer("q1") >= 3`, answers, GrammarV2))
	assert.True(t, EvaluateCondition(`answer("q1") == 4.0`, answers, GrammarV2))
}

func TestEvaluateMissingAnswerIsFalse(t *testing.T) {
	answers := models.AnswerMap{}
	// Silence never fires a rule, != included.
	assert.False(t, EvaluateCondition(`answer("q1") == 1`, answers, GrammarV2))
	assert.False(t, EvaluateCondition(`answer("q1") != 1`, answers, GrammarV2))
	assert.False(t, EvaluateCondition(`contains("q1","x")`, answers, GrammarV2))

	answers["q1"] = nil
	assert.False(t, EvaluateCondition(`answer("q1") != 1`, answers, GrammarV2))
}

func TestEvaluateEmptyAndMalformed(t *testing.T) {
	answers := models.AnswerMap{"q1": 1.0}
	assert.False(t, EvaluateCondition("", answers, GrammarV2))
	assert.False(t, EvaluateCondition("   ", answers, GrammarV2))
	assert.False(t, EvaluateCondition("total garbage", answers, GrammarV2))
	assert.False(t, EvaluateCondition(`answer("q1") ==`, answers, GrammarV2))
}

func TestEvaluateContains(t *testing.T) {
	answers := models.AnswerMap{
		"multi":  []any{"cats", "dogs"},
		"joined": "cats, dogs",
	}
	assert.True(t, EvaluateCondition(`contains("multi","dogs")`, answers, GrammarV2))
	assert.False(t, EvaluateCondition(`contains("multi","birds")`, answers, GrammarV2))
	// Comma-joined string answers are treated element-wise.
	assert.True(t, EvaluateCondition(`contains("joined","dogs")`, answers, GrammarV2))
}

func TestEvaluateArrayEquality(t *testing.T) {
	answers := models.AnswerMap{"multi": []any{"a", "b"}}
	// Equality compares against the comma-joined form.
	assert.True(t, EvaluateCondition(`answer("multi") == "a,b"`, answers, GrammarV2))
	// Ordering on an array answer never fires.
	assert.False(t, EvaluateCondition(`answer("multi") < 5`, answers, GrammarV2))
}

func TestEvaluatePrecedence(t *testing.T) {
	answers := models.AnswerMap{"a": 1.0, "b": 0.0, "c": 0.0}
	// a || (b && c): true because the first disjunct matches.
	assert.True(t, EvaluateCondition(
		`answer("a") == 1 || answer("b") == 1 && answer("c") == 1`, answers, GrammarV2))
	// (b && c) || a evaluated left to right gives the same result.
	assert.True(t, EvaluateCondition(
		`answer("b") == 1 && answer("c") == 1 || answer("a") == 1`, answers, GrammarV2))
}

func TestEvaluateAndShortCircuit(t *testing.T) {
	answers := models.AnswerMap{"a": 1.0, "b": 2.0}
	assert.True(t, EvaluateCondition(`answer("a") == 1 && answer("b") == 2`, answers, GrammarV2))
	assert.False(t, EvaluateCondition(`answer("a") == 1 && answer("b") == 3`, answers, GrammarV2))
	// A conjunction containing an invalid atom fails closed.
	assert.False(t, EvaluateCondition(`answer("a") == 1 && garbage`, answers, GrammarV2))
}

func TestGrammarVersionsDiverge(t *testing.T) {
	answers := models.AnswerMap{"q1": "yes"}
	// V1 keeps the quotes, so the literal `"yes"` never equals the answer.
	cond := `answer("q1") == "yes"`
	assert.True(t, EvaluateCondition(cond, answers, GrammarV2))
	assert.False(t, EvaluateCondition(cond, answers, GrammarV1))

	// V1 still handles bare literals and numbers.
	assert.True(t, EvaluateCondition(`answer("q1") == yes`, answers, GrammarV1))
	assert.True(t, EvaluateCondition(`answer("n") > 2`, models.AnswerMap{"n": 3.0}, GrammarV1))
}
