package logic

import "github.com/canvasslabs/canvass/internal/models"

// LogicResult tells the survey player where to go after an answer. An empty
// NextQuestionID with Action end means the survey is complete.
type LogicResult struct {
	NextQuestionID string            `json:"next_question_id,omitempty"`
	Action         models.RuleAction `json:"action"`
	MatchedRule    *models.LogicRule `json:"matched_rule,omitempty"`
}

// NextQuestion picks the next question after currentID given the answers so
// far. The first rule whose condition matches wins; with no match the flow
// falls through to the next question in order. An empty currentID asks for
// the entry question.
func NextQuestion(questions []models.Question, currentID string, answers models.AnswerMap, version GrammarVersion) LogicResult {
	ordered := sortByOrder(questions)
	if len(ordered) == 0 {
		return LogicResult{Action: models.ActionEnd}
	}
	if currentID == "" {
		return LogicResult{NextQuestionID: ordered[0].ID, Action: models.ActionShow}
	}

	idx := -1
	for i, q := range ordered {
		if q.ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return LogicResult{Action: models.ActionEnd}
	}

	known := make(map[string]bool, len(ordered))
	for _, q := range ordered {
		known[q.ID] = true
	}
	for i := range ordered[idx].Rules {
		rule := ordered[idx].Rules[i]
		if !EvaluateCondition(rule.Condition, answers, version) {
			continue
		}
		if rule.Action == models.ActionEnd {
			return LogicResult{Action: models.ActionEnd, MatchedRule: &rule}
		}
		// A matching rule with a dangling target is ignored, fail-closed.
		if known[rule.TargetQuestionID] {
			return LogicResult{NextQuestionID: rule.TargetQuestionID, Action: rule.Action, MatchedRule: &rule}
		}
	}

	if idx+1 < len(ordered) {
		return LogicResult{NextQuestionID: ordered[idx+1].ID, Action: models.ActionShow}
	}
	return LogicResult{Action: models.ActionEnd}
}
