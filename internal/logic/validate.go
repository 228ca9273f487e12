package logic

import (
	"fmt"
	"strings"

	"github.com/canvasslabs/canvass/internal/models"
)

// ValidateFlow runs the static checks over questions and their rules and
// returns issues ordered by question order, then rule order within a
// question. It is a pure function of its inputs.
func ValidateFlow(questions []models.Question, version GrammarVersion) []models.ValidationIssue {
	issues := []models.ValidationIssue{}
	if len(questions) == 0 {
		return issues
	}
	ordered := sortByOrder(questions)
	position := make(map[string]int, len(ordered))
	for i, q := range ordered {
		position[q.ID] = i
	}
	incoming := inDegrees(BuildGraph(ordered))

	for i, q := range ordered {
		// In-degree heuristic: a question no edge leads to cannot be shown.
		// This is deliberately incomplete: an unconditional skip rule that
		// always jumps over a question leaves its fallthrough edge in place,
		// so the hidden question is not flagged.
		if i > 0 && incoming[q.ID] == 0 {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeUnreachableQuestion,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("question %q has no incoming flow edge", q.ID),
				QuestionID: q.ID,
			})
		}

		// First non-end target seen per condition string, for conflict checks.
		targetByCondition := map[string]string{}
		for _, rule := range q.Rules {
			issues = append(issues, validateRule(q, rule, position, targetByCondition, version)...)
		}
	}
	return issues
}

func validateRule(q models.Question, rule models.LogicRule, position map[string]int, targetByCondition map[string]string, version GrammarVersion) []models.ValidationIssue {
	var issues []models.ValidationIssue

	if rule.Action != models.ActionEnd {
		if _, ok := position[rule.TargetQuestionID]; !ok {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeMissingTarget,
				Severity:   models.SeverityError,
				Message:    fmt.Sprintf("rule targets unknown question %q", rule.TargetQuestionID),
				QuestionID: q.ID,
				RuleID:     rule.ID,
				TargetID:   rule.TargetQuestionID,
			})
		} else if position[rule.TargetQuestionID] < position[q.ID] {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeBackwardsJump,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("rule jumps backwards to %q, which may loop", rule.TargetQuestionID),
				QuestionID: q.ID,
				RuleID:     rule.ID,
				TargetID:   rule.TargetQuestionID,
			})
		}

		cond := strings.TrimSpace(rule.Condition)
		if prev, seen := targetByCondition[cond]; seen && prev != rule.TargetQuestionID {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeConflictingRules,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("rules with identical conditions target both %q and %q", prev, rule.TargetQuestionID),
				QuestionID: q.ID,
				RuleID:     rule.ID,
				TargetID:   rule.TargetQuestionID,
			})
		} else if !seen {
			targetByCondition[cond] = rule.TargetQuestionID
		}
	}

	if cond := strings.TrimSpace(rule.Condition); cond != "" && HasInvalid(Parse(cond, version)) {
		issues = append(issues, models.ValidationIssue{
			Code:       models.CodeMalformedCondition,
			Severity:   models.SeverityWarning,
			Message:    fmt.Sprintf("condition %q does not parse and will never fire", cond),
			QuestionID: q.ID,
			RuleID:     rule.ID,
		})
	}
	return issues
}

func inDegrees(g *Graph) map[string]int {
	incoming := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.To != "" {
			incoming[e.To]++
		}
	}
	return incoming
}
