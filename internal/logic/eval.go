package logic

import (
	"strconv"
	"strings"

	"github.com/canvasslabs/canvass/internal/models"
)

// EvaluateCondition parses and evaluates a condition against the answers.
// An empty or unparsable condition evaluates to false; this function never
// panics regardless of input.
func EvaluateCondition(condition string, answers models.AnswerMap, version GrammarVersion) bool {
	return Evaluate(Parse(condition, version), answers)
}

// Evaluate walks the expression tree against the answer map.
func Evaluate(e Expr, answers models.AnswerMap) bool {
	switch n := e.(type) {
	case Comparison:
		return evalComparison(n, answers)
	case Contains:
		return evalContains(n, answers)
	case AndGroup:
		for _, t := range n.Terms {
			if !Evaluate(t, answers) {
				return false
			}
		}
		return len(n.Terms) > 0
	case OrGroup:
		for _, g := range n.Groups {
			if Evaluate(g, answers) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evalComparison(c Comparison, answers models.AnswerMap) bool {
	ans, ok := answers[c.QuestionID]
	if !ok || ans == nil {
		// No answer on record: the rule never fires, != included.
		return false
	}
	num, isNum := answerNumber(ans)
	switch c.Op {
	case OpLt, OpLe, OpGt, OpGe:
		// Ordering requires numeric operands on both sides.
		if !isNum || !c.Value.Numeric {
			return false
		}
		switch c.Op {
		case OpLt:
			return num < c.Value.Num
		case OpLe:
			return num <= c.Value.Num
		case OpGt:
			return num > c.Value.Num
		default:
			return num >= c.Value.Num
		}
	case OpEq, OpNe:
		var equal bool
		if isNum && c.Value.Numeric {
			equal = num == c.Value.Num
		} else {
			equal = answerString(ans) == c.Value.Raw
		}
		if c.Op == OpNe {
			return !equal
		}
		return equal
	default:
		return false
	}
}

func evalContains(c Contains, answers models.AnswerMap) bool {
	ans, ok := answers[c.QuestionID]
	if !ok || ans == nil {
		return false
	}
	for _, item := range answerList(ans) {
		if item == c.Value {
			return true
		}
	}
	return false
}

// answerNumber coerces a scalar answer to a number. Arrays and non-numeric
// strings are not numbers.
func answerNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// answerString renders an answer as a string; array answers join on commas.
func answerString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, answerString(item))
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// answerList renders an answer as its element list: arrays element-wise,
// scalar strings split on commas.
func answerList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, answerString(item))
		}
		return out
	default:
		s := answerString(v)
		if s == "" {
			return nil
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
}
