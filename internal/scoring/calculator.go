// Package scoring computes per-question and per-category scores, resolves
// score bands and validates scoring configuration. Like internal/logic it is
// pure: identical inputs always produce identical results.
package scoring

import (
	"strconv"
	"strings"

	"github.com/canvasslabs/canvass/internal/models"
)

// Calculate computes the scoring result for a set of answers. It returns nil
// when scoring is disabled or unconfigured; a nil result is the explicit "no
// scoring payload" signal and is distinct from an all-zero result.
func Calculate(questions []models.Question, answers models.AnswerMap, cfg *models.ScoreConfig) *models.ScoringResult {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	result := &models.ScoringResult{ByCategory: map[string]models.CategoryScore{}}
	for i := range questions {
		q := &questions[i]
		score, max := questionScore(q, answers[q.ID])
		result.TotalScore += score
		result.MaxScore += max
		if q.Scorable && q.ScoringCategory != "" && q.Type.Family() != models.FamilyUnscored {
			bucket := result.ByCategory[q.ScoringCategory]
			bucket.Score += score
			bucket.MaxScore += max
			bucket.Label = CategoryLabel(cfg.Categories, q.ScoringCategory)
			result.ByCategory[q.ScoringCategory] = bucket
		}
	}
	if result.MaxScore > 0 {
		result.Percentage = result.TotalScore / result.MaxScore * 100
	}
	return result
}

// questionScore returns the (score, max) contribution of one question.
// Non-scorable questions and types outside the scoring families contribute
// nothing; non-numeric answers to numeric-scale questions score 0.
func questionScore(q *models.Question, answer any) (float64, float64) {
	if !q.Scorable {
		return 0, 0
	}
	switch q.Type.Family() {
	case models.FamilySingleSelect:
		return singleSelectScore(q, answer)
	case models.FamilyMultiSelect:
		return multiSelectScore(q, answer)
	case models.FamilyNumericScale:
		return numericScaleScore(q, answer)
	default:
		return 0, 0
	}
}

func singleSelectScore(q *models.Question, answer any) (float64, float64) {
	w := q.Weight()
	var max float64
	for _, v := range q.OptionScores {
		if v > max {
			max = v
		}
	}
	score := q.OptionScores[scalarValue(answer)] * w
	return score, max * w
}

func multiSelectScore(q *models.Question, answer any) (float64, float64) {
	w := q.Weight()
	var max float64
	for _, v := range q.OptionScores {
		if v > 0 {
			max += v
		}
	}
	var score float64
	for _, selected := range listValues(answer) {
		score += q.OptionScores[selected]
	}
	return score * w, max * w
}

func numericScaleScore(q *models.Question, answer any) (float64, float64) {
	w := q.Weight()
	min, max := scaleBounds(q)
	span := max - min
	if span <= 0 {
		return 0, 0
	}
	raw, ok := numericValue(answer)
	if !ok {
		return 0, span * w
	}
	if q.Reversed {
		// Rating and likert raw values run 1..points, so a reversed item
		// mirrors within [1, points] (5 becomes 1 on a 5-point scale).
		// Opinion scales and sliders mirror within their declared bounds.
		rmin := min
		if q.Type == models.TypeRating || q.Type == models.TypeLikert {
			rmin = 1
		}
		raw = reverse(raw, rmin, max)
	}
	// The contribution is measured from the scale minimum, so a slider
	// running 20..80 scores 0 at 20 and 60 at 80.
	return (raw - min) * w, span * w
}

// scaleBounds returns the inclusive raw bounds of a numeric-scale question.
func scaleBounds(q *models.Question) (float64, float64) {
	switch q.Type {
	case models.TypeRating:
		points := q.RatingScale
		if points == 0 {
			points = 5
		}
		return 0, float64(points)
	case models.TypeLikert:
		points := q.LikertPoints
		if points == 0 {
			points = 5
		}
		return 0, float64(points)
	default: // opinion_scale, slider: explicit min/max span
		min, max := q.ScaleMin, q.ScaleMax
		if max == 0 && min == 0 {
			max = 10
		}
		return min, max
	}
}

// reverse mirrors a raw value within [min, max], clamping out-of-range input
// the way reverse-scored questionnaire items are conventionally handled.
func reverse(raw, min, max float64) float64 {
	if raw < min {
		raw = min
	}
	if raw > max {
		raw = max
	}
	return min + max - raw
}

func numericValue(v any) (float64, bool) {
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

func scalarValue(v any) string {
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
	default:
		return ""
	}
}

func listValues(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, scalarValue(item))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return nil
	}
}
