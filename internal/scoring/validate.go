package scoring

import (
	"fmt"
	"sort"

	"github.com/canvasslabs/canvass/internal/models"
)

const (
	bandRangeMin = 0
	bandRangeMax = 100

	// Weight imbalance thresholds, relative to the mean weight of the other
	// questions in the same category.
	imbalanceRatio = 3
	extremeRatio   = 5
)

// ValidateConfig checks band and category integrity of a scoring config
// against the scorable question set. It returns an empty slice when scoring
// is disabled. Range checks run per band group (overall bands and each
// category's bands separately), since mixing groups would report false
// overlaps.
func ValidateConfig(questions []models.Question, cfg *models.ScoreConfig) []models.ValidationIssue {
	issues := []models.ValidationIssue{}
	if cfg == nil || !cfg.Enabled {
		return issues
	}

	if len(cfg.Bands) == 0 {
		issues = append(issues, models.ValidationIssue{
			Code:     models.CodeNoBandsDefined,
			Severity: models.SeverityWarning,
			Message:  "scoring is enabled but no score bands are defined",
		})
	}

	for _, b := range cfg.Bands {
		if b.Min >= b.Max {
			issues = append(issues, models.ValidationIssue{
				Code:     models.CodeInvalidBandRange,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("band %q has min %v >= max %v", b.ID, b.Min, b.Max),
				BandID:   b.ID,
			})
		}
		if b.Min < bandRangeMin || b.Max > bandRangeMax {
			issues = append(issues, models.ValidationIssue{
				Code:     models.CodeBandOutOfRange,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("band %q exceeds the %d-%d score domain", b.ID, bandRangeMin, bandRangeMax),
				BandID:   b.ID,
			})
		}
	}

	for _, group := range bandGroups(cfg) {
		issues = append(issues, checkBandRanges(group)...)
	}

	issues = append(issues, checkCategories(questions, cfg)...)
	issues = append(issues, checkWeights(questions)...)
	return issues
}

// bandGroups splits bands by their category tag: the overall group first,
// then per-category groups in first-appearance order.
func bandGroups(cfg *models.ScoreConfig) [][]models.ScoreBand {
	byTag := map[string][]models.ScoreBand{}
	tags := []string{""}
	seen := map[string]bool{"": true}
	for _, b := range cfg.Bands {
		if !seen[b.Category] {
			seen[b.Category] = true
			tags = append(tags, b.Category)
		}
		byTag[b.Category] = append(byTag[b.Category], b)
	}
	groups := make([][]models.ScoreBand, 0, len(tags))
	for _, tag := range tags {
		if len(byTag[tag]) > 0 {
			groups = append(groups, byTag[tag])
		}
	}
	return groups
}

// checkBandRanges reports overlaps and interior gaps within one band group.
// Bands are sorted before scanning so findings are independent of input
// order: swapping two overlapping bands reports the same interval.
func checkBandRanges(bands []models.ScoreBand) []models.ValidationIssue {
	var issues []models.ValidationIssue
	sorted := make([]models.ScoreBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Min != sorted[j].Min {
			return sorted[i].Min < sorted[j].Min
		}
		if sorted[i].Max != sorted[j].Max {
			return sorted[i].Max < sorted[j].Max
		}
		return sorted[i].ID < sorted[j].ID
	})

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Min > sorted[i].Max {
				break
			}
			start := sorted[j].Min
			end := sorted[i].Max
			if sorted[j].Max < end {
				end = sorted[j].Max
			}
			issues = append(issues, models.ValidationIssue{
				Code:     models.CodeBandOverlap,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("bands %q and %q overlap between %v and %v", sorted[i].ID, sorted[j].ID, start, end),
				BandID:   sorted[j].ID,
				Range:    &models.ScoreRange{Start: start, End: end},
			})
		}
	}

	// Gap detection is interior-only: uncovered spans below the first band or
	// above the last are not reported. Bands step in whole numbers, so
	// adjacent bands meet at max+1.
	covered := sorted[0].Max
	for _, b := range sorted[1:] {
		if b.Min > covered+1 {
			issues = append(issues, models.ValidationIssue{
				Code:     models.CodeBandGap,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("no band covers scores between %v and %v", covered+1, b.Min-1),
				BandID:   b.ID,
				Range:    &models.ScoreRange{Start: covered + 1, End: b.Min - 1},
			})
		}
		if b.Max > covered {
			covered = b.Max
		}
	}
	return issues
}

func checkCategories(questions []models.Question, cfg *models.ScoreConfig) []models.ValidationIssue {
	var issues []models.ValidationIssue
	declared := map[string]bool{}
	for _, c := range cfg.Categories {
		declared[c.ID] = true
	}

	used := map[string]bool{}
	for _, q := range questions {
		if !q.Scorable {
			continue
		}
		if q.ScoringCategory == "" {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeScorableNoCategory,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("scorable question %q has no scoring category", q.ID),
				QuestionID: q.ID,
			})
		} else {
			used[q.ScoringCategory] = true
			if !declared[q.ScoringCategory] {
				issues = append(issues, models.ValidationIssue{
					Code:       models.CodeInvalidCategoryRef,
					Severity:   models.SeverityError,
					Message:    fmt.Sprintf("question %q references undeclared category %q", q.ID, q.ScoringCategory),
					QuestionID: q.ID,
					CategoryID: q.ScoringCategory,
				})
			}
		}
		family := q.Type.Family()
		if (family == models.FamilySingleSelect || family == models.FamilyMultiSelect) && len(q.OptionScores) == 0 {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeMissingOptionScores,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("scorable choice question %q has no option scores", q.ID),
				QuestionID: q.ID,
			})
		}
	}

	for _, c := range cfg.Categories {
		if !used[c.ID] {
			issues = append(issues, models.ValidationIssue{
				Code:       models.CodeUnusedCategory,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("category %q is referenced by no scorable question", c.ID),
				CategoryID: c.ID,
			})
		}
	}
	return issues
}

// checkWeights flags questions whose weight dominates their category: at
// least 3x the mean of the other weights warns, at least 5x escalates to the
// extreme code (which replaces the milder one for that question).
func checkWeights(questions []models.Question) []models.ValidationIssue {
	var issues []models.ValidationIssue
	byCategory := map[string][]*models.Question{}
	var categories []string
	for i := range questions {
		q := &questions[i]
		if !q.Scorable || q.ScoringCategory == "" {
			continue
		}
		if _, ok := byCategory[q.ScoringCategory]; !ok {
			categories = append(categories, q.ScoringCategory)
		}
		byCategory[q.ScoringCategory] = append(byCategory[q.ScoringCategory], q)
	}

	for _, cat := range categories {
		group := byCategory[cat]
		if len(group) < 2 {
			continue
		}
		var sum float64
		for _, q := range group {
			sum += q.Weight()
		}
		for _, q := range group {
			mean := (sum - q.Weight()) / float64(len(group)-1)
			if mean <= 0 {
				continue
			}
			ratio := q.Weight() / mean
			if ratio < imbalanceRatio {
				continue
			}
			code := models.CodeWeightImbalance
			if ratio >= extremeRatio {
				code = models.CodeExtremeWeightVariance
			}
			issues = append(issues, models.ValidationIssue{
				Code:       code,
				Severity:   models.SeverityWarning,
				Message:    fmt.Sprintf("question %q weight %v is %.1fx the mean of its category %q", q.ID, q.Weight(), ratio, cat),
				QuestionID: q.ID,
				CategoryID: cat,
			})
		}
	}
	return issues
}
