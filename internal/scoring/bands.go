package scoring

import (
	"strings"
	"unicode"

	"github.com/canvasslabs/canvass/internal/models"
)

// ResolveBand returns the first band whose inclusive [min, max] range covers
// the percentage, or nil when no band matches or none are supplied.
func ResolveBand(percentage float64, bands []models.ScoreBand) *models.ScoreBand {
	for i := range bands {
		if percentage >= bands[i].Min && percentage <= bands[i].Max {
			b := bands[i]
			return &b
		}
	}
	return nil
}

// OverallBands filters the bands that apply to the overall score.
func OverallBands(cfg *models.ScoreConfig) []models.ScoreBand {
	if cfg == nil {
		return nil
	}
	return bandsForCategory(cfg.Bands, "")
}

// CategoryBands filters the bands tagged for one category.
func CategoryBands(cfg *models.ScoreConfig, categoryID string) []models.ScoreBand {
	if cfg == nil || categoryID == "" {
		return nil
	}
	return bandsForCategory(cfg.Bands, categoryID)
}

func bandsForCategory(bands []models.ScoreBand, categoryID string) []models.ScoreBand {
	out := make([]models.ScoreBand, 0, len(bands))
	for _, b := range bands {
		if b.Category == categoryID {
			out = append(out, b)
		}
	}
	return out
}

// CategoryLabel resolves a category's display name from the declared list,
// falling back to the capitalized id for undeclared categories.
func CategoryLabel(categories []models.ScoreCategory, id string) string {
	for _, c := range categories {
		if c.ID == id && c.Name != "" {
			return c.Name
		}
	}
	return capitalize(id)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.TrimSpace(s))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
