package services

import (
	"math"

	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/scoring"
)

// ResultsStore abstracts persistence for result computation.
type ResultsStore interface {
	GetResponse(id string) (*models.Response, error)
	GetVersion(surveyID string, version int) (*models.SurveyVersion, error)
}

// SurveyResults is the payload the results screen renders. ScoringEnabled
// false means the survey shows a plain thank-you screen; the zero scores in
// that case are absent, not zero-valued.
type SurveyResults struct {
	ResponseID     string                       `json:"response_id"`
	SurveyID       string                       `json:"survey_id"`
	SurveyVersion  int                          `json:"survey_version"`
	ScoringEnabled bool                         `json:"scoring_enabled"`
	Scoring        *models.ScoringResult        `json:"scoring,omitempty"`
	OverallBand    *models.ScoreBand            `json:"overall_band,omitempty"`
	CategoryBands  map[string]*models.ScoreBand `json:"category_bands,omitempty"`
}

// ResultsService recomputes scores deterministically from the pinned
// snapshot and the stored answers. Nothing is cached; identical stored data
// always yields identical results.
type ResultsService struct {
	store ResultsStore
}

func NewResultsService(store ResultsStore) *ResultsService {
	return &ResultsService{store: store}
}

func (s *ResultsService) Results(responseID string) (*SurveyResults, error) {
	resp, err := s.store.GetResponse(responseID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, NewNotFoundError("response not found")
	}
	version, err := s.store.GetVersion(resp.SurveyID, resp.SurveyVersion)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, NewNotFoundError("survey version not found")
	}

	out := &SurveyResults{
		ResponseID:    resp.ID,
		SurveyID:      resp.SurveyID,
		SurveyVersion: resp.SurveyVersion,
	}
	cfg := version.Snapshot.Survey.ScoreConfig
	result := scoring.Calculate(version.Snapshot.Questions, resp.Answers, cfg)
	if result == nil {
		return out, nil
	}
	out.ScoringEnabled = true
	out.Scoring = result

	// Bands step in whole numbers, so the percentage is rounded before
	// resolution; the resolver itself stays literal.
	out.OverallBand = scoring.ResolveBand(math.Round(result.Percentage), scoring.OverallBands(cfg))
	for categoryID, bucket := range result.ByCategory {
		bands := scoring.CategoryBands(cfg, categoryID)
		if len(bands) == 0 {
			continue
		}
		pct := 0.0
		if bucket.MaxScore > 0 {
			pct = bucket.Score / bucket.MaxScore * 100
		}
		band := scoring.ResolveBand(math.Round(pct), bands)
		if band == nil {
			continue
		}
		if out.CategoryBands == nil {
			out.CategoryBands = map[string]*models.ScoreBand{}
		}
		out.CategoryBands[categoryID] = band
	}
	return out, nil
}
