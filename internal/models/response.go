package models

import "time"

// AnswerMap holds respondent answers keyed by question ID. Values carry the
// JSON-decoded shapes the player submits: string, float64, bool, or []any.
type AnswerMap map[string]any

// SurveyVersion is a frozen publish-time snapshot. Responses pin the version
// they answered so scoring stays reproducible after later edits.
type SurveyVersion struct {
	SurveyID    string         `json:"survey_id"`
	Version     int            `json:"version"`
	ContentHash string         `json:"content_hash"`
	Snapshot    SurveySnapshot `json:"snapshot"`
	PublishedAt time.Time      `json:"published_at"`
}

// SurveySnapshot is the canonical content captured at publish time.
type SurveySnapshot struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

// Response is one respondent's completed submission against a pinned version.
type Response struct {
	ID            string    `json:"id"`
	SurveyID      string    `json:"survey_id"`
	SurveyVersion int       `json:"survey_version"`
	Answers       AnswerMap `json:"answers"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// CategoryScore is one category's accumulated sub-score.
type CategoryScore struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Label    string  `json:"label"`
}

// ScoringResult is the computed score payload for a single response. A nil
// result (not a zero-valued one) signals that scoring is disabled.
type ScoringResult struct {
	TotalScore float64                  `json:"total_score"`
	MaxScore   float64                  `json:"max_score"`
	Percentage float64                  `json:"percentage"`
	ByCategory map[string]CategoryScore `json:"by_category"`
}
