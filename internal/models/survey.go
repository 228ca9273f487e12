package models

import "time"

// QuestionType is the fixed set of question variants the builder can author.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeDropdown       QuestionType = "dropdown"
	TypeYesNo          QuestionType = "yes_no"
	TypeImageChoice    QuestionType = "image_choice"
	TypeRating         QuestionType = "rating"
	TypeLikert         QuestionType = "likert"
	TypeOpinionScale   QuestionType = "opinion_scale"
	TypeSlider         QuestionType = "slider"
	TypeNPS            QuestionType = "nps"
	TypeTextShort      QuestionType = "text_short"
	TypeTextLong       QuestionType = "text_long"
	TypeEmail          QuestionType = "email"
	TypePhone          QuestionType = "phone"
	TypeWebsite        QuestionType = "website"
	TypeNumber         QuestionType = "number"
	TypeDate           QuestionType = "date"
	TypeTime           QuestionType = "time"
	TypeDateTime       QuestionType = "datetime"
	TypeFileUpload     QuestionType = "file_upload"
	TypeSignature      QuestionType = "signature"
	TypeMatrix         QuestionType = "matrix"
	TypeRanking        QuestionType = "ranking"
	TypeConstantSum    QuestionType = "constant_sum"
	TypeStatement      QuestionType = "statement"
)

// TypeFamily groups question types by how they contribute to scoring.
type TypeFamily int

const (
	FamilyUnscored TypeFamily = iota
	FamilySingleSelect
	FamilyMultiSelect
	FamilyNumericScale
)

// Family maps a question type to its scoring family. Types outside the three
// scorable families never contribute to scores regardless of the Scorable flag.
func (t QuestionType) Family() TypeFamily {
	switch t {
	case TypeMultipleChoice, TypeDropdown, TypeYesNo:
		return FamilySingleSelect
	case TypeCheckbox:
		return FamilyMultiSelect
	case TypeRating, TypeLikert, TypeOpinionScale, TypeSlider:
		return FamilyNumericScale
	default:
		return FamilyUnscored
	}
}

// Survey is the authored container for questions, rules and scoring config.
// LogicVersion selects the condition grammar; its semantics are frozen once
// the survey has published versions.
type Survey struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	LogicVersion int          `json:"logic_version"`
	ScoreConfig  *ScoreConfig `json:"score_config,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitempty"`
}

// Option is a selectable choice on a choice-family question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Question is a single survey question with its branching rules attached.
type Question struct {
	ID              string             `json:"id"`
	SurveyID        string             `json:"survey_id,omitempty"`
	Title           string             `json:"title"`
	Type            QuestionType       `json:"type"`
	Order           int                `json:"order"`
	Required        bool               `json:"required,omitempty"`
	Options         []Option           `json:"options,omitempty"`
	OptionScores    map[string]float64 `json:"option_scores,omitempty"`
	RatingScale     int                `json:"rating_scale,omitempty"`
	LikertPoints    int                `json:"likert_points,omitempty"`
	ScaleMin        float64            `json:"scale_min,omitempty"`
	ScaleMax        float64            `json:"scale_max,omitempty"`
	Scorable        bool               `json:"scorable,omitempty"`
	ScoreWeight     float64            `json:"score_weight,omitempty"`
	ScoringCategory string             `json:"scoring_category,omitempty"`
	Reversed        bool               `json:"reversed,omitempty"`
	Rules           []LogicRule        `json:"rules,omitempty"`
}

// Weight returns the effective score weight (default 1).
func (q *Question) Weight() float64 {
	if q.ScoreWeight == 0 {
		return 1
	}
	return q.ScoreWeight
}

// RuleAction is what a fired logic rule does to the flow.
type RuleAction string

const (
	ActionSkip RuleAction = "skip"
	ActionShow RuleAction = "show"
	ActionEnd  RuleAction = "end"
)

// LogicRule is a conditional branching rule owned by its source question.
// TargetQuestionID is required unless Action is end.
type LogicRule struct {
	ID               string     `json:"id"`
	Condition        string     `json:"condition"`
	Action           RuleAction `json:"action"`
	TargetQuestionID string     `json:"target_question_id,omitempty"`
}

// ScoreCategory is a named grouping of scorable questions.
type ScoreCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScoreBand labels a sub-range of the 0-100 percentage scale. An empty
// Category means the band applies to the overall score; otherwise it applies
// to that category's sub-score only. Min and Max are inclusive.
type ScoreBand struct {
	ID       string  `json:"id"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Label    string  `json:"label"`
	Category string  `json:"category,omitempty"`
}

// ScoreConfig is the survey-level scoring configuration.
type ScoreConfig struct {
	Enabled    bool            `json:"enabled"`
	Categories []ScoreCategory `json:"categories,omitempty"`
	Bands      []ScoreBand     `json:"bands,omitempty"`
}
