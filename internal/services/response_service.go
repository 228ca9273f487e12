package services

import (
	"time"

	"github.com/canvasslabs/canvass/internal/logic"
	"github.com/canvasslabs/canvass/internal/models"
)

// ResponseStore abstracts persistence for the respondent runtime.
type ResponseStore interface {
	GetSurvey(id string) (*models.Survey, error)
	LatestVersion(surveyID string) (*models.SurveyVersion, error)
	InsertResponse(r *models.Response) error
}

// ResponseService drives the survey player: stateless next-question stepping
// and final submission, both against the latest published snapshot.
type ResponseService struct {
	store ResponseStore
	now   func() time.Time
	idGen func(n int) string
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

// AdvanceRequest asks where the player goes after answering
// CurrentQuestionID. An empty CurrentQuestionID requests the entry question.
type AdvanceRequest struct {
	SurveyID          string           `json:"-"`
	CurrentQuestionID string           `json:"current_question_id"`
	Answers           models.AnswerMap `json:"answers"`
}

func (s *ResponseService) Advance(req AdvanceRequest) (*logic.LogicResult, error) {
	version, err := s.publishedVersion(req.SurveyID)
	if err != nil {
		return nil, err
	}
	res := logic.NextQuestion(
		version.Snapshot.Questions,
		req.CurrentQuestionID,
		req.Answers,
		logic.GrammarVersion(version.Snapshot.Survey.LogicVersion),
	)
	return &res, nil
}

// SubmitRequest carries a completed answer set.
type SubmitRequest struct {
	SurveyID string           `json:"-"`
	Answers  models.AnswerMap `json:"answers"`
}

// Submit persists a response pinned to the version the respondent answered.
// Answers for question ids the snapshot does not know are dropped rather
// than rejected, so stale players cannot poison a submission.
func (s *ResponseService) Submit(req SubmitRequest) (*models.Response, error) {
	if len(req.Answers) == 0 {
		return nil, NewInvalidError("answers required")
	}
	version, err := s.publishedVersion(req.SurveyID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(version.Snapshot.Questions))
	for _, q := range version.Snapshot.Questions {
		known[q.ID] = true
	}
	answers := models.AnswerMap{}
	for id, value := range req.Answers {
		if known[id] {
			answers[id] = value
		}
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("no answers match the published survey")
	}
	resp := &models.Response{
		ID:            s.idGen(12),
		SurveyID:      req.SurveyID,
		SurveyVersion: version.Version,
		Answers:       answers,
		SubmittedAt:   s.now(),
	}
	if err := s.store.InsertResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PublishedSurvey returns the player-facing snapshot of the latest version.
func (s *ResponseService) PublishedSurvey(surveyID string) (*models.SurveyVersion, error) {
	return s.publishedVersion(surveyID)
}

func (s *ResponseService) publishedVersion(surveyID string) (*models.SurveyVersion, error) {
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	version, err := s.store.LatestVersion(surveyID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, NewNotFoundError("survey not published")
	}
	return version, nil
}
