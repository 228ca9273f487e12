package services

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canvasslabs/canvass/internal/logic"
	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/scoring"
)

// SurveyStore abstracts persistence for the authoring workflows.
type SurveyStore interface {
	InsertSurvey(sv *models.Survey) (*models.Survey, error)
	GetSurvey(id string) (*models.Survey, error)
	UpdateSurvey(sv *models.Survey) error
	DeleteSurvey(id string) error
	ListSurveysByTenant(tenantID string) ([]*models.Survey, error)

	InsertQuestion(q *models.Question) (*models.Question, error)
	GetQuestion(id string) (*models.Question, error)
	UpdateQuestion(q *models.Question) error
	DeleteQuestion(id string) error
	ListQuestions(surveyID string) ([]*models.Question, error)
	ReorderQuestions(surveyID string, order []string) (bool, error)

	InsertVersion(v *models.SurveyVersion) error
	LatestVersion(surveyID string) (*models.SurveyVersion, error)

	DeleteResponsesBySurvey(surveyID string) (int, error)
	AddAudit(entry models.AuditEntry)
}

// SurveyService owns survey, question and rule authoring plus publishing.
type SurveyService struct {
	store SurveyStore
	now   func() time.Time
	idGen func(n int) string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: shortID,
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *SurveyService) CreateSurvey(tenantID string, sv *models.Survey) (*models.Survey, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if sv == nil || strings.TrimSpace(sv.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if sv.ID == "" {
		sv.ID = s.idGen(8)
	}
	if sv.LogicVersion == 0 {
		sv.LogicVersion = int(logic.DefaultGrammar)
	}
	if !logic.GrammarVersion(sv.LogicVersion).Valid() {
		return nil, NewInvalidError("unknown logic version")
	}
	sv.TenantID = tenantID
	sv.CreatedAt = s.now()
	sv.UpdatedAt = sv.CreatedAt
	created, err := s.store.InsertSurvey(sv)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return sv, nil
	}
	return created, nil
}

func (s *SurveyService) GetSurvey(tenantID, id string) (*models.Survey, error) {
	sv, err := s.ownedSurvey(tenantID, id)
	if err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *SurveyService) ListSurveys(tenantID string) ([]*models.Survey, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListSurveysByTenant(tenantID)
}

// SurveyUpdate carries the mutable survey fields; nil means "leave as is".
type SurveyUpdate struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	LogicVersion *int    `json:"logic_version,omitempty"`
}

func (s *SurveyService) UpdateSurvey(tenantID, id string, upd SurveyUpdate, actor string) (*models.Survey, error) {
	sv, err := s.ownedSurvey(tenantID, id)
	if err != nil {
		return nil, err
	}
	updated := *sv
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, NewInvalidError("title required")
		}
		updated.Title = *upd.Title
	}
	if upd.Description != nil {
		updated.Description = *upd.Description
	}
	if upd.LogicVersion != nil && *upd.LogicVersion != sv.LogicVersion {
		// Published surveys have frozen grammar semantics.
		latest, err := s.store.LatestVersion(id)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			return nil, NewConflictError("logic version cannot change after publishing")
		}
		if !logic.GrammarVersion(*upd.LogicVersion).Valid() {
			return nil, NewInvalidError("unknown logic version")
		}
		updated.LogicVersion = *upd.LogicVersion
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *SurveyService) DeleteSurvey(tenantID, id, actor string) error {
	if _, err := s.ownedSurvey(tenantID, id); err != nil {
		return err
	}
	if err := s.store.DeleteSurvey(id); err != nil {
		return err
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: actor, Action: "delete_survey", Target: id})
	return nil
}

func (s *SurveyService) SetScoreConfig(tenantID, id string, cfg *models.ScoreConfig) (*models.Survey, error) {
	sv, err := s.ownedSurvey(tenantID, id)
	if err != nil {
		return nil, err
	}
	updated := *sv
	if cfg != nil {
		for i := range cfg.Bands {
			if cfg.Bands[i].ID == "" {
				cfg.Bands[i].ID = s.idGen(8)
			}
		}
	}
	updated.ScoreConfig = cfg
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateSurvey(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *SurveyService) AddQuestion(tenantID, surveyID string, q *models.Question) (*models.Question, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return nil, err
	}
	if q == nil || strings.TrimSpace(q.Title) == "" {
		return nil, NewInvalidError("question title required")
	}
	if q.Type.Family() == models.FamilyUnscored && q.Scorable {
		// The flag is tolerated, scoring just ignores it.
		q.Scorable = false
	}
	if q.ID == "" {
		q.ID = s.idGen(8)
	}
	q.SurveyID = surveyID
	if q.Order == 0 {
		existing, err := s.store.ListQuestions(surveyID)
		if err != nil {
			return nil, err
		}
		q.Order = len(existing)
	}
	created, err := s.store.InsertQuestion(q)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return q, nil
	}
	return created, nil
}

func (s *SurveyService) UpdateQuestion(tenantID, surveyID string, q *models.Question) error {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return err
	}
	if q == nil || q.ID == "" {
		return NewInvalidError("question required")
	}
	existing, err := s.store.GetQuestion(q.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.SurveyID != surveyID {
		return NewNotFoundError("question not found")
	}
	q.SurveyID = surveyID
	return s.store.UpdateQuestion(q)
}

func (s *SurveyService) DeleteQuestion(tenantID, surveyID, questionID string) error {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return err
	}
	existing, err := s.store.GetQuestion(questionID)
	if err != nil {
		return err
	}
	if existing == nil || existing.SurveyID != surveyID {
		return NewNotFoundError("question not found")
	}
	return s.store.DeleteQuestion(questionID)
}

func (s *SurveyService) ListQuestions(surveyID string) ([]*models.Question, error) {
	return s.store.ListQuestions(surveyID)
}

func (s *SurveyService) ReorderQuestions(tenantID, surveyID string, order []string) (int, error) {
	if len(order) == 0 {
		return 0, NewInvalidError("order required")
	}
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return 0, err
	}
	ok, err := s.store.ReorderQuestions(surveyID, order)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, NewInvalidError("reorder failed")
	}
	return len(order), nil
}

// ReplaceRules swaps the full rule list on a question. Rules get generated
// ids when missing; structural problems surface through validation, not here.
func (s *SurveyService) ReplaceRules(tenantID, surveyID, questionID string, rules []models.LogicRule) (*models.Question, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return nil, err
	}
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.SurveyID != surveyID {
		return nil, NewNotFoundError("question not found")
	}
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = s.idGen(8)
		}
		switch rules[i].Action {
		case models.ActionSkip, models.ActionShow, models.ActionEnd:
		default:
			return nil, NewInvalidError(fmt.Sprintf("unknown rule action %q", rules[i].Action))
		}
	}
	updated := *q
	updated.Rules = rules
	if err := s.store.UpdateQuestion(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Publish validates the survey and, when no error-severity issues exist,
// freezes a numbered snapshot with a content hash. The snapshot is what
// respondents answer against; later edits never touch it.
func (s *SurveyService) Publish(tenantID, surveyID, actor string) (*models.SurveyVersion, []models.ValidationIssue, error) {
	sv, err := s.ownedSurvey(tenantID, surveyID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.store.ListQuestions(surveyID)
	if err != nil {
		return nil, nil, err
	}
	snapshot := buildSnapshot(sv, questions)

	issues := logic.ValidateFlow(snapshot.Questions, logic.GrammarVersion(sv.LogicVersion))
	issues = append(issues, scoring.ValidateConfig(snapshot.Questions, sv.ScoreConfig)...)
	if !models.CanPublish(issues) {
		return nil, issues, NewConflictError("survey has validation errors")
	}

	hash, err := snapshotHash(snapshot)
	if err != nil {
		return nil, issues, err
	}
	latest, err := s.store.LatestVersion(surveyID)
	if err != nil {
		return nil, issues, err
	}
	version := 1
	if latest != nil {
		version = latest.Version + 1
	}
	sv2 := &models.SurveyVersion{
		SurveyID:    surveyID,
		Version:     version,
		ContentHash: hash,
		Snapshot:    snapshot,
		PublishedAt: s.now(),
	}
	if err := s.store.InsertVersion(sv2); err != nil {
		return nil, issues, err
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: actor, Action: "publish", Target: surveyID, Note: "v" + strconv.Itoa(version)})
	return sv2, issues, nil
}

func (s *SurveyService) DeleteSurveyResponses(tenantID, surveyID, actor string) (int, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return 0, err
	}
	removed, err := s.store.DeleteResponsesBySurvey(surveyID)
	if err != nil {
		return 0, err
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: actor, Action: "purge_responses", Target: surveyID, Note: strconv.Itoa(removed)})
	return removed, nil
}

func (s *SurveyService) ownedSurvey(tenantID, id string) (*models.Survey, error) {
	if tenantID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	sv, err := s.store.GetSurvey(id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if sv.TenantID != tenantID {
		return nil, NewForbiddenError("forbidden")
	}
	return sv, nil
}

// buildSnapshot produces the canonical publish-time content: questions
// sorted by order with ties broken by id, timestamps cleared so the hash
// depends on content only.
func buildSnapshot(sv *models.Survey, questions []*models.Question) models.SurveySnapshot {
	qs := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		qs = append(qs, *q)
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
	frozen := *sv
	frozen.CreatedAt = time.Time{}
	frozen.UpdatedAt = time.Time{}
	return models.SurveySnapshot{Survey: frozen, Questions: qs}
}

// snapshotHash is the sha256 of the canonical snapshot JSON. Map keys
// marshal in sorted order, so identical content always hashes identically;
// this is also a usable memoization key for result caching.
func snapshotHash(snapshot models.SurveySnapshot) (string, error) {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// ImportQuestionsCSV parses a CSV export and appends questions to the survey.
// Missing question_id values get generated ids.
func (s *SurveyService) ImportQuestionsCSV(tenantID, surveyID string, data []byte) (int, error) {
	if _, err := s.ownedSurvey(tenantID, surveyID); err != nil {
		return 0, err
	}

	// Strip optional UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	rows, err := r.ReadAll()
	if err != nil {
		return 0, NewInvalidError("invalid csv: " + err.Error())
	}
	if len(rows) == 0 {
		return 0, NewInvalidError("empty csv")
	}
	header := rows[0]
	idx := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	// Header indices (best-effort; optional columns allowed)
	iID := idx("question_id")
	iPos := idx("position")
	iType := idx("type")
	iTitle := idx("title")
	iReq := idx("required")
	iScorable := idx("scorable")
	iWeight := idx("weight")
	iCategory := idx("category")
	iReversed := idx("reversed")
	iOptions := idx("options")
	iScores := idx("option_scores")
	iRating := idx("rating_scale")
	iLikert := idx("likert_points")
	iMin := idx("scale_min")
	iMax := idx("scale_max")

	parseBool := func(s string) bool {
		ss := strings.ToLower(strings.TrimSpace(s))
		return ss == "1" || ss == "true" || ss == "yes" || ss == "y"
	}
	parseInt := func(s string) int { n, _ := strconv.Atoi(strings.TrimSpace(s)); return n }
	parseFloat := func(s string) float64 { f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64); return f }

	created := 0
	for _, row := range rows[1:] {
		if len(strings.TrimSpace(strings.Join(row, ""))) == 0 {
			continue
		}
		get := func(i int) string {
			if i >= 0 && i < len(row) {
				return row[i]
			}
			return ""
		}
		q := &models.Question{SurveyID: surveyID}
		if id := strings.TrimSpace(get(iID)); id != "" {
			q.ID = id
		}
		if q.ID == "" {
			q.ID = s.idGen(8)
		}
		if iPos >= 0 {
			q.Order = parseInt(get(iPos))
		}
		if t := strings.TrimSpace(get(iType)); t != "" {
			q.Type = models.QuestionType(t)
		} else {
			q.Type = models.TypeMultipleChoice
		}
		q.Title = strings.TrimSpace(get(iTitle))
		if q.Title == "" {
			return 0, NewInvalidError("title required for every imported question")
		}
		if iReq >= 0 {
			q.Required = parseBool(get(iReq))
		}
		if iScorable >= 0 {
			q.Scorable = parseBool(get(iScorable))
		}
		if iWeight >= 0 {
			q.ScoreWeight = parseFloat(get(iWeight))
		}
		q.ScoringCategory = strings.TrimSpace(get(iCategory))
		if iReversed >= 0 {
			q.Reversed = parseBool(get(iReversed))
		}
		for _, value := range splitList(get(iOptions)) {
			q.Options = append(q.Options, models.Option{Value: value})
		}
		if scores := parseScorePairs(get(iScores)); len(scores) > 0 {
			q.OptionScores = scores
		}
		if iRating >= 0 {
			q.RatingScale = parseInt(get(iRating))
		}
		if iLikert >= 0 {
			q.LikertPoints = parseInt(get(iLikert))
		}
		if iMin >= 0 {
			q.ScaleMin = parseFloat(get(iMin))
		}
		if iMax >= 0 {
			q.ScaleMax = parseFloat(get(iMax))
		}

		if _, err := s.store.InsertQuestion(q); err != nil {
			return created, err
		}
		created++
	}
	s.store.AddAudit(models.AuditEntry{Time: s.now(), Actor: "admin", Action: "import_questions", Target: surveyID, Note: strconv.Itoa(created)})
	return created, nil
}

// splitList splits on pipe with optional spaces, or comma fallback.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	sep := ","
	if strings.Contains(s, "|") {
		sep = "|"
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseScorePairs reads "value=score" pairs out of a pipe/comma list, e.g.
// "yes=10|no=0".
func parseScorePairs(s string) map[string]float64 {
	pairs := splitList(s)
	if len(pairs) == 0 {
		return nil
	}
	out := map[string]float64{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(k)] = score
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
