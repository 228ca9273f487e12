package services

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/scoring"
)

// ExportStore abstracts persistence for CSV exports.
type ExportStore interface {
	GetSurvey(id string) (*models.Survey, error)
	GetVersion(surveyID string, version int) (*models.SurveyVersion, error)
	ListResponsesBySurvey(surveyID string) ([]*models.Response, error)
}

// ExportService builds response exports. Every response is rendered against
// the version it was answered on, never the current draft.
type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// BuildExport renders the survey's responses in the requested format
// (long | wide | scores) and returns the bytes plus a suggested filename.
func (s *ExportService) BuildExport(tenantID, surveyID, format string) ([]byte, string, error) {
	if tenantID == "" {
		return nil, "", NewForbiddenError("unauthorized")
	}
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, "", err
	}
	if sv == nil {
		return nil, "", NewNotFoundError("survey not found")
	}
	if sv.TenantID != tenantID {
		return nil, "", NewForbiddenError("forbidden")
	}
	responses, err := s.store.ListResponsesBySurvey(surveyID)
	if err != nil {
		return nil, "", err
	}
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })

	versions := map[int]*models.SurveyVersion{}
	version := func(n int) (*models.SurveyVersion, error) {
		if v, ok := versions[n]; ok {
			return v, nil
		}
		v, err := s.store.GetVersion(surveyID, n)
		if err != nil {
			return nil, err
		}
		versions[n] = v
		return v, nil
	}

	switch format {
	case "", "long":
		rows := make([]LongRow, 0, len(responses))
		for _, resp := range responses {
			for _, qid := range sortedKeys(resp.Answers) {
				rows = append(rows, LongRow{
					ResponseID:  resp.ID,
					QuestionID:  qid,
					Value:       answerText(resp.Answers[qid]),
					SubmittedAt: resp.SubmittedAt.Format(time.RFC3339),
				})
			}
		}
		b, err := ExportLongCSV(rows)
		return b, "responses_long.csv", err
	case "wide":
		inputs := map[string]map[string]string{}
		for _, resp := range responses {
			row := map[string]string{}
			for qid, value := range resp.Answers {
				row[qid] = answerText(value)
			}
			inputs[resp.ID] = row
		}
		b, err := ExportWideCSV(inputs)
		return b, "responses_wide.csv", err
	case "scores":
		rows := make([]ScoreRow, 0, len(responses))
		for _, resp := range responses {
			v, err := version(resp.SurveyVersion)
			if err != nil {
				return nil, "", err
			}
			if v == nil {
				continue
			}
			cfg := v.Snapshot.Survey.ScoreConfig
			result := scoring.Calculate(v.Snapshot.Questions, resp.Answers, cfg)
			if result == nil {
				continue
			}
			row := ScoreRow{
				ResponseID: resp.ID,
				Total:      result.TotalScore,
				Max:        result.MaxScore,
				Percentage: result.Percentage,
			}
			if band := scoring.ResolveBand(math.Round(result.Percentage), scoring.OverallBands(cfg)); band != nil {
				row.Band = band.Label
			}
			rows = append(rows, row)
		}
		b, err := ExportScoresCSV(rows)
		return b, "responses_scores.csv", err
	default:
		return nil, "", NewInvalidError("unsupported format")
	}
}

func sortedKeys(m models.AnswerMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// answerText renders an answer value for CSV cells: scalars verbatim,
// arrays comma-joined, anything else through JSON.
func answerText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, answerText(item))
		}
		return strings.Join(parts, ",")
	default:
		b, _ := json.Marshal(v)
		return strings.Trim(string(b), "\"")
	}
}
