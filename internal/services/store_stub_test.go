package services

import (
	"sort"
	"strings"

	"github.com/canvasslabs/canvass/internal/models"
)

// fakeStore is a hand-written in-memory stand-in for the persistence layer,
// satisfying every service-facing store interface.
type fakeStore struct {
	surveys       map[string]*models.Survey
	questions     map[string]*models.Question
	versions      map[string][]*models.SurveyVersion
	responses     map[string]*models.Response
	tenants       map[string]*models.Tenant
	usersByEmail  map[string]*models.User
	collaborators map[string][]models.Collaborator
	audits        []models.AuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		surveys:       map[string]*models.Survey{},
		questions:     map[string]*models.Question{},
		versions:      map[string][]*models.SurveyVersion{},
		responses:     map[string]*models.Response{},
		tenants:       map[string]*models.Tenant{},
		usersByEmail:  map[string]*models.User{},
		collaborators: map[string][]models.Collaborator{},
	}
}

func (s *fakeStore) InsertSurvey(sv *models.Survey) (*models.Survey, error) {
	cp := *sv
	s.surveys[sv.ID] = &cp
	return &cp, nil
}

func (s *fakeStore) GetSurvey(id string) (*models.Survey, error) {
	if sv, ok := s.surveys[id]; ok {
		cp := *sv
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateSurvey(sv *models.Survey) error {
	if _, ok := s.surveys[sv.ID]; !ok {
		return NewNotFoundError("survey not found")
	}
	cp := *sv
	s.surveys[sv.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteSurvey(id string) error {
	if _, ok := s.surveys[id]; !ok {
		return NewNotFoundError("survey not found")
	}
	delete(s.surveys, id)
	return nil
}

func (s *fakeStore) ListSurveysByTenant(tenantID string) ([]*models.Survey, error) {
	out := []*models.Survey{}
	for _, sv := range s.surveys {
		if sv.TenantID == tenantID {
			cp := *sv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) InsertQuestion(q *models.Question) (*models.Question, error) {
	cp := *q
	s.questions[q.ID] = &cp
	return &cp, nil
}

func (s *fakeStore) GetQuestion(id string) (*models.Question, error) {
	if q, ok := s.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateQuestion(q *models.Question) error {
	if _, ok := s.questions[q.ID]; !ok {
		return NewNotFoundError("question not found")
	}
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteQuestion(id string) error {
	delete(s.questions, id)
	return nil
}

func (s *fakeStore) ListQuestions(surveyID string) ([]*models.Question, error) {
	out := []*models.Question{}
	for _, q := range s.questions {
		if q.SurveyID == surveyID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeStore) ReorderQuestions(surveyID string, order []string) (bool, error) {
	for pos, id := range order {
		q, ok := s.questions[id]
		if !ok || q.SurveyID != surveyID {
			return false, nil
		}
		q.Order = pos
	}
	return true, nil
}

func (s *fakeStore) InsertVersion(v *models.SurveyVersion) error {
	cp := *v
	s.versions[v.SurveyID] = append(s.versions[v.SurveyID], &cp)
	return nil
}

func (s *fakeStore) LatestVersion(surveyID string) (*models.SurveyVersion, error) {
	vs := s.versions[surveyID]
	if len(vs) == 0 {
		return nil, nil
	}
	cp := *vs[len(vs)-1]
	return &cp, nil
}

func (s *fakeStore) GetVersion(surveyID string, version int) (*models.SurveyVersion, error) {
	for _, v := range s.versions[surveyID] {
		if v.Version == version {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertResponse(r *models.Response) error {
	cp := *r
	s.responses[r.ID] = &cp
	return nil
}

func (s *fakeStore) GetResponse(id string) (*models.Response, error) {
	if r, ok := s.responses[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) ListResponsesBySurvey(surveyID string) ([]*models.Response, error) {
	out := []*models.Response{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) DeleteResponsesBySurvey(surveyID string) (int, error) {
	removed := 0
	for id, r := range s.responses {
		if r.SurveyID == surveyID {
			delete(s.responses, id)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) FindUserByEmail(email string) (*models.User, error) {
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) AddUser(u *models.User) error {
	cp := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}

func (s *fakeStore) AddTenant(t *models.Tenant) error {
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *fakeStore) ListCollaborators(surveyID string) ([]models.Collaborator, error) {
	return append([]models.Collaborator(nil), s.collaborators[surveyID]...), nil
}

func (s *fakeStore) AddCollaborator(surveyID, userID, role string) (bool, error) {
	for i, c := range s.collaborators[surveyID] {
		if c.UserID == userID {
			s.collaborators[surveyID][i].Role = role
			return true, nil
		}
	}
	s.collaborators[surveyID] = append(s.collaborators[surveyID], models.Collaborator{UserID: userID, Role: role})
	return true, nil
}

func (s *fakeStore) RemoveCollaborator(surveyID, userID string) (bool, error) {
	for i, c := range s.collaborators[surveyID] {
		if c.UserID == userID {
			s.collaborators[surveyID] = append(s.collaborators[surveyID][:i], s.collaborators[surveyID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) AddAudit(entry models.AuditEntry) {
	s.audits = append(s.audits, entry)
}
