package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/canvasslabs/canvass/internal/models"
)

// memoryStore is the in-process backend used for development and tests.
// Everything is guarded by one RWMutex; reads hand out copies so callers
// can never mutate shared state behind the lock.
type memoryStore struct {
	mu            sync.RWMutex
	surveys       map[string]*models.Survey
	questions     map[string]*models.Question
	bySurvey      map[string][]string
	versions      map[string][]*models.SurveyVersion
	responses     map[string]*models.Response
	respBySurvey  map[string][]string
	tenants       map[string]*models.Tenant
	usersByEmail  map[string]*models.User
	collaborators map[string][]models.Collaborator
	audit         []models.AuditEntry
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:       map[string]*models.Survey{},
		questions:     map[string]*models.Question{},
		bySurvey:      map[string][]string{},
		versions:      map[string][]*models.SurveyVersion{},
		responses:     map[string]*models.Response{},
		respBySurvey:  map[string][]string{},
		tenants:       map[string]*models.Tenant{},
		usersByEmail:  map[string]*models.User{},
		collaborators: map[string][]models.Collaborator{},
	}
}

func (s *memoryStore) Ping() error { return nil }

// surveys

func (s *memoryStore) InsertSurvey(sv *models.Survey) (*models.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sv
	s.surveys[sv.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) GetSurvey(id string) (*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.surveys[id]
	if !ok {
		return nil, nil
	}
	cp := *sv
	return &cp, nil
}

func (s *memoryStore) UpdateSurvey(sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sv
	s.surveys[sv.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteSurvey(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.surveys, id)
	for _, qid := range s.bySurvey[id] {
		delete(s.questions, qid)
	}
	delete(s.bySurvey, id)
	delete(s.versions, id)
	delete(s.collaborators, id)
	return nil
}

func (s *memoryStore) ListSurveysByTenant(tenantID string) ([]*models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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

// questions

func (s *memoryStore) InsertQuestion(q *models.Question) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	s.bySurvey[q.SurveyID] = append(s.bySurvey[q.SurveyID], q.ID)
	out := cp
	return &out, nil
}

func (s *memoryStore) GetQuestion(id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (s *memoryStore) UpdateQuestion(q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil
	}
	delete(s.questions, id)
	ids := s.bySurvey[q.SurveyID]
	next := make([]string, 0, len(ids))
	for _, qid := range ids {
		if qid != id {
			next = append(next, qid)
		}
	}
	s.bySurvey[q.SurveyID] = next
	return nil
}

func (s *memoryStore) ListQuestions(surveyID string) ([]*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Question, 0, len(s.bySurvey[surveyID]))
	for _, qid := range s.bySurvey[surveyID] {
		cp := *s.questions[qid]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) ReorderQuestions(surveyID string, order []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(order) != len(s.bySurvey[surveyID]) {
		return false, nil
	}
	for _, qid := range order {
		q, ok := s.questions[qid]
		if !ok || q.SurveyID != surveyID {
			return false, nil
		}
	}
	for i, qid := range order {
		s.questions[qid].Order = i
	}
	s.bySurvey[surveyID] = append([]string(nil), order...)
	return true, nil
}

// versions

func (s *memoryStore) InsertVersion(v *models.SurveyVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.versions[v.SurveyID] = append(s.versions[v.SurveyID], &cp)
	return nil
}

func (s *memoryStore) LatestVersion(surveyID string) (*models.SurveyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[surveyID]
	if len(vs) == 0 {
		return nil, nil
	}
	latest := vs[0]
	for _, v := range vs[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	cp := *latest
	return &cp, nil
}

func (s *memoryStore) GetVersion(surveyID string, version int) (*models.SurveyVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[surveyID] {
		if v.Version == version {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

// responses

func (s *memoryStore) InsertResponse(r *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.responses[r.ID] = &cp
	s.respBySurvey[r.SurveyID] = append(s.respBySurvey[r.SurveyID], r.ID)
	return nil
}

func (s *memoryStore) GetResponse(id string) (*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memoryStore) ListResponsesBySurvey(surveyID string) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Response, 0, len(s.respBySurvey[surveyID]))
	for _, rid := range s.respBySurvey[surveyID] {
		cp := *s.responses[rid]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryStore) DeleteResponsesBySurvey(surveyID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.respBySurvey[surveyID]
	for _, rid := range ids {
		delete(s.responses, rid)
	}
	delete(s.respBySurvey, surveyID)
	return len(ids), nil
}

// tenants & users

func (s *memoryStore) AddTenant(t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *memoryStore) AddUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// collaborators

func (s *memoryStore) ListCollaborators(surveyID string) ([]models.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Collaborator(nil), s.collaborators[surveyID]...), nil
}

func (s *memoryStore) AddCollaborator(surveyID, userID, role string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.collaborators[surveyID] {
		if c.UserID == userID {
			s.collaborators[surveyID][i].Role = role
			return true, nil
		}
	}
	email := ""
	for _, u := range s.usersByEmail {
		if u.ID == userID {
			email = u.Email
			break
		}
	}
	s.collaborators[surveyID] = append(s.collaborators[surveyID], models.Collaborator{UserID: userID, Email: email, Role: role})
	return true, nil
}

func (s *memoryStore) RemoveCollaborator(surveyID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.collaborators[surveyID]
	for i, c := range cs {
		if c.UserID == userID {
			s.collaborators[surveyID] = append(cs[:i:i], cs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// audit

func (s *memoryStore) AddAudit(entry models.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, entry)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
