package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/canvasslabs/canvass/internal/api"
	"github.com/canvasslabs/canvass/internal/models"
)

// SQLiteStore persists the full api.Store surface in a single SQLite file.
// Structured fields that only the application interprets (questions, score
// config, snapshots, answers) are stored as JSON documents; columns exist
// only where SQL needs to filter or order.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Ping() error { return s.db.Ping() }

func encodeDoc(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// surveys

func (s *SQLiteStore) InsertSurvey(sv *models.Survey) (*models.Survey, error) {
	cfg, err := encodeDoc(sv.ScoreConfig)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`INSERT INTO surveys (id, tenant_id, title, description, logic_version, score_config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.TenantID, sv.Title, sv.Description, sv.LogicVersion, cfg, sv.CreatedAt, sv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cp := *sv
	return &cp, nil
}

func (s *SQLiteStore) GetSurvey(id string) (*models.Survey, error) {
	row := s.db.QueryRow(`SELECT id, tenant_id, title, description, logic_version, score_config, created_at, updated_at
		FROM surveys WHERE id = ?`, id)
	return scanSurvey(row)
}

func scanSurvey(row *sql.Row) (*models.Survey, error) {
	var sv models.Survey
	var cfg sql.NullString
	err := row.Scan(&sv.ID, &sv.TenantID, &sv.Title, &sv.Description, &sv.LogicVersion, &cfg, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.Valid && cfg.String != "" && cfg.String != "null" {
		if err := json.Unmarshal([]byte(cfg.String), &sv.ScoreConfig); err != nil {
			log.Printf("sqlite store: decode score config for %s: %v", sv.ID, err)
		}
	}
	return &sv, nil
}

func (s *SQLiteStore) UpdateSurvey(sv *models.Survey) error {
	cfg, err := encodeDoc(sv.ScoreConfig)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE surveys SET title = ?, description = ?, logic_version = ?, score_config = ?, updated_at = ?
		WHERE id = ?`,
		sv.Title, sv.Description, sv.LogicVersion, cfg, sv.UpdatedAt, sv.ID)
	return err
}

func (s *SQLiteStore) DeleteSurvey(id string) error {
	_, err := s.db.Exec(`DELETE FROM surveys WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListSurveysByTenant(tenantID string) ([]*models.Survey, error) {
	rows, err := s.db.Query(`SELECT id, tenant_id, title, description, logic_version, score_config, created_at, updated_at
		FROM surveys WHERE tenant_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		var sv models.Survey
		var cfg sql.NullString
		if err := rows.Scan(&sv.ID, &sv.TenantID, &sv.Title, &sv.Description, &sv.LogicVersion, &cfg, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
			return nil, err
		}
		if cfg.Valid && cfg.String != "" && cfg.String != "null" {
			if err := json.Unmarshal([]byte(cfg.String), &sv.ScoreConfig); err != nil {
				log.Printf("sqlite store: decode score config for %s: %v", sv.ID, err)
			}
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

// questions

func (s *SQLiteStore) InsertQuestion(q *models.Question) (*models.Question, error) {
	doc, err := encodeDoc(q)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`INSERT INTO questions (id, survey_id, ord, doc) VALUES (?, ?, ?, ?)`,
		q.ID, q.SurveyID, q.Order, doc)
	if err != nil {
		return nil, err
	}
	cp := *q
	return &cp, nil
}

func (s *SQLiteStore) GetQuestion(id string) (*models.Question, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM questions WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *SQLiteStore) UpdateQuestion(q *models.Question) error {
	doc, err := encodeDoc(q)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE questions SET ord = ?, doc = ? WHERE id = ?`, q.Order, doc, q.ID)
	return err
}

func (s *SQLiteStore) DeleteQuestion(id string) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListQuestions(surveyID string) ([]*models.Question, error) {
	rows, err := s.db.Query(`SELECT doc FROM questions WHERE survey_id = ? ORDER BY ord, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Question{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var q models.Question
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReorderQuestions(surveyID string, order []string) (bool, error) {
	existing, err := s.ListQuestions(surveyID)
	if err != nil {
		return false, err
	}
	if len(order) != len(existing) {
		return false, nil
	}
	byID := make(map[string]*models.Question, len(existing))
	for _, q := range existing {
		byID[q.ID] = q
	}
	for _, qid := range order {
		if byID[qid] == nil {
			return false, nil
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	for i, qid := range order {
		q := byID[qid]
		q.Order = i
		doc, err := encodeDoc(q)
		if err != nil {
			return false, err
		}
		if _, err := tx.Exec(`UPDATE questions SET ord = ?, doc = ? WHERE id = ?`, i, doc, qid); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

// versions

func (s *SQLiteStore) InsertVersion(v *models.SurveyVersion) error {
	snap, err := encodeDoc(v.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO survey_versions (survey_id, version, content_hash, snapshot, published_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.SurveyID, v.Version, v.ContentHash, snap, v.PublishedAt)
	return err
}

func (s *SQLiteStore) LatestVersion(surveyID string) (*models.SurveyVersion, error) {
	return s.scanVersion(s.db.QueryRow(`SELECT survey_id, version, content_hash, snapshot, published_at
		FROM survey_versions WHERE survey_id = ? ORDER BY version DESC LIMIT 1`, surveyID))
}

func (s *SQLiteStore) GetVersion(surveyID string, version int) (*models.SurveyVersion, error) {
	return s.scanVersion(s.db.QueryRow(`SELECT survey_id, version, content_hash, snapshot, published_at
		FROM survey_versions WHERE survey_id = ? AND version = ?`, surveyID, version))
}

func (s *SQLiteStore) scanVersion(row *sql.Row) (*models.SurveyVersion, error) {
	var v models.SurveyVersion
	var snap string
	err := row.Scan(&v.SurveyID, &v.Version, &v.ContentHash, &snap, &v.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(snap), &v.Snapshot); err != nil {
		return nil, err
	}
	return &v, nil
}

// responses

func (s *SQLiteStore) InsertResponse(r *models.Response) error {
	answers, err := encodeDoc(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO responses (id, survey_id, survey_version, answers, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.SurveyID, r.SurveyVersion, answers, r.SubmittedAt)
	return err
}

func (s *SQLiteStore) GetResponse(id string) (*models.Response, error) {
	var r models.Response
	var answers string
	err := s.db.QueryRow(`SELECT id, survey_id, survey_version, answers, submitted_at
		FROM responses WHERE id = ?`, id).
		Scan(&r.ID, &r.SurveyID, &r.SurveyVersion, &answers, &r.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) ListResponsesBySurvey(surveyID string) ([]*models.Response, error) {
	rows, err := s.db.Query(`SELECT id, survey_id, survey_version, answers, submitted_at
		FROM responses WHERE survey_id = ? ORDER BY id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Response{}
	for rows.Next() {
		var r models.Response
		var answers string
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.SurveyVersion, &answers, &r.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteResponsesBySurvey(surveyID string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM responses WHERE survey_id = ?`, surveyID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// tenants & users

func (s *SQLiteStore) AddTenant(t *models.Tenant) error {
	_, err := s.db.Exec(`INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID, t.Name)
	return err
}

func (s *SQLiteStore) AddUser(u *models.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.TenantID, u.CreatedAt)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(`SELECT id, email, pass_hash, tenant_id, created_at FROM users WHERE email = ? COLLATE NOCASE`,
		strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.TenantID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// collaborators

func (s *SQLiteStore) ListCollaborators(surveyID string) ([]models.Collaborator, error) {
	rows, err := s.db.Query(`SELECT user_id, email, role FROM collaborators WHERE survey_id = ? ORDER BY user_id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Collaborator{}
	for rows.Next() {
		var c models.Collaborator
		if err := rows.Scan(&c.UserID, &c.Email, &c.Role); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddCollaborator(surveyID, userID, role string) (bool, error) {
	var email string
	err := s.db.QueryRow(`SELECT email FROM users WHERE id = ?`, userID).Scan(&email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	_, err = s.db.Exec(`INSERT INTO collaborators (survey_id, user_id, email, role) VALUES (?, ?, ?, ?)
		ON CONFLICT (survey_id, user_id) DO UPDATE SET role = excluded.role`,
		surveyID, userID, email, role)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) RemoveCollaborator(surveyID, userID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM collaborators WHERE survey_id = ? AND user_id = ?`, surveyID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// audit

func (s *SQLiteStore) AddAudit(entry models.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		entry.Time, entry.Actor, entry.Action, entry.Target, entry.Note)
	if err != nil {
		log.Printf("sqlite store: add audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []models.AuditEntry {
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	out := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.Time, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		out = append(out, e)
	}
	return out
}
