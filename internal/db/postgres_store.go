package db

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/canvasslabs/canvass/internal/api"
	"github.com/canvasslabs/canvass/internal/models"
)

// PostgresStore implements api.Store on pgxpool with the same document
// layout as the SQLite backend, using jsonb columns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

var _ api.Store = (*PostgresStore)(nil)

func (s *PostgresStore) ctx() context.Context { return context.Background() }

func (s *PostgresStore) Ping() error { return s.pool.Ping(s.ctx()) }

// surveys

func (s *PostgresStore) InsertSurvey(sv *models.Survey) (*models.Survey, error) {
	cfg, err := json.Marshal(sv.ScoreConfig)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(s.ctx(), `INSERT INTO surveys (id, tenant_id, title, description, logic_version, score_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sv.ID, sv.TenantID, sv.Title, sv.Description, sv.LogicVersion, cfg, sv.CreatedAt, sv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cp := *sv
	return &cp, nil
}

func (s *PostgresStore) GetSurvey(id string) (*models.Survey, error) {
	row := s.pool.QueryRow(s.ctx(), `SELECT id, tenant_id, title, description, logic_version, score_config, created_at, updated_at
		FROM surveys WHERE id = $1`, id)
	sv, err := scanPgSurvey(row)
	if err != nil {
		return nil, err
	}
	return sv, nil
}

func scanPgSurvey(row pgx.Row) (*models.Survey, error) {
	var sv models.Survey
	var cfg []byte
	err := row.Scan(&sv.ID, &sv.TenantID, &sv.Title, &sv.Description, &sv.LogicVersion, &cfg, &sv.CreatedAt, &sv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(cfg) > 0 && string(cfg) != "null" {
		if err := json.Unmarshal(cfg, &sv.ScoreConfig); err != nil {
			log.Printf("postgres store: decode score config for %s: %v", sv.ID, err)
		}
	}
	return &sv, nil
}

func (s *PostgresStore) UpdateSurvey(sv *models.Survey) error {
	cfg, err := json.Marshal(sv.ScoreConfig)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(s.ctx(), `UPDATE surveys SET title = $1, description = $2, logic_version = $3, score_config = $4, updated_at = $5
		WHERE id = $6`,
		sv.Title, sv.Description, sv.LogicVersion, cfg, sv.UpdatedAt, sv.ID)
	return err
}

func (s *PostgresStore) DeleteSurvey(id string) error {
	_, err := s.pool.Exec(s.ctx(), `DELETE FROM surveys WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ListSurveysByTenant(tenantID string) ([]*models.Survey, error) {
	rows, err := s.pool.Query(s.ctx(), `SELECT id, tenant_id, title, description, logic_version, score_config, created_at, updated_at
		FROM surveys WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Survey{}
	for rows.Next() {
		var sv models.Survey
		var cfg []byte
		if err := rows.Scan(&sv.ID, &sv.TenantID, &sv.Title, &sv.Description, &sv.LogicVersion, &cfg, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
			return nil, err
		}
		if len(cfg) > 0 && string(cfg) != "null" {
			if err := json.Unmarshal(cfg, &sv.ScoreConfig); err != nil {
				log.Printf("postgres store: decode score config for %s: %v", sv.ID, err)
			}
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

// questions

func (s *PostgresStore) InsertQuestion(q *models.Question) (*models.Question, error) {
	doc, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(s.ctx(), `INSERT INTO questions (id, survey_id, ord, doc) VALUES ($1, $2, $3, $4)`,
		q.ID, q.SurveyID, q.Order, doc)
	if err != nil {
		return nil, err
	}
	cp := *q
	return &cp, nil
}

func (s *PostgresStore) GetQuestion(id string) (*models.Question, error) {
	var doc []byte
	err := s.pool.QueryRow(s.ctx(), `SELECT doc FROM questions WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := json.Unmarshal(doc, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *PostgresStore) UpdateQuestion(q *models.Question) error {
	doc, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(s.ctx(), `UPDATE questions SET ord = $1, doc = $2 WHERE id = $3`, q.Order, doc, q.ID)
	return err
}

func (s *PostgresStore) DeleteQuestion(id string) error {
	_, err := s.pool.Exec(s.ctx(), `DELETE FROM questions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ListQuestions(surveyID string) ([]*models.Question, error) {
	rows, err := s.pool.Query(s.ctx(), `SELECT doc FROM questions WHERE survey_id = $1 ORDER BY ord, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Question{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var q models.Question
		if err := json.Unmarshal(doc, &q); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ReorderQuestions(surveyID string, order []string) (bool, error) {
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
	tx, err := s.pool.Begin(s.ctx())
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(s.ctx()) }()
	for i, qid := range order {
		q := byID[qid]
		q.Order = i
		doc, err := json.Marshal(q)
		if err != nil {
			return false, err
		}
		if _, err := tx.Exec(s.ctx(), `UPDATE questions SET ord = $1, doc = $2 WHERE id = $3`, i, doc, qid); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(s.ctx())
}

// versions

func (s *PostgresStore) InsertVersion(v *models.SurveyVersion) error {
	snap, err := json.Marshal(v.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(s.ctx(), `INSERT INTO survey_versions (survey_id, version, content_hash, snapshot, published_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.SurveyID, v.Version, v.ContentHash, snap, v.PublishedAt)
	return err
}

func (s *PostgresStore) LatestVersion(surveyID string) (*models.SurveyVersion, error) {
	return scanPgVersion(s.pool.QueryRow(s.ctx(), `SELECT survey_id, version, content_hash, snapshot, published_at
		FROM survey_versions WHERE survey_id = $1 ORDER BY version DESC LIMIT 1`, surveyID))
}

func (s *PostgresStore) GetVersion(surveyID string, version int) (*models.SurveyVersion, error) {
	return scanPgVersion(s.pool.QueryRow(s.ctx(), `SELECT survey_id, version, content_hash, snapshot, published_at
		FROM survey_versions WHERE survey_id = $1 AND version = $2`, surveyID, version))
}

func scanPgVersion(row pgx.Row) (*models.SurveyVersion, error) {
	var v models.SurveyVersion
	var snap []byte
	err := row.Scan(&v.SurveyID, &v.Version, &v.ContentHash, &snap, &v.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snap, &v.Snapshot); err != nil {
		return nil, err
	}
	return &v, nil
}

// responses

func (s *PostgresStore) InsertResponse(r *models.Response) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(s.ctx(), `INSERT INTO responses (id, survey_id, survey_version, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.SurveyID, r.SurveyVersion, answers, r.SubmittedAt)
	return err
}

func (s *PostgresStore) GetResponse(id string) (*models.Response, error) {
	var r models.Response
	var answers []byte
	err := s.pool.QueryRow(s.ctx(), `SELECT id, survey_id, survey_version, answers, submitted_at
		FROM responses WHERE id = $1`, id).
		Scan(&r.ID, &r.SurveyID, &r.SurveyVersion, &answers, &r.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &r.Answers); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListResponsesBySurvey(surveyID string) ([]*models.Response, error) {
	rows, err := s.pool.Query(s.ctx(), `SELECT id, survey_id, survey_version, answers, submitted_at
		FROM responses WHERE survey_id = $1 ORDER BY id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Response{}
	for rows.Next() {
		var r models.Response
		var answers []byte
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.SurveyVersion, &answers, &r.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteResponsesBySurvey(surveyID string) (int, error) {
	tag, err := s.pool.Exec(s.ctx(), `DELETE FROM responses WHERE survey_id = $1`, surveyID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// tenants & users

func (s *PostgresStore) AddTenant(t *models.Tenant) error {
	_, err := s.pool.Exec(s.ctx(), `INSERT INTO tenants (id, name) VALUES ($1, $2)`, t.ID, t.Name)
	return err
}

func (s *PostgresStore) AddUser(u *models.User) error {
	_, err := s.pool.Exec(s.ctx(), `INSERT INTO users (id, email, pass_hash, tenant_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PassHash, u.TenantID, u.CreatedAt)
	return err
}

func (s *PostgresStore) FindUserByEmail(email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(s.ctx(), `SELECT id, email, pass_hash, tenant_id, created_at FROM users WHERE LOWER(email) = LOWER($1)`,
		strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.PassHash, &u.TenantID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// collaborators

func (s *PostgresStore) ListCollaborators(surveyID string) ([]models.Collaborator, error) {
	rows, err := s.pool.Query(s.ctx(), `SELECT user_id, email, role FROM collaborators WHERE survey_id = $1 ORDER BY user_id`, surveyID)
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

func (s *PostgresStore) AddCollaborator(surveyID, userID, role string) (bool, error) {
	var email string
	err := s.pool.QueryRow(s.ctx(), `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	_, err = s.pool.Exec(s.ctx(), `INSERT INTO collaborators (survey_id, user_id, email, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (survey_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		surveyID, userID, email, role)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) RemoveCollaborator(surveyID, userID string) (bool, error) {
	tag, err := s.pool.Exec(s.ctx(), `DELETE FROM collaborators WHERE survey_id = $1 AND user_id = $2`, surveyID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// audit

func (s *PostgresStore) AddAudit(entry models.AuditEntry) {
	_, err := s.pool.Exec(s.ctx(), `INSERT INTO audit_log (time, actor, action, target, note) VALUES ($1, $2, $3, $4, $5)`,
		entry.Time, entry.Actor, entry.Action, entry.Target, entry.Note)
	if err != nil {
		log.Printf("postgres store: add audit: %v", err)
	}
}

func (s *PostgresStore) ListAudit() []models.AuditEntry {
	rows, err := s.pool.Query(s.ctx(), `SELECT time, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		log.Printf("postgres store: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	out := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.Time, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("postgres store: scan audit: %v", err)
			return out
		}
		out = append(out, e)
	}
	return out
}

// NewPostgresPool connects a pgxpool with the given settings.
func NewPostgresPool(ctx context.Context, dsn string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}
