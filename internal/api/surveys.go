package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/canvasslabs/canvass/internal/middleware"
	"github.com/canvasslabs/canvass/internal/models"
	"github.com/canvasslabs/canvass/internal/services"
)

const maxImportBytes = 1 << 20

// POST /api/surveys | GET /api/surveys
func (rt *Router) handleSurveys(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.TenantIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var sv models.Survey
		if !decodeJSON(w, r, &sv) {
			return
		}
		created, err := rt.surveys.CreateSurvey(tenantID, &sv)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		list, err := rt.surveys.ListSurveys(tenantID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"surveys": list})
	default:
		methodNotAllowed(w)
	}
}

// handleSurveyScoped dispatches everything under /api/surveys/{id}/...
func (rt *Router) handleSurveyScoped(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.TenantIDFromContext(r.Context())
	actor := middleware.ActorFromContext(r.Context())
	rest := strings.TrimPrefix(r.URL.Path, "/api/surveys/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	surveyID := parts[0]

	if len(parts) == 1 {
		rt.handleSurvey(w, r, tenantID, surveyID, actor)
		return
	}
	switch parts[1] {
	case "questions":
		rt.handleQuestions(w, r, tenantID, surveyID, parts[2:])
	case "score-config":
		rt.handleScoreConfig(w, r, tenantID, surveyID)
	case "validate":
		rt.handleValidate(w, r, tenantID, surveyID)
	case "publish":
		rt.handlePublish(w, r, tenantID, surveyID, actor)
	case "import":
		rt.handleImport(w, r, tenantID, surveyID)
	case "collaborators":
		rt.handleCollaborators(w, r, tenantID, surveyID, actor, parts[2:])
	case "export":
		rt.handleExport(w, r, tenantID, surveyID)
	case "responses":
		rt.handleSurveyResponses(w, r, tenantID, surveyID, actor)
	default:
		http.NotFound(w, r)
	}
}

// GET | PUT | DELETE /api/surveys/{id}
func (rt *Router) handleSurvey(w http.ResponseWriter, r *http.Request, tenantID, surveyID, actor string) {
	switch r.Method {
	case http.MethodGet:
		sv, err := rt.surveys.GetSurvey(tenantID, surveyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sv)
	case http.MethodPut:
		var upd services.SurveyUpdate
		if !decodeJSON(w, r, &upd) {
			return
		}
		sv, err := rt.surveys.UpdateSurvey(tenantID, surveyID, upd, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sv)
	case http.MethodDelete:
		if err := rt.surveys.DeleteSurvey(tenantID, surveyID, actor); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		methodNotAllowed(w)
	}
}

// /api/surveys/{id}/questions[...]
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request, tenantID, surveyID string, tail []string) {
	switch {
	case len(tail) == 0:
		switch r.Method {
		case http.MethodPost:
			var q models.Question
			if !decodeJSON(w, r, &q) {
				return
			}
			created, err := rt.surveys.AddQuestion(tenantID, surveyID, &q)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		case http.MethodGet:
			if _, err := rt.surveys.GetSurvey(tenantID, surveyID); err != nil {
				writeServiceError(w, err)
				return
			}
			qs, err := rt.surveys.ListQuestions(surveyID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
		default:
			methodNotAllowed(w)
		}
	case len(tail) == 1 && tail[0] == "reorder":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Order []string `json:"order"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		n, err := rt.surveys.ReorderQuestions(tenantID, surveyID, req.Order)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
	case len(tail) == 1:
		questionID := tail[0]
		switch r.Method {
		case http.MethodPut:
			var q models.Question
			if !decodeJSON(w, r, &q) {
				return
			}
			q.ID = questionID
			if err := rt.surveys.UpdateQuestion(tenantID, surveyID, &q); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		case http.MethodDelete:
			if err := rt.surveys.DeleteQuestion(tenantID, surveyID, questionID); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			methodNotAllowed(w)
		}
	case len(tail) == 2 && tail[1] == "rules":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Rules []models.LogicRule `json:"rules"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		q, err := rt.surveys.ReplaceRules(tenantID, surveyID, tail[0], req.Rules)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	default:
		http.NotFound(w, r)
	}
}

// PUT /api/surveys/{id}/score-config
func (rt *Router) handleScoreConfig(w http.ResponseWriter, r *http.Request, tenantID, surveyID string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var cfg models.ScoreConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	sv, err := rt.surveys.SetScoreConfig(tenantID, surveyID, &cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// GET /api/surveys/{id}/validate
func (rt *Router) handleValidate(w http.ResponseWriter, r *http.Request, tenantID, surveyID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	report, err := rt.checks.Report(tenantID, surveyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// POST /api/surveys/{id}/publish
func (rt *Router) handlePublish(w http.ResponseWriter, r *http.Request, tenantID, surveyID, actor string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	version, issues, err := rt.surveys.Publish(tenantID, surveyID, actor)
	if err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorConflict {
			writeJSON(w, http.StatusConflict, map[string]any{"error": se.Message, "issues": issues})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": version, "issues": issues})
}

// POST /api/surveys/{id}/import  (CSV request body)
func (rt *Router) handleImport(w http.ResponseWriter, r *http.Request, tenantID, surveyID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	n, err := rt.surveys.ImportQuestionsCSV(tenantID, surveyID, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "imported": n})
}

// /api/surveys/{id}/collaborators[...]
func (rt *Router) handleCollaborators(w http.ResponseWriter, r *http.Request, tenantID, surveyID, actor string, tail []string) {
	switch {
	case len(tail) == 0 && r.Method == http.MethodGet:
		list, err := rt.collab.List(tenantID, surveyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"collaborators": list})
	case len(tail) == 0 && r.Method == http.MethodPost:
		var req struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := rt.collab.Add(tenantID, surveyID, req.Email, req.Role, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	case len(tail) == 1 && r.Method == http.MethodDelete:
		if err := rt.collab.Remove(tenantID, surveyID, tail[0], actor); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		methodNotAllowed(w)
	}
}

// GET /api/surveys/{id}/export?format=long|wide|scores
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request, tenantID, surveyID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	b, filename, err := rt.exports.BuildExport(tenantID, surveyID, r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(b)
}

// DELETE /api/surveys/{id}/responses
func (rt *Router) handleSurveyResponses(w http.ResponseWriter, r *http.Request, tenantID, surveyID, actor string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	n, err := rt.surveys.DeleteSurveyResponses(tenantID, surveyID, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": n})
}
