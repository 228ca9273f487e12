package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/canvasslabs/canvass/internal/middleware"
	"github.com/canvasslabs/canvass/internal/services"
)

// Router wires the HTTP surface to the service layer. Handlers stay thin:
// decode, call a service, encode. All domain decisions live in services.
type Router struct {
	store    Store
	validate *validator.Validate

	auth     *services.AuthService
	surveys  *services.SurveyService
	checks   *services.ValidationService
	runs     *services.ResponseService
	results  *services.ResultsService
	collab   *services.CollaboratorService
	exports  *services.ExportService
}

func NewRouter(store Store, signer services.TokenSigner) *Router {
	return &Router{
		store:    store,
		validate: validator.New(),
		auth:     services.NewAuthService(store, signer),
		surveys:  services.NewSurveyService(store),
		checks:   services.NewValidationService(store),
		runs:     services.NewResponseService(store),
		results:  services.NewResultsService(store),
		collab:   services.NewCollaboratorService(store),
		exports:  services.NewExportService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST

	mux.Handle("/api/surveys", middleware.RequireAuth(http.HandlerFunc(rt.handleSurveys)))
	mux.Handle("/api/surveys/", middleware.RequireAuth(http.HandlerFunc(rt.handleSurveyScoped)))
	mux.Handle("/api/audit", middleware.RequireAuth(http.HandlerFunc(rt.handleAudit)))

	// Respondent endpoints are public by design; a survey id is the only
	// capability a respondent holds.
	mux.HandleFunc("/api/run/", rt.handleRunScoped)
	mux.HandleFunc("/api/responses/", rt.handleResponseScoped)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service error codes onto HTTP statuses; anything
// unrecognized is a 500 with a generic body so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": se.Message, "code": string(se.Code)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	TenantName string `json:"tenant_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string `json:"token"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.TenantName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, TenantID: res.TenantID, UserID: res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, TenantID: res.TenantID, UserID: res.UserID})
}

// GET /api/audit
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": rt.store.ListAudit()})
}

// GET  /api/run/{id}           published snapshot for the player
// POST /api/run/{id}/next      next-question stepping
// POST /api/run/{id}/responses final submission
func (rt *Router) handleRunScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/run/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	surveyID := parts[0]
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		version, err := rt.runs.PublishedSurvey(surveyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, version)
	case len(parts) == 2 && parts[1] == "next":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req services.AdvanceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.SurveyID = surveyID
		res, err := rt.runs.Advance(req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case len(parts) == 2 && parts[1] == "responses":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req services.SubmitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.SurveyID = surveyID
		resp, err := rt.runs.Submit(req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	default:
		http.NotFound(w, r)
	}
}

// GET /api/responses/{rid}/results
func (rt *Router) handleResponseScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/responses/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "results" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	out, err := rt.results.Results(parts[0])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
