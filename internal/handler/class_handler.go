package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"classboard/internal/domain"
	"classboard/internal/middleware"
	"classboard/internal/service"
	"classboard/pkg/logger"
)

// ClassHandler serves classes, teams, sessions and the category pool.
type ClassHandler struct {
	sessions *service.SessionService
	logger   *logger.Logger
}

func NewClassHandler(sessions *service.SessionService, logger *logger.Logger) *ClassHandler {
	return &ClassHandler{sessions: sessions, logger: logger}
}

// CategoryPoolResponse lists the categories sessions may use
type CategoryPoolResponse struct {
	Categories []domain.Category `json:"categories"`
	Defaults   []string          `json:"defaults"`
}

// ListCategories handles GET /api/categories
func (h *ClassHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	pool := h.sessions.CategoryPool()
	defaults := make([]string, 0, pool.Defaults)
	for _, c := range pool.DefaultSet() {
		defaults = append(defaults, c.ID)
	}
	respondJSON(w, http.StatusOK, CategoryPoolResponse{
		Categories: pool.Categories,
		Defaults:   defaults,
	})
}

// ListClasses handles GET /api/classes. Archived classes are listed only
// for admins asking with include_archived=true.
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))
	if !middleware.IdentityFrom(r.Context()).IsAdmin() {
		includeArchived = false
	}

	classes, err := h.sessions.ListClasses(r.Context(), includeArchived)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, classes)
}

// CreateClass handles POST /api/classes
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClassRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	class, err := h.sessions.CreateClass(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, class)
}

// ListTeams handles GET /api/classes/{classID}/teams
func (h *ClassHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.sessions.ListTeams(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// CreateTeam handles POST /api/classes/{classID}/teams
func (h *ClassHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTeamRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	team, err := h.sessions.CreateTeam(r.Context(), chi.URLParam(r, "classID"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, team)
}

// ListSessions handles GET /api/classes/{classID}/sessions
func (h *ClassHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !middleware.IdentityFrom(r.Context()).IsAdmin() {
		visible := make([]domain.Session, 0, len(sessions))
		for _, s := range sessions {
			if s.Status.Visible() {
				visible = append(visible, s)
			}
		}
		sessions = visible
	}
	respondJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/classes/{classID}/sessions/{sessionID}
func (h *ClassHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "classID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// CreateSession handles POST /api/classes/{classID}/sessions
func (h *ClassHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), chi.URLParam(r, "classID"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// SetStatus handles POST /api/classes/{classID}/sessions/{sessionID}/status
func (h *ClassHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.SetStatusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	session, err := h.sessions.SetStatus(r.Context(),
		chi.URLParam(r, "classID"),
		chi.URLParam(r, "sessionID"),
		domain.SessionStatus(req.Status))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}
