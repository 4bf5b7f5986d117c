package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"classboard/internal/domain"
	"classboard/internal/service"
	"classboard/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LeaderboardHandler struct {
	leaderboards *service.LeaderboardService
	exports      *service.ExportService
	logger       *logger.Logger
}

func NewLeaderboardHandler(leaderboards *service.LeaderboardService, exports *service.ExportService, logger *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards, exports: exports, logger: logger}
}

// SessionLeaderboard handles GET /api/classes/{classID}/sessions/{sessionID}/leaderboard
func (h *LeaderboardHandler) SessionLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboards.SessionLeaderboard(r.Context(), chi.URLParam(r, "classID"), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.respondCached(w, r, board)
}

// CurrentLeaderboard handles GET /api/classes/{classID}/leaderboard
func (h *LeaderboardHandler) CurrentLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboards.CurrentLeaderboard(r.Context(), chi.URLParam(r, "classID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.respondCached(w, r, board)
}

// ExportCSV handles GET /api/classes/{classID}/sessions/{sessionID}/export.csv
func (h *LeaderboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	classID, sessionID := chi.URLParam(r, "classID"), chi.URLParam(r, "sessionID")
	data, err := h.exports.CSV(r.Context(), classID, sessionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", exportName(classID, sessionID, "csv"), data)
}

// ExportXLSX handles GET /api/classes/{classID}/sessions/{sessionID}/export.xlsx
func (h *LeaderboardHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	classID, sessionID := chi.URLParam(r, "classID"), chi.URLParam(r, "sessionID")
	data, err := h.exports.XLSX(r.Context(), classID, sessionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeAttachment(w, xlsxContentType, exportName(classID, sessionID, "xlsx"), data)
}

// respondCached answers 304 when the client already holds the current board.
func (h *LeaderboardHandler) respondCached(w http.ResponseWriter, r *http.Request, board *domain.Leaderboard) {
	etag := generateETag(board)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(board.RefreshSeconds))

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func exportName(classID, sessionID, ext string) string {
	return fmt.Sprintf("%s-%s-rankings.%s", classID, sessionID, ext)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
