package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classboard/internal/domain"
	"classboard/internal/middleware"
	"classboard/internal/service"
	"classboard/pkg/errors"
	"classboard/pkg/logger"
)

type VoteHandler struct {
	votes  *service.VoteService
	logger *logger.Logger
}

func NewVoteHandler(votes *service.VoteService, logger *logger.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// MyVoteResponse reports the caller's live peer vote, if any
type MyVoteResponse struct {
	HasVoted bool             `json:"has_voted"`
	Vote     *domain.PeerVote `json:"vote,omitempty"`
}

// SubmitPeerVote handles POST /api/classes/{classID}/sessions/{sessionID}/votes
func (h *VoteHandler) SubmitPeerVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondError(w, r, h.logger, errors.NewAuthenticationError("Authentication required"))
		return
	}

	var req domain.PeerVoteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	key := sessionKey(r)
	vote, err := h.votes.SubmitPeerVote(r.Context(), key, identity.UserID, req.TeamID, req.Ratings, req.SuperVote)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	edits := len(vote.EditedHistory)
	status, message := http.StatusCreated, "Vote recorded"
	if edits > 0 {
		status, message = http.StatusOK, "Vote updated"
	}
	respondJSON(w, status, domain.VoteResponse{
		ClassID:   key.ClassID,
		SessionID: key.SessionID,
		TeamID:    vote.TeamID,
		Edited:    edits > 0,
		Edits:     edits,
		Timestamp: vote.UpdatedAt,
		Message:   message,
	})
}

// MyVote handles GET /api/classes/{classID}/sessions/{sessionID}/votes/me
func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondError(w, r, h.logger, errors.NewAuthenticationError("Authentication required"))
		return
	}

	vote, err := h.votes.GetPeerVote(r.Context(), sessionKey(r), identity.UserID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, MyVoteResponse{HasVoted: vote != nil, Vote: vote})
}

// SubmitTeacherVote handles POST /api/classes/{classID}/sessions/{sessionID}/teacher-votes
func (h *VoteHandler) SubmitTeacherVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if !identity.IsAdmin() {
		respondError(w, r, h.logger, errors.NewAuthorizationError("Admin access required"))
		return
	}

	var req domain.TeacherVoteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	key := sessionKey(r)
	vote, err := h.votes.SubmitTeacherVote(r.Context(), key, identity.UserID, req.TeamID, req.Ratings)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.VoteResponse{
		ClassID:   key.ClassID,
		SessionID: key.SessionID,
		TeamID:    vote.TeamID,
		Timestamp: vote.UpdatedAt,
		Message:   "Evaluation recorded",
	})
}

func sessionKey(r *http.Request) domain.SessionKey {
	return domain.SessionKey{
		ClassID:   chi.URLParam(r, "classID"),
		SessionID: chi.URLParam(r, "sessionID"),
	}
}
