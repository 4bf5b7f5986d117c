package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/internal/scoring"
	apperrors "classboard/pkg/errors"
	"classboard/pkg/metrics"
)

// VoteService validates and writes rating records.
type VoteService struct {
	sessions repository.SessionRepository
	votes    repository.VoteRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewVoteService(sessions repository.SessionRepository, votes repository.VoteRepository, m *metrics.Metrics, logger *zap.Logger) *VoteService {
	return &VoteService{
		sessions: sessions,
		votes:    votes,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitPeerVote creates or amends the voter's single record for the session.
// An amendment pushes the previous ratings onto the edit history and keeps
// the original creation time. Concurrent submissions by the same voter are
// last-write-wins.
func (s *VoteService) SubmitPeerVote(
	ctx context.Context,
	key domain.SessionKey,
	voterID, teamID string,
	ratings domain.Ratings,
	superVote bool,
) (*domain.PeerVote, error) {
	log := s.logger.With(
		zap.String("class_id", key.ClassID),
		zap.String("session_id", key.SessionID),
		zap.String("team_id", teamID),
	)

	session, err := s.writableSession(ctx, key, voterID, teamID)
	if err != nil {
		s.record(metrics.KindPeer, err)
		return nil, err
	}

	if err := scoring.ValidatePeerRatings(ratings, session.Categories); err != nil {
		s.metrics.VoteSubmitted(metrics.KindPeer, metrics.OutcomeRejected)
		log.Debug("peer vote rejected", zap.Error(err))
		return nil, err
	}

	existing, err := s.votes.GetPeerVote(ctx, key, voterID)
	if err != nil {
		s.metrics.VoteSubmitted(metrics.KindPeer, metrics.OutcomeFailed)
		return nil, err
	}

	now := s.now()
	vote := &domain.PeerVote{
		UserID:    voterID,
		TeamID:    teamID,
		Ratings:   ratings.Clone(),
		SuperVote: superVote,
		CreatedAt: now,
		UpdatedAt: now,
	}

	outcome := metrics.OutcomeCreated
	if existing != nil {
		if !session.AllowEditsUntilClose {
			s.metrics.VoteSubmitted(metrics.KindPeer, metrics.OutcomeRejected)
			return nil, apperrors.NewConflictError("vote edits are disabled for this session", map[string]interface{}{
				"session_id": key.SessionID,
			})
		}
		history := make([]domain.HistoryEntry, 0, len(existing.EditedHistory)+1)
		history = append(history, existing.EditedHistory...)
		history = append(history, domain.HistoryEntry{Timestamp: now, Ratings: existing.Ratings})
		vote.EditedHistory = history
		vote.CreatedAt = existing.CreatedAt
		outcome = metrics.OutcomeEdited
	}

	if err := s.votes.PutPeerVote(ctx, key, vote); err != nil {
		s.metrics.VoteSubmitted(metrics.KindPeer, metrics.OutcomeFailed)
		log.Error("failed to write peer vote", zap.Error(err))
		return nil, err
	}

	s.metrics.VoteSubmitted(metrics.KindPeer, outcome)
	log.Info("peer vote stored",
		zap.String("outcome", outcome),
		zap.Int("edits", len(vote.EditedHistory)))
	return vote, nil
}

// SubmitTeacherVote overwrites the evaluator's single record for the session.
// Both timestamps are reset and no history is kept.
func (s *VoteService) SubmitTeacherVote(
	ctx context.Context,
	key domain.SessionKey,
	evaluatorID, teamID string,
	ratings domain.Ratings,
) (*domain.TeacherVote, error) {
	if _, err := s.writableSession(ctx, key, evaluatorID, teamID); err != nil {
		s.record(metrics.KindTeacher, err)
		return nil, err
	}

	if err := scoring.ValidateTeacherRatings(ratings); err != nil {
		s.metrics.VoteSubmitted(metrics.KindTeacher, metrics.OutcomeRejected)
		return nil, err
	}

	now := s.now()
	clean := ratings.Clone()
	if clean == nil {
		clean = domain.Ratings{}
	}
	vote := &domain.TeacherVote{
		UserID:    evaluatorID,
		TeamID:    teamID,
		Ratings:   clean,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.votes.PutTeacherVote(ctx, key, vote); err != nil {
		s.metrics.VoteSubmitted(metrics.KindTeacher, metrics.OutcomeFailed)
		s.logger.Error("failed to write teacher vote",
			zap.String("class_id", key.ClassID),
			zap.String("session_id", key.SessionID),
			zap.Error(err))
		return nil, err
	}

	s.metrics.VoteSubmitted(metrics.KindTeacher, metrics.OutcomeCreated)
	s.logger.Info("teacher vote stored",
		zap.String("class_id", key.ClassID),
		zap.String("session_id", key.SessionID),
		zap.String("team_id", teamID))
	return vote, nil
}

// GetPeerVote returns the caller's live record, or nil when they have not voted.
func (s *VoteService) GetPeerVote(ctx context.Context, key domain.SessionKey, voterID string) (*domain.PeerVote, error) {
	session, err := s.sessions.GetSession(ctx, key.ClassID, key.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	return s.votes.GetPeerVote(ctx, key, voterID)
}

func (s *VoteService) writableSession(ctx context.Context, key domain.SessionKey, voterID, teamID string) (*domain.Session, error) {
	if voterID == "" {
		return nil, apperrors.NewValidationError("voter id is required", nil)
	}
	if teamID == "" {
		return nil, apperrors.NewValidationError("team id is required", nil)
	}

	session, err := s.sessions.GetSession(ctx, key.ClassID, key.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if !session.Status.AcceptsVotes() {
		return nil, apperrors.NewConflictError("session is not accepting votes", map[string]interface{}{
			"session_id": key.SessionID,
			"status":     session.Status,
		})
	}
	return session, nil
}

func (s *VoteService) record(kind string, err error) {
	if apperrors.IsType(err, apperrors.ErrorTypeStore) {
		s.metrics.VoteSubmitted(kind, metrics.OutcomeFailed)
		return
	}
	s.metrics.VoteSubmitted(kind, metrics.OutcomeRejected)
}
