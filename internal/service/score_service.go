package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/internal/scoring"
	"classboard/pkg/metrics"
)

// VoteSet is every rating record of one session.
type VoteSet struct {
	Peer    []domain.PeerVote
	Teacher []domain.TeacherVote
}

// ScoreService aggregates a session straight from the store. Every call
// re-reads the records.
type ScoreService struct {
	votes   repository.VoteRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewScoreService(votes repository.VoteRepository, m *metrics.Metrics, logger *zap.Logger) *ScoreService {
	return &ScoreService{votes: votes, metrics: m, logger: logger}
}

// Collect reads peer and teacher records concurrently.
func (s *ScoreService) Collect(ctx context.Context, key domain.SessionKey) (*VoteSet, error) {
	set := &VoteSet{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		set.Peer, err = s.votes.ListPeerVotes(gctx, key)
		return err
	})
	g.Go(func() error {
		var err error
		set.Teacher, err = s.votes.ListTeacherVotes(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// Aggregate returns per-team totals for the session.
func (s *ScoreService) Aggregate(
	ctx context.Context,
	key domain.SessionKey,
	categories []domain.Category,
	weighting domain.Weighting,
) (map[string]*domain.AggregateRow, error) {
	rows, _, err := s.aggregate(ctx, key, categories, weighting)
	return rows, err
}

func (s *ScoreService) aggregate(
	ctx context.Context,
	key domain.SessionKey,
	categories []domain.Category,
	weighting domain.Weighting,
) (map[string]*domain.AggregateRow, *VoteSet, error) {
	start := time.Now()
	set, err := s.Collect(ctx, key)
	s.metrics.ObserveAggregation(time.Since(start), err)
	if err != nil {
		s.logger.Warn("failed to read votes for aggregation",
			zap.String("class_id", key.ClassID),
			zap.String("session_id", key.SessionID),
			zap.Error(err))
		return nil, nil, err
	}
	return scoring.Aggregate(set.Peer, set.Teacher, categories, weighting), set, nil
}
