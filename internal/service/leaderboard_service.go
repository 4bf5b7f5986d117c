package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/internal/scoring"
	apperrors "classboard/pkg/errors"
	"classboard/pkg/metrics"
)

// LeaderboardService builds the public ranking of a session.
type LeaderboardService struct {
	sessions *SessionService
	scores   *ScoreService
	teams    repository.TeamRepository
	refresh  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewLeaderboardService(
	sessions *SessionService,
	scores *ScoreService,
	teams repository.TeamRepository,
	refresh time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		sessions: sessions,
		scores:   scores,
		teams:    teams,
		refresh:  refresh,
		metrics:  m,
		logger:   logger,
	}
}

// RefreshInterval is how often displays are expected to poll.
func (s *LeaderboardService) RefreshInterval() time.Duration {
	return s.refresh
}

// SessionLeaderboard ranks every team of the class for one session. Teams
// registered to the class appear with zero scores until they receive votes;
// vote records for unregistered team ids are shown under the raw id.
func (s *LeaderboardService) SessionLeaderboard(ctx context.Context, classID, sessionID string) (*domain.Leaderboard, error) {
	session, err := s.sessions.GetSession(ctx, classID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.Visible() {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	return s.build(ctx, session)
}

// CurrentLeaderboard ranks the session a class display should show.
func (s *LeaderboardService) CurrentLeaderboard(ctx context.Context, classID string) (*domain.Leaderboard, error) {
	session, err := s.sessions.CurrentSession(ctx, classID)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, session)
}

func (s *LeaderboardService) build(ctx context.Context, session *domain.Session) (*domain.Leaderboard, error) {
	key := domain.SessionKey{ClassID: session.ClassID, SessionID: session.ID}

	var (
		rows  map[string]*domain.AggregateRow
		votes *VoteSet
		teams []domain.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, votes, err = s.scores.aggregate(gctx, key, session.Categories, session.Weighting)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teams.ListTeams(gctx, session.ClassID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
		if _, ok := rows[t.ID]; !ok {
			rows[t.ID] = emptyRow(t.ID, session.Categories)
		}
	}

	standings := scoring.Rank(rows)
	board := &domain.Leaderboard{
		ClassID:        session.ClassID,
		SessionID:      session.ID,
		SessionTitle:   session.Title,
		Status:         session.Status,
		Categories:     session.Categories,
		Weighting:      session.Weighting,
		Rows:           make([]domain.LeaderboardRow, 0, len(standings)),
		PeerVotes:      len(votes.Peer),
		TeacherVotes:   len(votes.Teacher),
		RefreshSeconds: int(s.refresh / time.Second),
	}
	for _, st := range standings {
		name, ok := names[st.TeamID]
		if !ok {
			name = st.TeamID
		}
		board.Rows = append(board.Rows, domain.LeaderboardRow{
			Standing: st,
			TeamName: name,
			Color:    scoring.TeamColor(name),
		})
	}
	if len(board.Rows) > 0 {
		leader := board.Rows[0]
		board.Leader = &leader
	}

	s.metrics.SetLeaderboardTeams(session.ClassID, len(board.Rows))
	return board, nil
}

func emptyRow(teamID string, categories []domain.Category) *domain.AggregateRow {
	row := &domain.AggregateRow{
		TeamID: teamID,
		Cats:   make(map[string]domain.CategoryScore, len(categories)),
	}
	for _, c := range categories {
		row.Cats[c.ID] = domain.CategoryScore{}
	}
	return row
}
