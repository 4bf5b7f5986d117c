package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/domain"
	apperrors "classboard/pkg/errors"
)

func rowIDs(board *domain.Leaderboard) []string {
	ids := make([]string, len(board.Rows))
	for i, r := range board.Rows {
		ids[i] = r.TeamID
	}
	return ids
}

func TestSessionLeaderboard_SeedsTeamsAndBreaksTies(t *testing.T) {
	env := setupTestEnv(t)
	key := env.seedSession(t, nil)
	ctx := context.Background()

	for _, tm := range []domain.CreateTeamRequest{
		{ID: "owls", Name: "Owls"},
		{ID: "bees", Name: "Bees"},
		{ID: "ants", Name: "Ants"},
	} {
		_, err := env.sessions.CreateTeam(ctx, "c1", &tm)
		require.NoError(t, err)
	}

	// owls and ghost tie on 6; ants has no votes.
	_, err := env.votes.SubmitPeerVote(ctx, key, "v1", "owls", domain.Ratings{"clarity": 5, "delivery": 5}, false)
	require.NoError(t, err)
	_, err = env.votes.SubmitPeerVote(ctx, key, "v2", "ghost", domain.Ratings{"clarity": 5, "delivery": 5}, false)
	require.NoError(t, err)
	_, err = env.votes.SubmitPeerVote(ctx, key, "v3", "bees", domain.Ratings{"clarity": 5, "delivery": 5}, false)
	require.NoError(t, err)
	_, err = env.votes.SubmitTeacherVote(ctx, key, "prof", "bees", domain.Ratings{"clarity": 5, "delivery": 5})
	require.NoError(t, err)

	board, err := env.leaderboard.SessionLeaderboard(ctx, "c1", "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"bees", "ghost", "owls", "ants"}, rowIDs(board))
	for i, r := range board.Rows {
		assert.Equal(t, i+1, r.Rank)
	}

	assert.Equal(t, "Bees", board.Rows[0].TeamName)
	assert.Equal(t, 10, board.Rows[0].Combined)
	assert.Equal(t, "ghost", board.Rows[1].TeamName, "unknown team falls back to its id")
	assert.Equal(t, 0, board.Rows[3].Combined)
	assert.Contains(t, board.Rows[3].Cats, "clarity")
	assert.NotEmpty(t, board.Rows[0].Color)

	require.NotNil(t, board.Leader)
	assert.Equal(t, "bees", board.Leader.TeamID)
	assert.Equal(t, 3, board.PeerVotes)
	assert.Equal(t, 1, board.TeacherVotes)
	assert.Equal(t, 5, board.RefreshSeconds)
	assert.Equal(t, "Pitch day", board.SessionTitle)

	again, err := env.leaderboard.SessionLeaderboard(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, rowIDs(board), rowIDs(again))
}

func TestSessionLeaderboard_Empty(t *testing.T) {
	env := setupTestEnv(t)
	env.seedSession(t, nil)

	board, err := env.leaderboard.SessionLeaderboard(context.Background(), "c1", "s1")
	require.NoError(t, err)
	assert.Empty(t, board.Rows)
	assert.Nil(t, board.Leader)
}

func TestSessionLeaderboard_HiddenSessions(t *testing.T) {
	env := setupTestEnv(t)
	env.seedSession(t, nil)
	ctx := context.Background()

	_, err := env.leaderboard.SessionLeaderboard(ctx, "c1", "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusClosed)
	require.NoError(t, err)
	_, err = env.leaderboard.SessionLeaderboard(ctx, "c1", "s1")
	require.NoError(t, err, "closed sessions stay visible")

	_, err = env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusArchived)
	require.NoError(t, err)
	_, err = env.leaderboard.SessionLeaderboard(ctx, "c1", "s1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCurrentLeaderboard_PicksOpenSession(t *testing.T) {
	env := setupTestEnv(t)
	env.seedSession(t, nil)
	ctx := context.Background()

	_, err := env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{ID: "s2"})
	require.NoError(t, err)

	board, err := env.leaderboard.CurrentLeaderboard(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "s1", board.SessionID)
}
