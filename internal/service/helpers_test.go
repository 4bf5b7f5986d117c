package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classboard/internal/config"
	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/pkg/metrics"
	"classboard/pkg/redis"
)

// fakeClock hands out strictly increasing times.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type testEnv struct {
	mr          *miniredis.Miniredis
	repos       *repository.Repositories
	metrics     *metrics.Metrics
	clock       *fakeClock
	votes       *VoteService
	scores      *ScoreService
	sessions    *SessionService
	leaderboard *LeaderboardService
	exports     *ExportService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	pool, err := config.LoadCategoryPool("")
	require.NoError(t, err)

	logger := zap.NewNop()
	m := metrics.New()
	repos := repository.NewRedisRepositories(client)
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	ids := 0
	sessions := NewSessionService(repos, pool, logger)
	sessions.now = clock.Now
	sessions.newID = func() string {
		ids++
		return "gen-" + string(rune('a'+ids-1))
	}

	votes := NewVoteService(repos.Sessions, repos.Votes, m, logger)
	votes.now = clock.Now

	scores := NewScoreService(repos.Votes, m, logger)

	return &testEnv{
		mr:          mr,
		repos:       repos,
		metrics:     m,
		clock:       clock,
		votes:       votes,
		scores:      scores,
		sessions:    sessions,
		leaderboard: NewLeaderboardService(sessions, scores, repos.Teams, 5*time.Second, m, logger),
		exports:     NewExportService(sessions, scores, repos.Teams, logger),
	}
}

// seedSession creates class c1 with an open session s1 rating clarity and
// delivery at 60% peers / 40% teacher.
func (e *testEnv) seedSession(t *testing.T, mutate func(*domain.CreateSessionRequest)) domain.SessionKey {
	t.Helper()
	ctx := context.Background()

	_, err := e.sessions.CreateClass(ctx, &domain.CreateClassRequest{ID: "c1", Name: "Rhetoric 101"})
	require.NoError(t, err)

	teacher, peers := 40, 60
	req := &domain.CreateSessionRequest{
		ID:          "s1",
		Title:       "Pitch day",
		CategoryIDs: []string{"clarity", "delivery"},
		TeacherPct:  &teacher,
		PeersPct:    &peers,
		Status:      "open",
	}
	if mutate != nil {
		mutate(req)
	}
	_, err = e.sessions.CreateSession(ctx, "c1", req)
	require.NoError(t, err)

	return domain.SessionKey{ClassID: "c1", SessionID: "s1"}
}

// metricsCounter reads classboard_votes_submitted_total for one label pair.
func (e *testEnv) metricsCounter(t *testing.T, kind, outcome string) float64 {
	t.Helper()
	families, err := e.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "classboard_votes_submitted_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == kind && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
