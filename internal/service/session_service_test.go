package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/domain"
	apperrors "classboard/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestCreateSession_Defaults(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.CreateClass(ctx, &domain.CreateClassRequest{ID: "c1", Name: "Rhetoric"})
	require.NoError(t, err)

	first, err := env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Session 1", first.Title)
	assert.Equal(t, domain.StatusScheduled, first.Status)
	assert.Nil(t, first.OpenedAt)
	assert.True(t, first.AllowEditsUntilClose)
	assert.Equal(t, domain.Weighting{TeacherPct: 50, PeersPct: 50}, first.Weighting)
	assert.Equal(t, []string{"clarity", "evidence", "creativity", "delivery", "visuals"}, first.CategoryIDs())
	assert.NotEmpty(t, first.ID)
	assert.NotNil(t, first.Tags)

	second, err := env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{TeacherPct: intPtr(30)})
	require.NoError(t, err)
	assert.Equal(t, "Session 2", second.Title)
	assert.Equal(t, domain.Weighting{TeacherPct: 30, PeersPct: 70}, second.Weighting)
}

func TestResolveWeighting(t *testing.T) {
	tests := []struct {
		name    string
		teacher *int
		peers   *int
		want    domain.Weighting
	}{
		{"defaults", nil, nil, domain.Weighting{TeacherPct: 50, PeersPct: 50}},
		{"teacher only", intPtr(20), nil, domain.Weighting{TeacherPct: 20, PeersPct: 80}},
		{"peers only", nil, intPtr(90), domain.Weighting{TeacherPct: 10, PeersPct: 90}},
		{"both, sum not enforced", intPtr(70), intPtr(70), domain.Weighting{TeacherPct: 70, PeersPct: 70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveWeighting(tt.teacher, tt.peers))
		})
	}
}

func TestCreateSession_Errors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.CreateSession(ctx, "nope", &domain.CreateSessionRequest{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	env.seedSession(t, nil)

	_, err = env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{CategoryIDs: []string{"clarity", "juggling"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{ID: "s1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestSetStatus_Lifecycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.seedSession(t, func(r *domain.CreateSessionRequest) { r.Status = "" })

	sess, err := env.sessions.GetSession(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, sess.Status)

	_, err = env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusClosed)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "scheduled cannot jump to closed")

	opened, err := env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusOpen)
	require.NoError(t, err)
	require.NotNil(t, opened.OpenedAt)

	same, err := env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusOpen)
	require.NoError(t, err)
	assert.True(t, opened.OpenedAt.Equal(*same.OpenedAt), "repeating a status does not restamp")

	closed, err := env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusClosed)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	reopened, err := env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusOpen)
	require.NoError(t, err)
	assert.True(t, reopened.OpenedAt.After(*opened.OpenedAt))

	_, err = env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusClosed)
	require.NoError(t, err)
	archived, err := env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusArchived)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)

	_, err = env.sessions.SetStatus(ctx, "c1", "s1", domain.StatusOpen)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "archiving is final")

	stored, err := env.repos.Sessions.GetSession(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, stored.Status)
}

func TestCurrentSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.CreateClass(ctx, &domain.CreateClassRequest{ID: "c1", Name: "Rhetoric"})
	require.NoError(t, err)

	_, err = env.sessions.CurrentSession(ctx, "c1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	for _, id := range []string{"a", "b", "c"} {
		_, err := env.sessions.CreateSession(ctx, "c1", &domain.CreateSessionRequest{ID: id})
		require.NoError(t, err)
	}

	current, err := env.sessions.CurrentSession(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c", current.ID, "latest visible when nothing is open")

	_, err = env.sessions.SetStatus(ctx, "c1", "b", domain.StatusOpen)
	require.NoError(t, err)
	current, err = env.sessions.CurrentSession(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "b", current.ID, "open session wins")

	for _, st := range []domain.SessionStatus{domain.StatusClosed, domain.StatusArchived} {
		_, err = env.sessions.SetStatus(ctx, "c1", "b", st)
		require.NoError(t, err)
	}
	current, err = env.sessions.CurrentSession(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c", current.ID)
}

func TestClassesAndTeams(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	class, err := env.sessions.CreateClass(ctx, &domain.CreateClassRequest{Name: "Generated id"})
	require.NoError(t, err)
	assert.Equal(t, "gen-a", class.ID)

	_, err = env.sessions.CreateClass(ctx, &domain.CreateClassRequest{ID: "gen-a", Name: "Dup"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	_, err = env.sessions.CreateTeam(ctx, "missing", &domain.CreateTeamRequest{Name: "Owls"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	team, err := env.sessions.CreateTeam(ctx, class.ID, &domain.CreateTeamRequest{ID: "owls", Name: "Owls"})
	require.NoError(t, err)
	assert.Equal(t, class.ID, team.ClassID)

	teams, err := env.sessions.ListTeams(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	classes, err := env.sessions.ListClasses(ctx, false)
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}
