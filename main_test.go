package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/config"
	"classboard/internal/container"
	"classboard/internal/domain"
	"classboard/internal/repository"
	"classboard/pkg/logger"
	"classboard/pkg/metrics"
	"classboard/pkg/redis"
)

type testServer struct {
	*httptest.Server
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:        "test",
		AllowedOrigins:     []string{"http://localhost:5173"},
		StoreBackend:       config.StoreRedis,
		JWTSecret:          "integration-secret",
		AllowedEmailDomain: "@example.edu",
		AdminEmails:        []string{"prof@example.edu"},
		SessionTokenTTL:    time.Hour,
		LeaderboardRefresh: 5 * time.Second,
		VoteRateLimit:      100,
		VoteRateBurst:      100,
	}
	c, err := container.New(cfg, logger.NewNop(), repository.NewRedisRepositories(client), metrics.New())
	require.NoError(t, err)

	srv := httptest.NewServer(setupRouter(c))
	t.Cleanup(func() {
		srv.Close()
		_ = client.Close()
		mr.Close()
	})

	tokens := map[string]string{}
	for name, email := range map[string]string{
		"admin":    "prof@example.edu",
		"ana":      "ana@example.edu",
		"bo":       "bo@example.edu",
		"outsider": "eve@gmail.com",
	} {
		tok, err := c.GetAuthService().IssueToken(&domain.Identity{Email: email, Name: name}, time.Hour)
		require.NoError(t, err)
		tokens[name] = tok
	}
	return &testServer{Server: srv, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, who string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[who])
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body struct {
		Success bool                   `json:"success"`
		Error   map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	return body.Error
}

func seedClass(t *testing.T, s *testServer) {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/classes", "admin", map[string]string{"id": "c1", "name": "Design Studio"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for id, name := range map[string]string{"t1": "Rockets", "t2": "Comets", "t3": "Idle"} {
		resp = s.do(t, http.MethodPost, "/api/classes/c1/teams", "admin", map[string]string{"id": id, "name": name})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/api/classes/c1/sessions", "admin", map[string]interface{}{
		"id":           "s1",
		"title":        "Pitch day",
		"category_ids": []string{"clarity", "delivery"},
		"teacher_pct":  40,
		"status":       "open",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session domain.Session
	decodeData(t, resp, &session)
	require.Equal(t, domain.Weighting{TeacherPct: 40, PeersPct: 60}, session.Weighting)
	require.Equal(t, []string{"clarity", "delivery"}, session.CategoryIDs())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"name": "Design"}

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/classes", "", body).StatusCode)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/classes", "ana", body).StatusCode)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/classes", "outsider", body).StatusCode)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/classes", "admin", body).StatusCode)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/classes", "admin", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decodeError(t, resp)
	assert.Equal(t, "validation", errBody["type"])
	assert.Equal(t, map[string]interface{}{"name": "required"}, errBody["details"].(map[string]interface{})["fields"])

	resp = s.do(t, http.MethodPost, "/api/classes", "admin", map[string]string{"name": "x", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	seedClass(t, s)
	resp = s.do(t, http.MethodPost, "/api/classes/c1/sessions", "admin", map[string]interface{}{
		"category_ids": []string{"clarity", "juggling"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVotingAndLeaderboardFlow(t *testing.T) {
	s := newTestServer(t)
	seedClass(t, s)
	base := "/api/classes/c1/sessions/s1"

	resp := s.do(t, http.MethodPost, base+"/votes", "ana", map[string]interface{}{
		"team_id": "t1", "ratings": map[string]int{"clarity": 5, "delivery": 5},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, base+"/votes", "bo", map[string]interface{}{
		"team_id": "t2", "ratings": map[string]int{"clarity": 4, "delivery": 5},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Resubmission amends the single record
	resp = s.do(t, http.MethodPost, base+"/votes", "ana", map[string]interface{}{
		"team_id": "t1", "ratings": map[string]int{"clarity": 4, "delivery": 4},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var voteResp domain.VoteResponse
	decodeData(t, resp, &voteResp)
	assert.True(t, voteResp.Edited)
	assert.Equal(t, 1, voteResp.Edits)

	resp = s.do(t, http.MethodPost, base+"/votes", "bo", map[string]interface{}{
		"team_id": "t2", "ratings": map[string]int{"clarity": 6, "delivery": 3},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decodeError(t, resp)
	assert.Equal(t, "clarity", errBody["details"].(map[string]interface{})["category"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, base+"/teacher-votes", "ana", map[string]interface{}{
		"team_id": "t2", "ratings": map[string]int{"clarity": 5},
	}).StatusCode)
	resp = s.do(t, http.MethodPost, base+"/teacher-votes", "admin", map[string]interface{}{
		"team_id": "t2", "ratings": map[string]int{"clarity": 5, "delivery": 5},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, base+"/votes/me", "ana", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine struct {
		HasVoted bool             `json:"has_voted"`
		Vote     *domain.PeerVote `json:"vote"`
	}
	decodeData(t, resp, &mine)
	assert.True(t, mine.HasVoted)
	assert.Len(t, mine.Vote.EditedHistory, 1)

	resp = s.do(t, http.MethodGet, base+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=5", resp.Header.Get("Cache-Control"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var board domain.Leaderboard
	decodeData(t, resp, &board)
	require.Len(t, board.Rows, 3)
	assert.Equal(t, "t2", board.Rows[0].TeamID)
	assert.Equal(t, 9, board.Rows[0].PeerSum)
	assert.Equal(t, 10, board.Rows[0].TeacherSum)
	assert.Equal(t, 9, board.Rows[0].Combined)
	assert.Equal(t, "Comets", board.Rows[0].TeamName)
	assert.Equal(t, "t1", board.Rows[1].TeamID)
	assert.Equal(t, 4, board.Rows[1].Combined)
	assert.Equal(t, "t3", board.Rows[2].TeamID)
	assert.Equal(t, 0, board.Rows[2].Combined)
	assert.Equal(t, 2, board.PeerVotes)
	assert.Equal(t, 1, board.TeacherVotes)
	assert.Equal(t, 5, board.RefreshSeconds)

	resp = s.do(t, http.MethodGet, base+"/leaderboard", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/classes/c1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current domain.Leaderboard
	decodeData(t, resp, &current)
	assert.Equal(t, "s1", current.SessionID)

	resp = s.do(t, http.MethodGet, base+"/export.csv", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "c1-s1-rankings.csv")
	csvBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t,
		"rank,team_id,team_name,peer_score,teacher_score,combined_score\n"+
			"1,t2,Comets,9,10,9\n"+
			"2,t1,Rockets,8,0,4\n",
		string(csvBody))

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, base+"/export.xlsx", "ana", nil).StatusCode)
	resp = s.do(t, http.MethodGet, base+"/export.xlsx", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	resp = s.do(t, http.MethodPost, base+"/status", "admin", map[string]string{"status": "closed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, base+"/votes", "bo", map[string]interface{}{
		"team_id": "t2", "ratings": map[string]int{"clarity": 5, "delivery": 5},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, base+"/status", "admin", map[string]string{"status": "scheduled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/auth/me", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me domain.Identity
	decodeData(t, resp, &me)
	assert.Equal(t, domain.RoleAdmin, me.Role)

	// Session tokens cannot renew themselves
	resp = s.do(t, http.MethodPost, "/api/auth/token", "ana", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "authentication", decodeError(t, resp)["type"])
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/token", "", nil).StatusCode)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "", nil).StatusCode)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pool struct {
		Categories []domain.Category `json:"categories"`
		Defaults   []string          `json:"defaults"`
	}
	decodeData(t, resp, &pool)
	assert.Len(t, pool.Categories, 8)
	assert.Len(t, pool.Defaults, 5)

	resp = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `classboard_http_requests_total{code="200",method="GET",route="/health"}`)

	resp = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
