package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteSubmitted_CountsByLabel(t *testing.T) {
	m := New()

	m.VoteSubmitted(KindPeer, OutcomeCreated)
	m.VoteSubmitted(KindPeer, OutcomeCreated)
	m.VoteSubmitted(KindTeacher, OutcomeRejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.votesSubmitted.WithLabelValues(KindPeer, OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.votesSubmitted.WithLabelValues(KindTeacher, OutcomeRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.votesSubmitted.WithLabelValues(KindPeer, OutcomeEdited)))
}

func TestObserveAggregation_SplitsByStatus(t *testing.T) {
	m := New()

	m.ObserveAggregation(10*time.Millisecond, nil)
	m.ObserveAggregation(10*time.Millisecond, errors.New("store down"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.aggregationDuration))
}

func TestSetLeaderboardTeams(t *testing.T) {
	m := New()
	m.SetLeaderboardTeams("c1", 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.leaderboardTeams.WithLabelValues("c1")))
}

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.VoteSubmitted(KindPeer, OutcomeCreated)
		m.ObserveAggregation(time.Second, nil)
		m.SetLeaderboardTeams("c1", 1)
		m.ObserveHTTP("/health", http.MethodGet, http.StatusOK, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.VoteSubmitted(KindPeer, OutcomeEdited)
	m.ObserveHTTP("/health", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `classboard_votes_submitted_total{kind="peer",outcome="edited"} 1`)
	assert.Contains(t, body, "classboard_http_requests_total")
	assert.Contains(t, body, "go_goroutines")
}
