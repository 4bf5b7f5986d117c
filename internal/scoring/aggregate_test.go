package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classboard/internal/domain"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name       string
		peer       int
		teacher    int
		weighting  domain.Weighting
		wantResult int
	}{
		{"60/40 truncates 25.2", 30, 18, domain.Weighting{PeersPct: 60, TeacherPct: 40}, 25},
		{"99/1 truncates 9.9", 10, 0, domain.Weighting{PeersPct: 99, TeacherPct: 1}, 9},
		{"even split", 10, 20, domain.Weighting{PeersPct: 50, TeacherPct: 50}, 15},
		{"shares above 100 are not normalised", 10, 10, domain.Weighting{PeersPct: 100, TeacherPct: 100}, 20},
		{"zero weights", 40, 40, domain.Weighting{}, 0},
		{"teacher only", 0, 7, domain.Weighting{PeersPct: 50, TeacherPct: 50}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantResult, Combine(tt.peer, tt.teacher, tt.weighting))
		})
	}
}

func TestAggregate_SumsAndCategories(t *testing.T) {
	peers := []domain.PeerVote{
		{UserID: "s1", TeamID: "t1", Ratings: domain.Ratings{"clarity": 5, "delivery": 4}},
		{UserID: "s2", TeamID: "t1", Ratings: domain.Ratings{"clarity": 3, "delivery": 3}},
		{UserID: "s3", TeamID: "t2", Ratings: domain.Ratings{"clarity": 2, "delivery": 2, "ignored": 5}},
	}
	teachers := []domain.TeacherVote{
		{UserID: "prof", TeamID: "t1", Ratings: domain.Ratings{"clarity": 4}},
	}

	rows := Aggregate(peers, teachers, twoCats, domain.Weighting{PeersPct: 60, TeacherPct: 40})

	require.Len(t, rows, 2)
	t1 := rows["t1"]
	assert.Equal(t, 15, t1.PeerSum)
	assert.Equal(t, 4, t1.TeacherSum)
	assert.Equal(t, 10, t1.Combined) // 9 + 1.6
	assert.Equal(t, domain.CategoryScore{Peer: 8, Teacher: 4}, t1.Cats["clarity"])
	assert.Equal(t, domain.CategoryScore{Peer: 7, Teacher: 0}, t1.Cats["delivery"])

	t2 := rows["t2"]
	assert.Equal(t, 4, t2.PeerSum, "keys outside the session categories do not count")
	assert.NotContains(t, t2.Cats, "ignored")
}

func TestAggregate_TeamsWithoutVotesAreAbsent(t *testing.T) {
	teachers := []domain.TeacherVote{
		{UserID: "prof", TeamID: "t9", Ratings: domain.Ratings{"clarity": 5, "delivery": 5}},
	}

	rows := Aggregate(nil, teachers, twoCats, domain.Weighting{PeersPct: 50, TeacherPct: 50})

	require.Len(t, rows, 1)
	assert.NotContains(t, rows, "t1")
	assert.Equal(t, 0, rows["t9"].PeerSum)
	assert.Equal(t, 10, rows["t9"].TeacherSum)
	assert.Equal(t, 5, rows["t9"].Combined)
}

func TestAggregate_MissingCategoryCountsZero(t *testing.T) {
	peers := []domain.PeerVote{
		{UserID: "s1", TeamID: "t1", Ratings: domain.Ratings{"clarity": 5}},
	}

	rows := Aggregate(peers, nil, twoCats, domain.Weighting{PeersPct: 100})

	assert.Equal(t, 5, rows["t1"].PeerSum)
	assert.Equal(t, 0, rows["t1"].Cats["delivery"].Peer)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil, twoCats, domain.Weighting{PeersPct: 50, TeacherPct: 50}))
}
