package scoring

import (
	"classboard/internal/domain"
)

// Aggregate reduces every peer and teacher record of a session into per-team
// totals. Only session categories contribute; missing ones count as zero.
// Teams referenced by no record are absent from the result.
func Aggregate(
	peerVotes []domain.PeerVote,
	teacherVotes []domain.TeacherVote,
	categories []domain.Category,
	weighting domain.Weighting,
) map[string]*domain.AggregateRow {
	rows := make(map[string]*domain.AggregateRow)

	bucket := func(teamID string) *domain.AggregateRow {
		row, ok := rows[teamID]
		if !ok {
			row = &domain.AggregateRow{
				TeamID: teamID,
				Cats:   make(map[string]domain.CategoryScore, len(categories)),
			}
			for _, c := range categories {
				row.Cats[c.ID] = domain.CategoryScore{}
			}
			rows[teamID] = row
		}
		return row
	}

	for _, v := range peerVotes {
		row := bucket(v.TeamID)
		for _, c := range categories {
			score := v.Ratings[c.ID]
			row.PeerSum += score
			cs := row.Cats[c.ID]
			cs.Peer += score
			row.Cats[c.ID] = cs
		}
	}

	for _, v := range teacherVotes {
		row := bucket(v.TeamID)
		for _, c := range categories {
			score := v.Ratings[c.ID]
			row.TeacherSum += score
			cs := row.Cats[c.ID]
			cs.Teacher += score
			row.Cats[c.ID] = cs
		}
	}

	for _, row := range rows {
		row.Combined = Combine(row.PeerSum, row.TeacherSum, weighting)
	}
	return rows
}

// Combine applies the weighting and truncates toward zero.
func Combine(peerSum, teacherSum int, w domain.Weighting) int {
	// Each product is rounded to float64 on its own so the compiler cannot
	// fuse the multiply and add.
	peer := float64(float64(peerSum) * (float64(w.PeersPct) / 100.0))
	teacher := float64(float64(teacherSum) * (float64(w.TeacherPct) / 100.0))
	return int(peer + teacher)
}
