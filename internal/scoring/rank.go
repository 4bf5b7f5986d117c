package scoring

import (
	"sort"

	"classboard/internal/domain"
)

// Rank orders rows by combined score descending, then team id ascending, and
// assigns dense 1-based ranks. Equal scores never share a rank.
func Rank(rows map[string]*domain.AggregateRow) []domain.Standing {
	standings := make([]domain.Standing, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, domain.Standing{AggregateRow: *row})
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		return a.TeamID < b.TeamID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
