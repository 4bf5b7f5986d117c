// Package scoring holds the pure parts of the leaderboard engine: rating
// validation, per-team aggregation and ranking. Nothing here performs I/O.
package scoring

import (
	"fmt"
	"sort"

	"classboard/internal/domain"
	apperrors "classboard/pkg/errors"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidatePeerRatings requires a rating for every session category and every
// value to be within bounds. Keys outside the category set are range-checked
// only. The first violation is returned, checking session categories in order
// and then the remaining keys sorted ascending.
func ValidatePeerRatings(ratings domain.Ratings, categories []domain.Category) error {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
		v, ok := ratings[c.ID]
		if !ok {
			return apperrors.NewValidationError(
				fmt.Sprintf("missing rating for category %q", c.ID),
				map[string]interface{}{"category": c.ID},
			)
		}
		if err := checkRange(c.ID, v); err != nil {
			return err
		}
	}

	for _, k := range sortedKeys(ratings) {
		if _, ok := known[k]; ok {
			continue
		}
		if err := checkRange(k, ratings[k]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTeacherRatings range-checks every entry in ascending key order.
// An empty mapping is accepted.
func ValidateTeacherRatings(ratings domain.Ratings) error {
	for _, k := range sortedKeys(ratings) {
		if err := checkRange(k, ratings[k]); err != nil {
			return err
		}
	}
	return nil
}

func checkRange(category string, v int) error {
	if v < MinRating || v > MaxRating {
		return apperrors.NewValidationError(
			fmt.Sprintf("rating for %q must be between %d and %d", category, MinRating, MaxRating),
			map[string]interface{}{"category": category, "value": v},
		)
	}
	return nil
}

func sortedKeys(r domain.Ratings) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
