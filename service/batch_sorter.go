package services

import (
	"cmp"
	"slices"
	"strings"

	"venue-radar/models/venue"
)

// SortVenues returns venues ordered for display. Two venues that both carry a
// distance are ordered by it, ascending; any other pair is ordered by name.
// The sort is stable and the input slice is left untouched.
func SortVenues(venues []venue.Venue) []venue.Venue {
	sorted := slices.Clone(venues)
	slices.SortStableFunc(sorted, compareVenues)
	return sorted
}

func compareVenues(a, b venue.Venue) int {
	da, okA := a.Distance()
	db, okB := b.Distance()
	if okA && okB {
		return cmp.Compare(da, db)
	}
	return strings.Compare(a.Name, b.Name)
}
