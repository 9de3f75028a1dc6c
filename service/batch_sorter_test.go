package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"venue-radar/models/venue"
)

func TestSortVenues(t *testing.T) {
	tests := []struct {
		name   string
		venues []venue.Venue
		want   []string
	}{
		{
			name: "distance wins when both have one",
			venues: []venue.Venue{
				testVenue("far", "A", meters(300)),
				testVenue("near", "Z", meters(10)),
				testVenue("mid", "M", meters(150)),
			},
			want: []string{"near", "mid", "far"},
		},
		{
			name: "name order without distance",
			venues: []venue.Venue{
				testVenue("z", "Zebra", nil),
				testVenue("b", "Bistro", nil),
				testVenue("c", "Cafe", nil),
			},
			want: []string{"b", "c", "z"},
		},
		{
			name: "names compare case-sensitively",
			venues: []venue.Venue{
				testVenue("lower", "apple", nil),
				testVenue("upper", "Banana", nil),
			},
			want: []string{"upper", "lower"},
		},
		{
			name: "mixed batch",
			venues: []venue.Venue{
				testVenue("a", "Cafe", meters(120)),
				testVenue("b", "Zebra", nil),
				testVenue("c", "Bistro", meters(50)),
			},
			want: []string{"c", "a", "b"},
		},
		{
			name: "ties keep arrival order",
			venues: []venue.Venue{
				testVenue("first", "Same", nil),
				testVenue("second", "Same", nil),
				testVenue("third", "Other", meters(5)),
				testVenue("fourth", "Other", meters(5)),
			},
			want: []string{"third", "fourth", "first", "second"},
		},
		{
			name:   "empty",
			venues: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SortVenues(tt.venues)))
		})
	}
}

func TestSortVenues_LeavesInputUntouched(t *testing.T) {
	input := []venue.Venue{
		testVenue("b", "B", meters(2)),
		testVenue("a", "A", meters(1)),
	}

	sorted := SortVenues(input)

	assert.Equal(t, []string{"a", "b"}, ids(sorted))
	assert.Equal(t, []string{"b", "a"}, ids(input))
}

func TestSortVenues_Deterministic(t *testing.T) {
	input := []venue.Venue{
		testVenue("1", "Kiosk", nil),
		testVenue("2", "Bar", meters(40)),
		testVenue("3", "Arcade", nil),
		testVenue("4", "Deli", meters(15)),
		testVenue("5", "Bar", nil),
	}

	first := ids(SortVenues(input))
	for range 10 {
		assert.Equal(t, first, ids(SortVenues(input)))
	}
}
