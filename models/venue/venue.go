package venue

import (
	"fmt"
	"strconv"
	"strings"

	"venue-radar/models"
)

// IconSizePlaceholder is substituted by Category.IconURL.
const IconSizePlaceholder = "{size}"

// DefaultIconSize is the icon resolution requested when none is configured.
const DefaultIconSize = 88

// Venue is a point of interest returned by the search endpoint, optionally
// enriched with its rating.
//
// Values are treated as immutable: the rating transitions below return a
// modified copy and never touch the receiver.
type Venue struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Location     models.Location `json:"location"`
	Category     *Category       `json:"category,omitempty"`
	Verified     bool            `json:"verified"`
	Stats        Stats           `json:"stats"`
	RatingStatus RatingStatus    `json:"rating_status"`
	Rating       *float64        `json:"rating,omitempty"`
}

// Category is the primary category of a venue.
type Category struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PluralName      string `json:"plural_name"`
	IconURLTemplate string `json:"icon_url_template"`
}

// IconURL returns the category icon URL at the given pixel size.
func (c Category) IconURL(size int) string {
	return strings.ReplaceAll(c.IconURLTemplate, IconSizePlaceholder, strconv.Itoa(size))
}

// Stats holds the venue counters reported by the search endpoint.
type Stats struct {
	CheckinsCount int `json:"checkins_count"`
	UsersCount    int `json:"users_count"`
	TipCount      int `json:"tip_count"`
}

// WithRatingLoading marks the rating fetch as in progress.
func (v Venue) WithRatingLoading() Venue {
	v.RatingStatus = RatingLoading
	v.Rating = nil
	return v
}

// WithRating records a fetched rating.
func (v Venue) WithRating(rating float64) Venue {
	v.RatingStatus = RatingAvailable
	v.Rating = &rating
	return v
}

// WithRatingNotAvailable records a successful fetch that carried no rating.
func (v Venue) WithRatingNotAvailable() Venue {
	v.RatingStatus = RatingNotAvailable
	v.Rating = nil
	return v
}

// WithRatingError records a failed rating fetch.
func (v Venue) WithRatingError() Venue {
	v.RatingStatus = RatingError
	v.Rating = nil
	return v
}

// Distance returns the distance in meters reported by the search endpoint.
func (v Venue) Distance() (int, bool) {
	if v.Location.Distance == nil {
		return 0, false
	}
	return *v.Location.Distance, true
}

func (v Venue) ToString() string {
	return fmt.Sprintf("Venue(id=%s, name=%s, rating_status=%s)", v.ID, v.Name, v.RatingStatus)
}
