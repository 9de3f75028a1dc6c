package foursquare

import (
	"context"

	"venue-radar/models"
	"venue-radar/models/venue"
)

const (
	SearchVenuesEndpoint  = "/venues/search"
	VenueEndpointTemplate = "/venues/VENUE_ID"
	VenueIDPlaceholder    = "VENUE_ID"
)

// FoursquareAPI defines the interface for interacting with the Foursquare venues API
type FoursquareAPI interface {
	// SearchVenues returns the venues around location, all with rating
	// status NotLoaded.
	SearchVenues(ctx context.Context, location models.Location) ([]venue.Venue, error)
	// GetVenueRating returns the venue rating, or nil when the venue has none.
	GetVenueRating(ctx context.Context, venueID string) (*float64, error)
}

// Credentials are the static client credentials sent with every request.
type Credentials struct {
	ClientID     string
	ClientSecret string
	APIVersion   string
}
