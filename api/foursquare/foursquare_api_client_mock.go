package foursquare

import (
	"context"

	"venue-radar/models"
	"venue-radar/models/venue"
	"venue-radar/util"
)

const SEARCH_VENUES_RESPONSE_PATH = "./resources/search_venues_response.json"
const VENUE_DETAILS_RESPONSE_PATH = "./resources/venue_details_response.json"

// FoursquareApiClientMock answers from JSON fixtures on disk, parsed the same
// way as live responses.
type FoursquareApiClientMock struct {
	searchPath  string
	detailsPath string
}

// NewFoursquareApiClientMock creates a new instance of FoursquareApiClientMock
// reading the default fixtures.
func NewFoursquareApiClientMock() *FoursquareApiClientMock {
	return NewFoursquareApiClientMockFromFiles(SEARCH_VENUES_RESPONSE_PATH, VENUE_DETAILS_RESPONSE_PATH)
}

// NewFoursquareApiClientMockFromFiles creates a mock reading the given fixtures.
func NewFoursquareApiClientMockFromFiles(searchPath, detailsPath string) *FoursquareApiClientMock {
	return &FoursquareApiClientMock{searchPath: searchPath, detailsPath: detailsPath}
}

// SearchVenues returns the venues of the search fixture, whatever the location.
func (c *FoursquareApiClientMock) SearchVenues(ctx context.Context, _ models.Location) ([]venue.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := util.ReadFixture(c.searchPath)
	if err != nil {
		return nil, err
	}
	return ParseSearchVenuesResponse(body)
}

// GetVenueRating returns the rating of the details fixture, whatever the id.
func (c *FoursquareApiClientMock) GetVenueRating(ctx context.Context, _ string) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := util.ReadFixture(c.detailsPath)
	if err != nil {
		return nil, err
	}
	return ParseVenueRating(body)
}
