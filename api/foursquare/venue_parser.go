package foursquare

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"

	"venue-radar/api"
	"venue-radar/models"
	wire "venue-radar/models/foursquare"
	"venue-radar/models/venue"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ParseSearchVenuesResponse decodes a search response body into venues.
func ParseSearchVenuesResponse(body []byte) ([]venue.Venue, error) {
	var resp wire.SearchVenuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &api.ParseError{Reason: "invalid search response", Err: err}
	}
	if err := recordValidator().Struct(resp); err != nil {
		return nil, &api.ParseError{Reason: "incomplete search response", Err: err}
	}

	venues := make([]venue.Venue, 0, len(resp.Response.Venues))
	for _, rec := range resp.Response.Venues {
		category, err := parseMainCategory(rec.Categories)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue.Venue{
			ID:           *rec.ID,
			Name:         *rec.Name,
			Location:     parseLocation(rec.Location),
			Category:     category,
			Verified:     *rec.Verified,
			Stats:        parseStats(rec.Stats),
			RatingStatus: venue.RatingNotLoaded,
		})
	}
	return venues, nil
}

// ParseVenueRating decodes a venue details body. A nil rating with a nil
// error means the venue has no rating.
func ParseVenueRating(body []byte) (*float64, error) {
	var resp wire.VenueDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &api.ParseError{Reason: "invalid venue response", Err: err}
	}
	if err := recordValidator().Struct(resp); err != nil {
		return nil, &api.ParseError{Reason: "incomplete venue response", Err: err}
	}
	return resp.Response.Venue.Rating, nil
}

func parseLocation(rec *wire.LocationRecord) models.Location {
	return models.Location{
		Latitude:    rec.Lat,
		Longitude:   rec.Lng,
		Distance:    rec.Distance,
		Address:     rec.Address,
		CrossStreet: rec.CrossStreet,
		City:        rec.City,
		State:       rec.State,
		PostalCode:  rec.PostalCode,
		Country:     rec.Country,
	}
}

// parseMainCategory returns the first category flagged primary. Secondary
// categories are skipped without being checked.
func parseMainCategory(categories []wire.CategoryRecord) (*venue.Category, error) {
	for _, rec := range categories {
		if !rec.IsPrimary() {
			continue
		}
		if err := recordValidator().Struct(rec); err != nil {
			return nil, &api.ParseError{Reason: "incomplete primary category", Err: err}
		}
		return &venue.Category{
			ID:              *rec.ID,
			Name:            *rec.Name,
			PluralName:      *rec.PluralName,
			IconURLTemplate: *rec.Icon.Prefix + "bg_" + venue.IconSizePlaceholder + *rec.Icon.Suffix,
		}, nil
	}
	return nil, nil
}

func parseStats(rec *wire.StatsRecord) venue.Stats {
	return venue.Stats{
		CheckinsCount: *rec.CheckinsCount,
		UsersCount:    *rec.UsersCount,
		TipCount:      *rec.TipCount,
	}
}
