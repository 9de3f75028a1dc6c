package foursquare

// VenueDetailsResponse is the body of GET /venues/{id}. Only the rating is
// read; a missing or null rating means the venue has none.
type VenueDetailsResponse struct {
	Response *VenueDetailsBody `json:"response" validate:"required"`
}

type VenueDetailsBody struct {
	Venue *VenueDetailsRecord `json:"venue" validate:"required"`
}

type VenueDetailsRecord struct {
	ID     *string  `json:"id"`
	Rating *float64 `json:"rating"`
}
