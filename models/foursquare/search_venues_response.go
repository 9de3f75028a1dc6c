package foursquare

// SearchVenuesResponse is the body of GET /venues/search.
type SearchVenuesResponse struct {
	Response *SearchVenuesBody `json:"response" validate:"required"`
}

type SearchVenuesBody struct {
	Venues []VenueRecord `json:"venues" validate:"required,dive"`
}

// VenueRecord is one entry of the search response. Pointer fields marked
// required must be present and non-null.
type VenueRecord struct {
	ID         *string          `json:"id" validate:"required"`
	Name       *string          `json:"name" validate:"required"`
	Location   *LocationRecord  `json:"location" validate:"required"`
	Categories []CategoryRecord `json:"categories" validate:"required"`
	Verified   *bool            `json:"verified" validate:"required"`
	Stats      *StatsRecord     `json:"stats" validate:"required"`
}

type LocationRecord struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Distance    *int     `json:"distance" validate:"omitempty,gte=0"`
	Address     *string  `json:"address"`
	CrossStreet *string  `json:"crossStreet"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	PostalCode  *string  `json:"postalCode"`
	Country     *string  `json:"country"`
}

// CategoryRecord fields are only checked for the primary category, which is
// the only one read.
type CategoryRecord struct {
	ID         *string     `json:"id" validate:"required"`
	Name       *string     `json:"name" validate:"required"`
	PluralName *string     `json:"pluralName" validate:"required"`
	Icon       *IconRecord `json:"icon" validate:"required"`
	Primary    *bool       `json:"primary"`
}

type IconRecord struct {
	Prefix *string `json:"prefix" validate:"required"`
	Suffix *string `json:"suffix" validate:"required"`
}

type StatsRecord struct {
	CheckinsCount *int `json:"checkinsCount" validate:"required,gte=0"`
	UsersCount    *int `json:"usersCount" validate:"required,gte=0"`
	TipCount      *int `json:"tipCount" validate:"required,gte=0"`
}

// IsPrimary reports whether the category is flagged primary.
func (c CategoryRecord) IsPrimary() bool {
	return c.Primary != nil && *c.Primary
}
