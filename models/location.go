package models

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Location holds a coordinate pair plus display metadata. Every field is
// optional: device locations carry only Latitude/Longitude, search results
// may carry any subset.
type Location struct {
	Latitude    *float64 `json:"lat,omitempty"`
	Longitude   *float64 `json:"lng,omitempty"`
	Distance    *int     `json:"distance,omitempty"`
	Address     *string  `json:"address,omitempty"`
	CrossStreet *string  `json:"cross_street,omitempty"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	PostalCode  *string  `json:"postal_code,omitempty"`
	Country     *string  `json:"country,omitempty"`
}

// NewLocation builds a device location from a coordinate pair.
func NewLocation(lat, lng float64) Location {
	return Location{Latitude: &lat, Longitude: &lng}
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Lat returns the latitude, or 0 when absent.
func (l Location) Lat() float64 {
	if l.Latitude == nil {
		return 0
	}
	return *l.Latitude
}

// Lng returns the longitude, or 0 when absent.
func (l Location) Lng() float64 {
	if l.Longitude == nil {
		return 0
	}
	return *l.Longitude
}

// Point projects the coordinates onto an orb.Point (lng, lat order).
// The boolean is false when the location lacks coordinates.
func (l Location) Point() (orb.Point, bool) {
	if !l.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*l.Longitude, *l.Latitude}, true
}

func (l Location) String() string {
	if !l.HasCoordinates() {
		return "Location(unknown)"
	}
	return fmt.Sprintf("Location(%f,%f)", *l.Latitude, *l.Longitude)
}
