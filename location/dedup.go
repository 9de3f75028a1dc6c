package location

import (
	"fmt"

	"venue-radar/models"
)

// DedupKey derives the key consecutive locations are compared on.
type DedupKey func(models.Location) any

const (
	DedupKeySum   = "sum"
	DedupKeyPoint = "point"
)

// SumKey keys a location on latitude + longitude. Distinct coordinates with
// the same sum collapse into one.
func SumKey(loc models.Location) any {
	return loc.Lat() + loc.Lng()
}

// PointKey keys a location on its exact coordinates.
func PointKey(loc models.Location) any {
	p, _ := loc.Point()
	return p
}

// DedupKeyByName resolves a configured key name.
func DedupKeyByName(name string) (DedupKey, error) {
	switch name {
	case "", DedupKeySum:
		return SumKey, nil
	case DedupKeyPoint:
		return PointKey, nil
	default:
		return nil, fmt.Errorf("unknown dedup key %q", name)
	}
}
