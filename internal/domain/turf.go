package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxTurfNameLength bounds a turf's display name.
const MaxTurfNameLength = 100

// DefaultNearbyDistance is the search radius in meters when none is given.
const DefaultNearbyDistance = 10000

// Location is a turf's address and coordinates.
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Turf is a bookable sports turf listed by an owner.
type Turf struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"ownerId"`
	Name         string    `json:"name"`
	Location     Location  `json:"location"`
	PricePerHour float64   `json:"pricePerHour"`
	Images       []string  `json:"images"`
	Approved     bool      `json:"isApproved"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// DistanceMeters is set only on nearby searches.
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

// TurfFilter selects turfs for listings.
type TurfFilter struct {
	OwnerID  *uuid.UUID
	Approved *bool
	MinPrice *float64
	MaxPrice *float64
	Offset   int
	Limit    int
}

// Matches reports whether t satisfies the filter (ignoring pagination).
func (f TurfFilter) Matches(t *Turf) bool {
	if f.OwnerID != nil && t.OwnerID != *f.OwnerID {
		return false
	}
	if f.Approved != nil && t.Approved != *f.Approved {
		return false
	}
	if f.MinPrice != nil && t.PricePerHour < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && t.PricePerHour > *f.MaxPrice {
		return false
	}
	return true
}

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
