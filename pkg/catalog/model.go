package catalog

import (
	"fmt"
	"time"
)

// Geolocation is a WGS84 point.
type Geolocation struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude" bson:"longitude"`
}

// Validate reports whether the point is within latitude and longitude range.
func (g Geolocation) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", g.Longitude)
	}
	return nil
}

// Institution owns zero or more collections.
type Institution struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`         // Display name, casing of the first row that created it
	NameKey   string    `json:"-" yaml:"name_key"`        // NormalizeName(Name), the natural key
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Collection belongs to exactly one institution.
type Collection struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	NameKey       string       `json:"-" yaml:"name_key"` // unique within InstitutionID
	InstitutionID string       `json:"institutionId" yaml:"institution_id"`
	Geolocation   *Geolocation `json:"geolocation,omitempty" yaml:"geolocation,omitempty"`
	Description   string       `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" yaml:"created_at"`
}

// CollectionSpec describes a collection to find or create.
// Geolocation and Description only apply when the collection is created.
type CollectionSpec struct {
	InstitutionID string
	Name          string
	Geolocation   *Geolocation
	Description   string
}

// CollectionFilter narrows a collection listing.
type CollectionFilter struct {
	InstitutionID  string // only collections of this institution
	GeolocatedOnly bool   // only collections with a geolocation
}

// Match reports whether c passes the filter.
func (f CollectionFilter) Match(c Collection) bool {
	if f.InstitutionID != "" && c.InstitutionID != f.InstitutionID {
		return false
	}
	if f.GeolocatedOnly && c.Geolocation == nil {
		return false
	}
	return true
}
