package mapping

import (
	"fmt"
	"strings"
)

// Field is a semantic field a CSV column can be mapped to.
type Field string

// Known fields.
const (
	InstitutionName Field = "institutionName"
	CollectionName  Field = "collectionName"
	Latitude        Field = "latitude"
	Longitude       Field = "longitude"
	Description     Field = "description"
)

// Fields lists every known field in display order.
var Fields = []Field{InstitutionName, CollectionName, Latitude, Longitude, Description}

// Required fields must be mapped for a commit.
var Required = []Field{InstitutionName, CollectionName}

// String returns the wire name of the field.
func (f Field) String() string {
	return string(f)
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseField parses a field name case-insensitively.
func ParseField(s string) (Field, error) {
	for _, known := range Fields {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Mode selects how rows missing a required value are handled.
type Mode int

const (
	// Lenient skips such rows and reports them.
	Lenient Mode = iota
	// Strict fails the whole commit on the first such row.
	Strict
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseMode parses "lenient" or "strict". Empty means Lenient.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient", "skip":
		return Lenient, nil
	case "strict", "fail":
		return Strict, nil
	}
	return Lenient, fmt.Errorf("unknown row mode %q (want lenient or strict)", s)
}
