package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// Candidate is one row projected through a mapping.
type Candidate struct {
	Row             int // 1-based data row
	InstitutionName string
	CollectionName  string
	Geolocation     *catalog.Geolocation
	Description     string
}

// RowIssue explains why a row was skipped or partially used.
type RowIssue struct {
	Row    int    `json:"row" yaml:"row"`
	Reason string `json:"reason" yaml:"reason"`
}

// Projection is the outcome of projecting an upload.
type Projection struct {
	Candidates []Candidate
	RowsTotal  int
	Skipped    []RowIssue // rows without a required value
	Warnings   []RowIssue // rows kept without their geolocation
}

// Project validates m and projects rows, in order, into candidates.
// In Lenient mode rows missing a required value are skipped and reported;
// in Strict mode the first such row fails with InvalidMapping. A projection
// that yields no candidates is an InvalidMapping error.
func Project(headers []string, rows [][]string, m HeaderMapping, mode Mode) (*Projection, error) {
	if err := Validate(m, len(headers)); err != nil {
		return nil, err
	}

	instCol, _ := m.Column(InstitutionName)
	collCol, _ := m.Column(CollectionName)
	latCol, hasGeo := m.Column(Latitude)
	lonCol, _ := m.Column(Longitude)
	descCol, hasDesc := m.Column(Description)

	p := &Projection{
		Candidates: make([]Candidate, 0, len(rows)),
		RowsTotal:  len(rows),
	}
	for i, row := range rows {
		rowNum := i + 1
		c := Candidate{
			Row:             rowNum,
			InstitutionName: catalog.CleanName(cell(row, instCol)),
			CollectionName:  catalog.CleanName(cell(row, collCol)),
		}

		if reason := missingRequired(c); reason != "" {
			if mode == Strict {
				return nil, pkgerrors.NewRowMappingError(rowNum, reason)
			}
			p.Skipped = append(p.Skipped, RowIssue{Row: rowNum, Reason: reason})
			continue
		}

		if hasGeo {
			geo, warning := parseGeolocation(cell(row, latCol), cell(row, lonCol))
			c.Geolocation = geo
			if warning != "" {
				p.Warnings = append(p.Warnings, RowIssue{Row: rowNum, Reason: warning})
			}
		}
		if hasDesc {
			c.Description = strings.TrimSpace(cell(row, descCol))
		}
		p.Candidates = append(p.Candidates, c)
	}

	if len(p.Candidates) == 0 {
		return nil, pkgerrors.NewMappingError("",
			fmt.Sprintf("no row has both %s and %s (%d rows skipped)", InstitutionName, CollectionName, len(p.Skipped)))
	}
	return p, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func missingRequired(c Candidate) string {
	switch {
	case c.InstitutionName == "" && c.CollectionName == "":
		return "missing institutionName and collectionName"
	case c.InstitutionName == "":
		return "missing institutionName"
	case c.CollectionName == "":
		return "missing collectionName"
	}
	return ""
}

// parseGeolocation returns a point, or nil and a warning when the pair is
// half present, unparseable, or out of range. Two blank cells are no warning.
func parseGeolocation(latText, lonText string) (*catalog.Geolocation, string) {
	if latText == "" && lonText == "" {
		return nil, ""
	}
	if latText == "" || lonText == "" {
		return nil, "geolocation dropped: latitude and longitude must both be present"
	}

	lat, err := parseCoordinate(latText)
	if err != nil {
		return nil, fmt.Sprintf("geolocation dropped: latitude %q is not a number", latText)
	}
	lon, err := parseCoordinate(lonText)
	if err != nil {
		return nil, fmt.Sprintf("geolocation dropped: longitude %q is not a number", lonText)
	}

	geo := catalog.Geolocation{Latitude: lat, Longitude: lon}
	if err := geo.Validate(); err != nil {
		return nil, "geolocation dropped: " + err.Error()
	}
	return &geo, ""
}

// parseCoordinate accepts a decimal comma when no decimal point is present.
func parseCoordinate(s string) (float64, error) {
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}
