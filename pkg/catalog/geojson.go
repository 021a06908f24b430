package catalog

// FeatureCollection is a GeoJSON FeatureCollection of collection points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON point feature for one collection.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Point             `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties are the map popup fields of a collection feature.
type FeatureProperties struct {
	CollectionID    string `json:"collectionId"`
	CollectionName  string `json:"collectionName"`
	InstitutionID   string `json:"institutionId"`
	InstitutionName string `json:"institutionName"`
	Description     string `json:"description,omitempty"`
}

// NewFeatureCollection builds point features for every geolocated collection.
// Collections without a geolocation are left out. Institution names are looked
// up in institutions by id and left blank when missing.
func NewFeatureCollection(collections []Collection, institutions []Institution) FeatureCollection {
	names := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		names[inst.ID] = inst.Name
	}

	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, c := range collections {
		if c.Geolocation == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Point{
				Type:        "Point",
				Coordinates: [2]float64{c.Geolocation.Longitude, c.Geolocation.Latitude},
			},
			Properties: FeatureProperties{
				CollectionID:    c.ID,
				CollectionName:  c.Name,
				InstitutionID:   c.InstitutionID,
				InstitutionName: names[c.InstitutionID],
				Description:     c.Description,
			},
		})
	}
	return fc
}
