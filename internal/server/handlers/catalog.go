package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/collectionmap/internal/server/cache"
	"github.com/agentstation/collectionmap/internal/server/filter"
	"github.com/agentstation/collectionmap/internal/server/response"
	"github.com/agentstation/collectionmap/pkg/catalog"
)

// CollectionView is a collection with its institution's display name.
type CollectionView struct {
	catalog.Collection
	InstitutionName string `json:"institutionName"`
}

var institutionColumns = filter.Columns[catalog.Institution]{
	"id":              func(i catalog.Institution) any { return i.ID },
	"institutionId":   func(i catalog.Institution) any { return i.ID },
	"name":            func(i catalog.Institution) any { return i.Name },
	"institutionName": func(i catalog.Institution) any { return i.Name },
	"createdAt":       func(i catalog.Institution) any { return i.CreatedAt },
}

var collectionColumns = filter.Columns[CollectionView]{
	"id":              func(c CollectionView) any { return c.ID },
	"collectionId":    func(c CollectionView) any { return c.ID },
	"name":            func(c CollectionView) any { return c.Name },
	"collectionName":  func(c CollectionView) any { return c.Name },
	"institutionId":   func(c CollectionView) any { return c.InstitutionID },
	"institutionName": func(c CollectionView) any { return c.InstitutionName },
	"description":     func(c CollectionView) any { return c.Description },
	"createdAt":       func(c CollectionView) any { return c.CreatedAt },
	"latitude": func(c CollectionView) any {
		if c.Geolocation == nil {
			return nil
		}
		return c.Geolocation.Latitude
	},
	"longitude": func(c CollectionView) any {
		if c.Geolocation == nil {
			return nil
		}
		return c.Geolocation.Longitude
	},
}

var featureColumns = filter.Columns[catalog.FeatureProperties]{
	"collectionId":    func(p catalog.FeatureProperties) any { return p.CollectionID },
	"collectionName":  func(p catalog.FeatureProperties) any { return p.CollectionName },
	"institutionId":   func(p catalog.FeatureProperties) any { return p.InstitutionID },
	"institutionName": func(p catalog.FeatureProperties) any { return p.InstitutionName },
	"description":     func(p catalog.FeatureProperties) any { return p.Description },
}

// projectedFeature is a GeoJSON feature whose properties were narrowed by ?columns=.
type projectedFeature struct {
	Type       string         `json:"type"`
	Geometry   catalog.Point  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type projectedFeatureCollection struct {
	Type     string             `json:"type"`
	Features []projectedFeature `json:"features"`
}

// HandleListInstitutions handles GET {prefix}/institutions[?columns=].
func (h *Handlers) HandleListInstitutions(w http.ResponseWriter, r *http.Request) {
	columns := filter.ParseColumns(r.URL.Query())
	data, err := h.cache.Load(cache.Key("institutions", r.URL.RawQuery), func() (any, error) {
		store, err := h.app.Catalog()
		if err != nil {
			return nil, err
		}
		institutions, err := store.Institutions(r.Context())
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			return institutionColumns.Select(institutions, columns)
		}
		return institutions, nil
	})
	if err != nil {
		h.fail(r.Context(), w, err, "Listing institutions failed")
		return
	}
	response.OK(w, data)
}

// HandleGetInstitution handles GET {prefix}/institutions/{id}.
func (h *Handlers) HandleGetInstitution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := h.cache.Load(cache.Key("institution", id), func() (any, error) {
		store, err := h.app.Catalog()
		if err != nil {
			return nil, err
		}
		return store.Institution(r.Context(), id)
	})
	if err != nil {
		h.fail(r.Context(), w, err, "Institution lookup failed")
		return
	}
	response.OK(w, data)
}

// HandleListCollections handles GET {prefix}/collections.
// ?institutionId= narrows to one institution, ?geojson=true returns a
// FeatureCollection of the geolocated collections and ?columns= projects
// each record (or each feature's properties) onto the named columns.
func (h *Handlers) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseCollectionQuery(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	data, err := h.cache.Load(cache.Key("collections", r.URL.RawQuery), func() (any, error) {
		store, err := h.app.Catalog()
		if err != nil {
			return nil, err
		}
		colls, institutions, err := listCollections(r.Context(), store, catalog.CollectionFilter{
			InstitutionID:  q.InstitutionID,
			GeolocatedOnly: q.GeoJSON,
		})
		if err != nil {
			return nil, err
		}
		if q.GeoJSON {
			return geoJSON(colls, institutions, q.Columns)
		}
		views := collectionViews(colls, institutions)
		if len(q.Columns) > 0 {
			return collectionColumns.Select(views, q.Columns)
		}
		return views, nil
	})
	if err != nil {
		h.fail(r.Context(), w, err, "Listing collections failed")
		return
	}
	response.OK(w, data)
}

// HandleGetCollection handles GET {prefix}/collections/{id}.
func (h *Handlers) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := h.cache.Load(cache.Key("collection", id), func() (any, error) {
		store, err := h.app.Catalog()
		if err != nil {
			return nil, err
		}
		coll, err := store.Collection(r.Context(), id)
		if err != nil {
			return nil, err
		}
		inst, err := store.Institution(r.Context(), coll.InstitutionID)
		if err != nil {
			return nil, err
		}
		return CollectionView{Collection: coll, InstitutionName: inst.Name}, nil
	})
	if err != nil {
		h.fail(r.Context(), w, err, "Collection lookup failed")
		return
	}
	response.OK(w, data)
}

func listCollections(ctx context.Context, store catalog.Reader, f catalog.CollectionFilter) ([]catalog.Collection, []catalog.Institution, error) {
	colls, err := store.Collections(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	institutions, err := store.Institutions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return colls, institutions, nil
}

func collectionViews(colls []catalog.Collection, institutions []catalog.Institution) []CollectionView {
	names := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		names[inst.ID] = inst.Name
	}
	views := make([]CollectionView, 0, len(colls))
	for _, c := range colls {
		views = append(views, CollectionView{Collection: c, InstitutionName: names[c.InstitutionID]})
	}
	return views
}

func geoJSON(colls []catalog.Collection, institutions []catalog.Institution, columns []string) (any, error) {
	fc := catalog.NewFeatureCollection(colls, institutions)
	if len(columns) == 0 {
		return fc, nil
	}
	if err := featureColumns.Validate(columns); err != nil {
		return nil, err
	}
	out := projectedFeatureCollection{Type: fc.Type, Features: make([]projectedFeature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		props, err := featureColumns.Row(f.Properties, columns)
		if err != nil {
			return nil, err
		}
		out.Features = append(out.Features, projectedFeature{Type: f.Type, Geometry: f.Geometry, Properties: props})
	}
	return out, nil
}
