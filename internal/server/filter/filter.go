// Package filter parses read-side query parameters and projects records
// onto a caller-chosen set of columns.
package filter

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/collectionmap/pkg/errors"
)

// CollectionQuery holds the query parameters of GET /collections.
type CollectionQuery struct {
	InstitutionID string
	GeoJSON       bool
	Columns       []string
}

// ParseCollectionQuery reads institutionId, geojson and columns from r.
func ParseCollectionQuery(r *http.Request) (CollectionQuery, error) {
	q := r.URL.Query()
	geo, err := Bool(q, "geojson")
	if err != nil {
		return CollectionQuery{}, err
	}
	return CollectionQuery{
		InstitutionID: strings.TrimSpace(q.Get("institutionId")),
		GeoJSON:       geo,
		Columns:       ParseColumns(q),
	}, nil
}

// ParseColumns reads the columns parameter. Both columns=a,b and repeated
// columns=a&columns=b are accepted; blanks and repeats are dropped.
func ParseColumns(q url.Values) []string {
	var cols []string
	for _, v := range q["columns"] {
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c != "" && !slices.Contains(cols, c) {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// Bool reads a boolean parameter. A missing or empty value is false.
func Bool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.NewValidationError(key, v, "must be a boolean")
	}
	return b, nil
}

// Columns maps column names to accessors on T.
type Columns[T any] map[string]func(T) any

// Names returns the known column names in sorted order.
func (c Columns[T]) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate reports the first unknown name as a ValidationError.
func (c Columns[T]) Validate(names []string) error {
	for _, name := range names {
		if _, ok := c[name]; !ok {
			return errors.NewValidationError("columns", name,
				"unknown column "+strconv.Quote(name)+" (known: "+strings.Join(c.Names(), ", ")+")")
		}
	}
	return nil
}

// Row projects item onto names. Unknown names are a ValidationError.
func (c Columns[T]) Row(item T, names []string) (map[string]any, error) {
	if err := c.Validate(names); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(names))
	for _, name := range names {
		row[name] = c[name](item)
	}
	return row, nil
}

// Select projects every item onto names.
func (c Columns[T]) Select(items []T, names []string) ([]map[string]any, error) {
	if err := c.Validate(names); err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		row, err := c.Row(item, names)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
