// Package mapping validates a column-to-field header mapping against an
// upload, projects the upload's rows into ordered candidate records, and
// suggests a mapping from header names.
package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// HeaderMapping assigns semantic fields to column indexes.
// Its JSON form is an object keyed by decimal column index:
//
//	{"0": "institutionName", "1": "collectionName"}
//
// A body wrapped as {"mapping": {...}} is accepted too. A null or empty
// field leaves the column unmapped.
type HeaderMapping map[int]Field

// Columns returns the mapped column indexes in ascending order.
func (m HeaderMapping) Columns() []int {
	cols := make([]int, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return cols
}

// Column returns the column mapped to f.
func (m HeaderMapping) Column(f Field) (int, bool) {
	for _, col := range m.Columns() {
		if m[col] == f {
			return col, true
		}
	}
	return -1, false
}

// UnmarshalJSON implements json.Unmarshaler. Malformed input is an InvalidMapping error.
func (m *HeaderMapping) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return pkgerrors.NewMappingError("", "mapping must be a JSON object of column index to field name")
	}
	if inner, ok := raw["mapping"]; ok && len(raw) == 1 {
		raw = nil
		if err := json.Unmarshal(inner, &raw); err != nil || raw == nil {
			return pkgerrors.NewMappingError("", "mapping must be a JSON object of column index to field name")
		}
	}

	out := make(HeaderMapping, len(raw))
	for key, value := range raw {
		col, err := strconv.Atoi(key)
		if err != nil {
			return pkgerrors.NewMappingError("", fmt.Sprintf("column key %q is not an integer index", key))
		}
		// Keys must be canonical so no two keys name the same column.
		if strconv.Itoa(col) != key {
			return pkgerrors.NewMappingError("", fmt.Sprintf("column key %q is not in canonical form %q", key, strconv.Itoa(col)))
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return pkgerrors.NewColumnMappingError(col, "", "field name must be a string")
		}
		if name == "" {
			continue
		}
		field, err := ParseField(name)
		if err != nil {
			return pkgerrors.NewColumnMappingError(col, name, "unknown field")
		}
		out[col] = field
	}
	*m = out
	return nil
}

// Validate checks m against an upload with headerCount columns: every column
// in range, every field known and mapped at most once, both required fields
// present, and latitude mapped together with longitude.
func Validate(m HeaderMapping, headerCount int) error {
	if len(m) == 0 {
		return pkgerrors.NewMappingError("", "mapping is empty")
	}

	mapped := make(map[Field]int, len(m))
	for _, col := range m.Columns() {
		field := m[col]
		if col < 0 || col >= headerCount {
			return pkgerrors.NewColumnMappingError(col, string(field),
				fmt.Sprintf("column index out of range [0, %d)", headerCount))
		}
		if !field.Valid() {
			return pkgerrors.NewColumnMappingError(col, string(field), "unknown field")
		}
		if prev, dup := mapped[field]; dup {
			return pkgerrors.NewColumnMappingError(col, string(field),
				fmt.Sprintf("field is already mapped to column %d", prev))
		}
		mapped[field] = col
	}

	for _, field := range Required {
		if _, ok := mapped[field]; !ok {
			return pkgerrors.NewMappingError(string(field), "required field is not mapped")
		}
	}

	_, hasLat := mapped[Latitude]
	_, hasLon := mapped[Longitude]
	if hasLat != hasLon {
		missing := Latitude
		if hasLat {
			missing = Longitude
		}
		return pkgerrors.NewMappingError(string(missing), "latitude and longitude must be mapped together")
	}
	return nil
}
