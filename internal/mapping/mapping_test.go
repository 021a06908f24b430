package mapping

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

func TestHeaderMappingUnmarshalJSON(t *testing.T) {
	t.Run("flat object", func(t *testing.T) {
		var m HeaderMapping
		require.NoError(t, json.Unmarshal([]byte(`{"0":"institutionName","1":"collectionName","2":null,"3":""}`), &m))
		assert.Equal(t, HeaderMapping{0: InstitutionName, 1: CollectionName}, m)
	})

	t.Run("wrapped object and case-insensitive fields", func(t *testing.T) {
		var m HeaderMapping
		require.NoError(t, json.Unmarshal([]byte(`{"mapping":{"2":"LATITUDE","3":"longitude"}}`), &m))
		assert.Equal(t, HeaderMapping{2: Latitude, 3: Longitude}, m)
	})

	errs := map[string]string{
		"not an object": `["institutionName"]`,
		"null":          `null`,
		"bad key":       `{"first":"institutionName"}`,
		"bad value":     `{"0":7}`,
		"unknown field": `{"0":"curator"}`,
		"leading zero":  `{"0":"institutionName","1":"collectionName","01":"description"}`,
		"plus sign":     `{"0":"institutionName","1":"collectionName","+1":"description"}`,
		"padded key":    `{" 0":"institutionName","1":"collectionName"}`,
	}
	for name, body := range errs {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				var m HeaderMapping
				err := json.Unmarshal([]byte(body), &m)
				require.Error(t, err)
				assert.True(t, pkgerrors.IsInvalidMapping(err), "got %v", err)
			}
		})
	}
}

func TestHeaderMappingMarshalJSON(t *testing.T) {
	data, err := json.Marshal(HeaderMapping{1: CollectionName, 0: InstitutionName})
	require.NoError(t, err)
	assert.JSONEq(t, `{"0":"institutionName","1":"collectionName"}`, string(data))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping HeaderMapping
		headers int
		wantErr string
	}{
		{"valid", HeaderMapping{0: InstitutionName, 1: CollectionName}, 3, ""},
		{"valid with geo", HeaderMapping{0: InstitutionName, 1: CollectionName, 2: Latitude, 3: Longitude}, 4, ""},
		{"empty", HeaderMapping{}, 3, "mapping is empty"},
		{"out of range", HeaderMapping{0: InstitutionName, 5: CollectionName}, 3, "column 5"},
		{"negative", HeaderMapping{-1: InstitutionName, 1: CollectionName}, 3, "out of range"},
		{"unknown field", HeaderMapping{0: InstitutionName, 1: CollectionName, 2: Field("curator")}, 3, "unknown field"},
		{"duplicate field", HeaderMapping{0: InstitutionName, 1: CollectionName, 2: CollectionName}, 3, "already mapped to column 1"},
		{"missing institution", HeaderMapping{1: CollectionName}, 3, "institutionName"},
		{"missing collection", HeaderMapping{0: InstitutionName}, 3, "collectionName"},
		{"latitude alone", HeaderMapping{0: InstitutionName, 1: CollectionName, 2: Latitude}, 3, "longitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mapping, tt.headers)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsInvalidMapping(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProjectOrderAndTrimming(t *testing.T) {
	headers := []string{"Inst", "Coll"}
	rows := [][]string{
		{" Smith College ", "Botanicals"},
		{"smith college", "  Herbarium"},
	}
	p, err := Project(headers, rows, HeaderMapping{0: InstitutionName, 1: CollectionName}, Lenient)
	require.NoError(t, err)

	want := []Candidate{
		{Row: 1, InstitutionName: "Smith College", CollectionName: "Botanicals"},
		{Row: 2, InstitutionName: "smith college", CollectionName: "Herbarium"},
	}
	if diff := cmp.Diff(want, p.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, p.RowsTotal)
	assert.Empty(t, p.Skipped)
}

func TestProjectSkipsRowsMissingRequiredValues(t *testing.T) {
	headers := []string{"Inst", "Coll"}
	rows := [][]string{
		{"Smith College", "Botanicals"},
		{"", "Orphans"},
		{"Amherst", " "},
		{"", ""},
		{"Amherst", "Fossils"},
	}
	m := HeaderMapping{0: InstitutionName, 1: CollectionName}

	p, err := Project(headers, rows, m, Lenient)
	require.NoError(t, err)
	assert.Len(t, p.Candidates, 2)
	assert.Equal(t, []RowIssue{
		{Row: 2, Reason: "missing institutionName"},
		{Row: 3, Reason: "missing collectionName"},
		{Row: 4, Reason: "missing institutionName and collectionName"},
	}, p.Skipped)
	assert.Equal(t, 5, p.Candidates[1].Row)

	_, err = Project(headers, rows, m, Strict)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidMapping(err))
	assert.Contains(t, err.Error(), "row 2")
}

func TestProjectZeroCandidates(t *testing.T) {
	_, err := Project([]string{"a", "b"}, [][]string{{"", "x"}}, HeaderMapping{0: InstitutionName, 1: CollectionName}, Lenient)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidMapping(err))
}

func TestProjectOutOfRangeColumn(t *testing.T) {
	_, err := Project([]string{"a", "b", "c"}, [][]string{{"1", "2", "3"}}, HeaderMapping{0: InstitutionName, 5: CollectionName}, Lenient)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidMapping(err))
}

func TestProjectGeolocation(t *testing.T) {
	headers := []string{"Inst", "Coll", "Lat", "Lon", "Notes"}
	rows := [][]string{
		{"A", "ok", "42.3", "-72.6", " herbarium sheets "},
		{"A", "comma", "42,5", "-72,1", ""},
		{"A", "blank", "", "", ""},
		{"A", "half", "42.3", "", ""},
		{"A", "text", "north", "-72", ""},
		{"A", "range", "95", "10", ""},
		{"A", "nan", "NaN", "10", ""},
	}
	m := HeaderMapping{0: InstitutionName, 1: CollectionName, 2: Latitude, 3: Longitude, 4: Description}

	p, err := Project(headers, rows, m, Strict)
	require.NoError(t, err, "bad geolocation never skips a row")
	require.Len(t, p.Candidates, 7)

	assert.Equal(t, &catalog.Geolocation{Latitude: 42.3, Longitude: -72.6}, p.Candidates[0].Geolocation)
	assert.Equal(t, "herbarium sheets", p.Candidates[0].Description)
	assert.Equal(t, &catalog.Geolocation{Latitude: 42.5, Longitude: -72.1}, p.Candidates[1].Geolocation)
	for _, c := range p.Candidates[2:] {
		assert.Nil(t, c.Geolocation, "row %d", c.Row)
	}

	rowsWarned := make([]int, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		rowsWarned = append(rowsWarned, w.Row)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, rowsWarned)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Lenient, m)

	m, err = ParseMode("STRICT")
	require.NoError(t, err)
	assert.Equal(t, Strict, m)
	assert.Equal(t, "strict", m.String())

	_, err = ParseMode("sometimes")
	assert.Error(t, err)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("CollectionName")
	require.NoError(t, err)
	assert.Equal(t, CollectionName, f)

	_, err = ParseField("name")
	assert.Error(t, err)
}
