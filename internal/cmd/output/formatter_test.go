package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	inst := catalog.Institution{ID: "i1", Name: "Kew Gardens", NameKey: "kew gardens"}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, inst))
	assert.Contains(t, buf.String(), `"name": "Kew Gardens"`)
	assert.NotContains(t, buf.String(), "kew gardens")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, inst))
	assert.Contains(t, buf.String(), "name: Kew Gardens")
}

func TestTableFormatterData(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	institutions := []catalog.Institution{{ID: "i1", Name: "Kew Gardens", CreatedAt: created}}
	collections := []catalog.Collection{
		{ID: "c1", Name: "Herbarium", InstitutionID: "i1", Geolocation: &catalog.Geolocation{Latitude: 51.478, Longitude: -0.295}},
		{ID: "c2", Name: "Seeds", InstitutionID: "i1"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, InstitutionsTable(institutions, collections)))
	out := buf.String()
	assert.Contains(t, out, "Kew Gardens")
	assert.Contains(t, out, "2026-03-01T12:00:00Z")

	data := CollectionsTable(collections, institutions)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"c1", "Herbarium", "Kew Gardens", "51.478", "-0.295", ""}, data.Rows[0])
	assert.Equal(t, []string{"c2", "Seeds", "Kew Gardens", "", "", ""}, data.Rows[1])
}

func TestTableFormatterReflection(t *testing.T) {
	institutions := []catalog.Institution{{ID: "i1", Name: "Kew Gardens", NameKey: "kew gardens"}}

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, institutions))
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "CREATED AT")
	assert.NotContains(t, buf.String(), "kew gardens")
}

func TestPreviewAndResultTables(t *testing.T) {
	preview := &ingest.Preview{
		Headers:          []string{"Museum", "Holding", "Notes"},
		SuggestedMapping: mapping.HeaderMapping{0: mapping.InstitutionName, 2: mapping.Description},
	}
	data := PreviewTable(preview)
	assert.Equal(t, [][]string{
		{"0", "Museum", "institutionName"},
		{"1", "Holding", ""},
		{"2", "Notes", "description"},
	}, data.Rows)

	result := ResultTable(&ingest.Result{RowsTotal: 4, RowsSkipped: 1, Institutions: []string{"A"}, InstitutionsCreated: 1})
	assert.Equal(t, []string{"Rows", "4"}, result.Rows[0])
	assert.Equal(t, []string{"Rows skipped", "1"}, result.Rows[1])
}
