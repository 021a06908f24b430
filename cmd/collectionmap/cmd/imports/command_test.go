package imports

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/internal/store/memory"
	"github.com/agentstation/collectionmap/internal/uploads"
	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

type fixture struct {
	app     *application.Mock
	catalog *memory.Store
	uploads *uploads.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	up := uploads.NewMemoryStore(time.Hour, time.Hour)
	t.Cleanup(func() { _ = up.Close(context.Background()) })
	cat, err := memory.New()
	require.NoError(t, err)
	svc, err := ingest.New(up, cat)
	require.NoError(t, err)

	return &fixture{
		app: &application.Mock{
			IngestFunc:       func() (ingest.Service, error) { return svc, nil },
			UploadsFunc:      func() (uploads.Store, error) { return up, nil },
			CatalogFunc:      func() (catalog.Store, error) { return cat, nil },
			OutputFormatFunc: func() string { return "json" },
		},
		catalog: cat,
		uploads: up,
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportSuggestedMapping(t *testing.T) {
	fx := newFixture(t)
	path := writeCSV(t, "Institution,Collection\nKew Gardens,Herbarium\nKew Gardens,Seeds\n,Orphan\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), fx.app, path, &options{}, &stdout, &stderr))

	var result ingest.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, []string{"Kew Gardens"}, result.Institutions)
	assert.Equal(t, []string{"Herbarium", "Seeds"}, result.Collections)
	assert.Equal(t, 1, result.RowsSkipped)

	institutions, err := fx.catalog.Institutions(context.Background())
	require.NoError(t, err)
	assert.Len(t, institutions, 1)

	n, err := fx.uploads.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "committed upload is consumed")
}

func TestImportExplicitMappingStrict(t *testing.T) {
	fx := newFixture(t)
	path := writeCSV(t, "Museum,Holding\nKew Gardens,Herbarium\nKew Gardens,\n")

	err := run(context.Background(), fx.app, path,
		&options{mapSpec: "Museum=institutionName,1=collectionName", strict: true},
		&bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidMapping(err), "got %v", err)

	institutions, err := fx.catalog.Institutions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, institutions)
}

func TestImportDryRun(t *testing.T) {
	fx := newFixture(t)
	path := writeCSV(t, "Institution,Collection,Lat,Lon\nKew Gardens,Herbarium,51.4,-0.2\n")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), fx.app, path, &options{dryRun: true}, &stdout, &bytes.Buffer{}))

	var preview struct {
		Headers  []string `json:"headers"`
		RowCount int      `json:"rowCount"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &preview))
	assert.Equal(t, []string{"Institution", "Collection", "Lat", "Lon"}, preview.Headers)
	assert.Equal(t, 1, preview.RowCount)

	n, err := fx.uploads.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "dry run leaves no pending upload")

	institutions, err := fx.catalog.Institutions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, institutions)
}

func TestImportMissingFile(t *testing.T) {
	fx := newFixture(t)
	err := run(context.Background(), fx.app, filepath.Join(t.TempDir(), "nope.csv"), &options{}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseMapping(t *testing.T) {
	headers := []string{"Museum", "Holding", "Lat", "Lon"}

	m, err := ParseMapping(" museum = institutionName , 1=collectionName,Lat=LATITUDE,3=longitude,", headers)
	require.NoError(t, err)
	assert.Equal(t, mapping.HeaderMapping{
		0: mapping.InstitutionName,
		1: mapping.CollectionName,
		2: mapping.Latitude,
		3: mapping.Longitude,
	}, m)

	for _, bad := range []string{
		"",
		"Museum",
		"Curator=institutionName",
		"0=altitude",
		"0=institutionName,0=collectionName",
		"0=institutionName,museum=description",
	} {
		_, err := ParseMapping(bad, headers)
		assert.True(t, errors.IsValidationError(err), "%q: got %v", bad, err)
	}
}
