package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// isolate keeps the developer's config and environment out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"COLLECTIONMAP_STORE", "COLLECTIONMAP_CONFIG", "COLLECTIONMAP_SNAPSHOT_PATH",
		"COLLECTIONMAP_MAX_UPLOAD_BYTES", "COLLECTIONMAP_STRICT_ROWS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNew(t *testing.T) {
	isolate(t)

	app, err := New("1.0.0", "abc123", "2026-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2026-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Metrics())

	cfg := app.Config()
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.UploadRetention)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.StrictRows)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	isolate(t)
	t.Setenv("COLLECTIONMAP_STORE", "postgres")

	_, err := New("dev", "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be memory or mongo")
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "collectionmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upload_retention: 2h\nstrict_rows: true\n"), 0o600))
	t.Setenv("COLLECTIONMAP_CONFIG", path)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, app.Config().UploadRetention)
	assert.True(t, app.Config().StrictRows)
	assert.Equal(t, path, app.Config().ConfigFile)
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		Store: "memory", UploadRetention: time.Hour, UploadReapInterval: time.Minute, MaxUploadBytes: 1,
	}
	require.NoError(t, base.Validate())

	tests := map[string]func(c *Config){
		"unknown store":   func(c *Config) { c.Store = "sqlite" },
		"mongo no uri":    func(c *Config) { c.Store = "mongo"; c.MongoDatabase = "db" },
		"zero retention":  func(c *Config) { c.UploadRetention = 0 },
		"zero reap":       func(c *Config) { c.UploadReapInterval = 0 },
		"zero max upload": func(c *Config) { c.MaxUploadBytes = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			err := c.Validate()
			var cfgErr *errors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	isolate(t)
	t.Setenv("COLLECTIONMAP_MAX_UPLOAD_BYTES", "2048")

	app, err := New("1.2.3", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), app.MaxUploadBytes())

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--max-upload-bytes", "1024", "--format", "yaml", "version"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "collectionmap 1.2.3\n", out.String())
	assert.Equal(t, int64(1024), app.MaxUploadBytes())
	assert.Equal(t, "yaml", app.OutputFormat())
}

func TestDetermineLogLevel(t *testing.T) {
	assert.Equal(t, "error", determineLogLevel(&Config{LogLevel: "error", Verbose: true}))
	assert.Equal(t, "info", determineLogLevel(&Config{LogLevel: "loud"}))
	assert.Equal(t, "debug", determineLogLevel(&Config{Verbose: true}))
	assert.Equal(t, "warn", determineLogLevel(&Config{Quiet: true}))
	assert.Equal(t, "warn", determineLogLevel(&Config{Verbose: true, Quiet: true}))
	assert.Equal(t, "info", determineLogLevel(&Config{}))
}

func TestLazyStoresAndIngest(t *testing.T) {
	isolate(t)
	snapshot := filepath.Join(t.TempDir(), "catalog.yaml")
	t.Setenv("COLLECTIONMAP_SNAPSHOT_PATH", snapshot)

	app, err := New("dev", "", "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	stores := make([]catalog.Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i], _ = app.Catalog()
		}(i)
	}
	wg.Wait()
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}

	svc, err := app.Ingest()
	require.NoError(t, err)
	again, err := app.Ingest()
	require.NoError(t, err)
	assert.Same(t, svc, again)

	ctx := context.Background()
	id, err := svc.Create(ctx, ingest.File{
		Name:        "holdings.csv",
		ContentType: "text/csv",
		Reader:      bytes.NewBufferString("Institution,Collection\nKew Gardens,Herbarium\n"),
	})
	require.NoError(t, err)
	preview, err := svc.FindByID(ctx, id)
	require.NoError(t, err)
	_, err = svc.MapUpload(ctx, id, preview.SuggestedMapping)
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(ctx))
	assert.FileExists(t, snapshot)

	reopened, err := app.Catalog()
	require.NoError(t, err)
	institutions, err := reopened.Institutions(ctx)
	require.NoError(t, err)
	require.Len(t, institutions, 1)
	assert.Equal(t, "Kew Gardens", institutions[0].Name)
	require.NoError(t, app.Shutdown(ctx))
}
