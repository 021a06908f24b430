// Package app provides the application context and dependency management
// for the collectionmap CLI. It centralizes configuration, logging and the
// lazily opened stores that commands and the HTTP server share.
package app

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/collectionmap/cmd/application"
	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/internal/metrics"
	"github.com/agentstation/collectionmap/internal/store/memory"
	mongostore "github.com/agentstation/collectionmap/internal/store/mongo"
	"github.com/agentstation/collectionmap/internal/uploads"
	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/constants"
	"github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// App represents the collectionmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	viper  *viper.Viper
	config *Config
	logger *zerolog.Logger

	metrics *metrics.Metrics

	// Stores and the ingestion service are opened on first use.
	mu      sync.Mutex
	catalog catalog.Store
	uploads uploads.Store
	ingest  ingest.Service
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   newViper(),
		metrics: metrics.New(),
	}

	config, err := LoadConfig(app.viper)
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Metrics returns the Prometheus collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// OutputFormat returns the --format value, empty when auto-detected.
func (a *App) OutputFormat() string { return a.config.Format }

// MaxUploadBytes returns the configured cap on an uploaded file.
func (a *App) MaxUploadBytes() int64 { return a.config.MaxUploadBytes }

// Catalog returns the catalog store, opening the configured backend if needed.
func (a *App) Catalog() (catalog.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.openStores(); err != nil {
		return nil, err
	}
	return a.catalog, nil
}

// Uploads returns the pending-upload store, opening the configured backend if needed.
func (a *App) Uploads() (uploads.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.openStores(); err != nil {
		return nil, err
	}
	return a.uploads, nil
}

// Ingest returns the ingestion service on the configured stores. Its
// lifecycle hooks are counted by Metrics.
func (a *App) Ingest() (ingest.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ingest != nil {
		return a.ingest, nil
	}
	if err := a.openStores(); err != nil {
		return nil, err
	}

	mode := mapping.Lenient
	if a.config.StrictRows {
		mode = mapping.Strict
	}
	svc, err := ingest.New(a.uploads, a.catalog,
		ingest.WithMode(mode),
		ingest.WithMaxUploadBytes(a.config.MaxUploadBytes),
		ingest.WithLogger(a.logger),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "ingest service", "", err)
	}
	a.metrics.Attach(svc)
	a.ingest = svc
	return svc, nil
}

// openStores opens both stores on the configured backend. Callers hold a.mu.
func (a *App) openStores() error {
	if a.catalog != nil && a.uploads != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	var err error
	switch a.config.Store {
	case constants.StoreMongo:
		err = a.openMongo(ctx)
	default:
		err = a.openMemory()
	}
	if err != nil {
		return err
	}

	a.metrics.WatchPending(a.uploads)
	a.logger.Debug().
		Str("store", a.config.Store).
		Dur("upload_retention", a.config.UploadRetention).
		Msg("Stores opened")
	return nil
}

func (a *App) openMemory() error {
	opts := []memory.Option{memory.WithLogger(a.logger)}
	if a.config.SnapshotPath != "" {
		opts = append(opts, memory.WithSnapshot(a.config.SnapshotPath))
	}
	store, err := memory.New(opts...)
	if err != nil {
		return errors.WrapResource("open", "store", constants.StoreMemory, err)
	}
	a.catalog = store
	a.uploads = uploads.NewMemoryStore(a.config.UploadRetention, a.config.UploadReapInterval)
	return nil
}

func (a *App) openMongo(ctx context.Context) error {
	client, err := mongostore.Connect(ctx, a.config.MongoURI)
	if err != nil {
		return errors.WrapResource("open", "store", constants.StoreMongo, err)
	}
	store, err := mongostore.New(ctx, client, a.config.MongoDatabase,
		mongostore.WithOwnedClient(),
		mongostore.WithLogger(a.logger),
	)
	if err != nil {
		_ = client.Disconnect(ctx)
		return errors.WrapResource("open", "store", constants.StoreMongo, err)
	}
	pending, err := uploads.NewMongoStore(ctx, client.Database(a.config.MongoDatabase), a.config.UploadRetention)
	if err != nil {
		_ = store.Close(ctx)
		return errors.WrapResource("open", "upload store", constants.StoreMongo, err)
	}
	a.catalog = store
	a.uploads = pending
	return nil
}

// Shutdown stops upload reaping and closes the catalog store, disconnecting
// from MongoDB when the app opened the client.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.uploads != nil {
		if err := a.uploads.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.catalog != nil {
		if err := a.catalog.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.catalog, a.uploads, a.ingest = nil, nil, nil
	return stderrors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStores sets the stores instead of opening the configured backend.
func WithStores(catalogStore catalog.Store, uploadStore uploads.Store) Option {
	return func(a *App) error {
		a.catalog = catalogStore
		a.uploads = uploadStore
		return nil
	}
}
