// Package application provides the application interface for collectionmap commands.
//
// The Application interface is the contract between the application layer and
// command implementations, so commands and the HTTP server can be built
// against a mock in tests.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            store, err := app.Catalog()
//	            if err != nil {
//	                return err
//	            }
//	            institutions, err := store.Institutions(cmd.Context())
//	            // ...
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/internal/metrics"
	"github.com/agentstation/collectionmap/internal/uploads"
	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// Application provides the dependencies commands need.
// The App struct from cmd/collectionmap/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Catalog returns the configured catalog store, opening it on first use.
	Catalog() (catalog.Store, error)

	// Uploads returns the configured pending-upload store, opening it on first use.
	Uploads() (uploads.Store, error)

	// Ingest returns the ingestion service wired to Catalog and Uploads.
	Ingest() (ingest.Service, error)

	// Metrics returns the Prometheus collectors attached to Ingest.
	Metrics() *metrics.Metrics

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// MaxUploadBytes returns the configured cap on an uploaded file.
	MaxUploadBytes() int64

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
