package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/internal/metrics"
	"github.com/agentstation/collectionmap/internal/uploads"
	"github.com/agentstation/collectionmap/pkg/catalog"
	"github.com/agentstation/collectionmap/pkg/constants"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    CatalogFunc: func() (catalog.Store, error) {
//	        return store, nil
//	    },
//	}
//	cmd := institutions.NewCommand(mock)
type Mock struct {
	CatalogFunc      func() (catalog.Store, error)
	UploadsFunc      func() (uploads.Store, error)
	IngestFunc       func() (ingest.Service, error)
	MetricsFunc      func() *metrics.Metrics
	LoggerFunc       func() *zerolog.Logger
	MaxUploadFunc    func() int64
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Catalog returns a store using the mock function or nil.
func (m *Mock) Catalog() (catalog.Store, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc()
	}
	return nil, nil
}

// Uploads returns a store using the mock function or nil.
func (m *Mock) Uploads() (uploads.Store, error) {
	if m.UploadsFunc != nil {
		return m.UploadsFunc()
	}
	return nil, nil
}

// Ingest returns a service using the mock function or nil.
func (m *Mock) Ingest() (ingest.Service, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc()
	}
	return nil, nil
}

// Metrics returns collectors using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// MaxUploadBytes returns the cap using the mock function or the default.
func (m *Mock) MaxUploadBytes() int64 {
	if m.MaxUploadFunc != nil {
		return m.MaxUploadFunc()
	}
	return constants.DefaultMaxUploadBytes
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit always returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date always returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy always returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
