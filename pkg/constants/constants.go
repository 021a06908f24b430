// Package constants provides shared constants used throughout the collectionmap codebase.
// This includes upload limits, retention windows, file permissions and other values
// that should be consistent between the server, the CLI and the stores.
package constants

import "time"

// Upload lifecycle constants
const (
	// UploadFieldName is the multipart form field that carries the CSV file
	UploadFieldName = "file"

	// DefaultUploadRetention is how long an unmapped upload is kept before it is reaped
	DefaultUploadRetention = 24 * time.Hour

	// DefaultReapInterval is how often the background sweep removes expired uploads
	DefaultReapInterval = 10 * time.Minute

	// DefaultMaxUploadBytes caps the size of an uploaded spreadsheet (32 MiB)
	DefaultMaxUploadBytes = 32 << 20

	// MaxMappingBodyBytes caps the size of a header mapping request body
	MaxMappingBodyBytes = 1 << 20
)

// Timeout constants
const (
	// DefaultTimeout is the standard timeout for store operations
	DefaultTimeout = 10 * time.Second

	// CommitTimeout bounds a single mapping commit
	CommitTimeout = 2 * time.Minute

	// ShutdownTimeout is how long the server drains connections on shutdown
	ShutdownTimeout = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Store backends
const (
	// StoreMemory keeps the catalog in process, optionally snapshotted to YAML
	StoreMemory = "memory"

	// StoreMongo keeps the catalog and pending uploads in MongoDB
	StoreMongo = "mongo"
)

// Mongo defaults
const (
	// DefaultMongoURI is used when no URI is configured
	DefaultMongoURI = "mongodb://localhost:27017/?replicaSet=rs0"

	// DefaultMongoDatabase is the database holding all collectionmap collections
	DefaultMongoDatabase = "collectionmap"
)
