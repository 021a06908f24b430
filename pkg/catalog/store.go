package catalog

import "context"

// Reader provides read-only access to catalog records.
type Reader interface {
	// Gets an institution or collection by id; NotFound when absent.
	Institution(ctx context.Context, id string) (Institution, error)
	Collection(ctx context.Context, id string) (Collection, error)

	// Lists records ordered by creation.
	Institutions(ctx context.Context) ([]Institution, error)
	Collections(ctx context.Context, filter CollectionFilter) ([]Collection, error)
}

// Tx is a unit of work. Records created through a Tx are visible to later
// calls on the same Tx and to nobody else until the unit of work commits.
type Tx interface {
	// FindOrCreateInstitution returns the institution whose key equals
	// NormalizeName(name), creating it when absent.
	FindOrCreateInstitution(ctx context.Context, name string) (inst Institution, created bool, err error)

	// FindOrCreateCollection returns the collection keyed by NormalizeName(spec.Name)
	// within spec.InstitutionID, creating it when absent. An existing record is never modified.
	FindOrCreateCollection(ctx context.Context, spec CollectionSpec) (coll Collection, created bool, err error)
}

// Store is the persistence port the ingestion core depends on.
type Store interface {
	Reader

	// WithTx runs fn in a unit of work. When fn returns an error nothing it
	// wrote is observable; otherwise all of it is committed atomically.
	// Backend write failures surface as PersistenceConflict.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
