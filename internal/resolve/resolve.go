// Package resolve turns projected candidates into catalog records, reusing
// existing institutions and collections by natural key and creating the rest,
// all inside one unit of work.
package resolve

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// Result lists the records touched by a commit, distinct by id and in the
// order each was first touched.
type Result struct {
	Institutions        []catalog.Institution
	Collections         []catalog.Collection
	InstitutionsCreated int
	CollectionsCreated  int
}

// InstitutionNames returns the touched institution names in order.
func (r *Result) InstitutionNames() []string {
	names := make([]string, len(r.Institutions))
	for i, inst := range r.Institutions {
		names[i] = inst.Name
	}
	return names
}

// CollectionNames returns the touched collection names in order.
func (r *Result) CollectionNames() []string {
	names := make([]string, len(r.Collections))
	for i, coll := range r.Collections {
		names[i] = coll.Name
	}
	return names
}

// Resolver resolves candidates against a catalog store.
type Resolver struct {
	store  catalog.Store
	logger *zerolog.Logger
}

// New creates a resolver on store.
func New(store catalog.Store, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve finds or creates the institution and collection of every candidate,
// in order. The first row to create a record decides its display name and
// auxiliary fields; later rows never modify it. Any failure rolls back the
// whole unit of work and is reported as PersistenceConflict unless it is a
// cancellation.
func (r *Resolver) Resolve(ctx context.Context, candidates []mapping.Candidate) (*Result, error) {
	var result *Result
	err := r.store.WithTx(ctx, func(ctx context.Context, tx catalog.Tx) error {
		res, err := resolveAll(ctx, tx, candidates)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, conflict(err)
	}

	r.logger.Debug().
		Int("institutions", len(result.Institutions)).
		Int("institutions_created", result.InstitutionsCreated).
		Int("collections", len(result.Collections)).
		Int("collections_created", result.CollectionsCreated).
		Msg("Resolved candidates")
	return result, nil
}

func resolveAll(ctx context.Context, tx catalog.Tx, candidates []mapping.Candidate) (*Result, error) {
	res := &Result{}
	seenInst := make(map[string]bool)
	seenColl := make(map[string]bool)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inst, created, err := tx.FindOrCreateInstitution(ctx, c.InstitutionName)
		if err != nil {
			return nil, pkgerrors.WrapConflict("institution", c.InstitutionName, err)
		}
		if created {
			res.InstitutionsCreated++
		}
		if !seenInst[inst.ID] {
			seenInst[inst.ID] = true
			res.Institutions = append(res.Institutions, inst)
		}

		coll, created, err := tx.FindOrCreateCollection(ctx, catalog.CollectionSpec{
			InstitutionID: inst.ID,
			Name:          c.CollectionName,
			Geolocation:   c.Geolocation,
			Description:   c.Description,
		})
		if err != nil {
			return nil, pkgerrors.WrapConflict("collection", c.CollectionName, err)
		}
		if created {
			res.CollectionsCreated++
		}
		if !seenColl[coll.ID] {
			seenColl[coll.ID] = true
			res.Collections = append(res.Collections, coll)
		}
	}
	return res, nil
}

// conflict keeps cancellations and typed conflicts as they are and wraps
// every other backend failure.
func conflict(err error) error {
	switch {
	case pkgerrors.IsCanceled(err):
		return err
	case pkgerrors.IsConflict(err):
		return err
	}
	return pkgerrors.NewConflictError("catalog", "commit", err)
}
