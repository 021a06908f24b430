package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// tx issues every operation with the session context WithTransaction passes
// in, so reads see the transaction's own writes.
type tx struct {
	store *Store
}

func (t *tx) FindOrCreateInstitution(ctx context.Context, name string) (catalog.Institution, bool, error) {
	key := catalog.NormalizeName(name)
	if key == "" {
		return catalog.Institution{}, false, pkgerrors.NewValidationError("name", name, "institution name is blank")
	}

	var existing institutionDoc
	err := t.store.institutions.FindOne(ctx, bson.M{"nameKey": key}).Decode(&existing)
	if err == nil {
		return existing.model(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Institution{}, false, err
	}

	doc := institutionDoc{
		ID:        newID(),
		Name:      catalog.CleanName(name),
		NameKey:   key,
		CreatedAt: t.store.now().UTC(),
	}
	if _, err := t.store.institutions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.Institution{}, false, pkgerrors.NewConflictError("institution", doc.Name, err)
		}
		return catalog.Institution{}, false, err
	}
	return doc.model(), true, nil
}

func (t *tx) FindOrCreateCollection(ctx context.Context, spec catalog.CollectionSpec) (catalog.Collection, bool, error) {
	key := catalog.NormalizeName(spec.Name)
	if key == "" {
		return catalog.Collection{}, false, pkgerrors.NewValidationError("name", spec.Name, "collection name is blank")
	}

	var existing collectionDoc
	err := t.store.collections.FindOne(ctx, bson.M{"institutionId": spec.InstitutionID, "nameKey": key}).Decode(&existing)
	if err == nil {
		return existing.model(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Collection{}, false, err
	}

	doc := collectionDoc{
		ID:            newID(),
		Name:          catalog.CleanName(spec.Name),
		NameKey:       key,
		InstitutionID: spec.InstitutionID,
		Geolocation:   spec.Geolocation,
		Description:   spec.Description,
		CreatedAt:     t.store.now().UTC(),
	}
	if _, err := t.store.collections.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalog.Collection{}, false, pkgerrors.NewConflictError("collection", doc.Name, err)
		}
		return catalog.Collection{}, false, err
	}
	return doc.model(), true, nil
}
