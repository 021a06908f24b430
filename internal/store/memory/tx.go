package memory

import (
	"context"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// tx reads through staged records to the committed base. The base cannot
// change while a tx runs because WithTx holds the write lock.
type tx struct {
	store  *Store
	base   *state
	staged *state
}

func (t *tx) FindOrCreateInstitution(ctx context.Context, name string) (catalog.Institution, bool, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Institution{}, false, err
	}
	key := catalog.NormalizeName(name)
	if key == "" {
		return catalog.Institution{}, false, pkgerrors.NewValidationError("name", name, "institution name is blank")
	}

	for _, st := range []*state{t.staged, t.base} {
		if id, ok := st.instByKey[key]; ok {
			return st.institutions[id], false, nil
		}
	}

	inst := catalog.Institution{
		ID:        t.store.newID(),
		Name:      catalog.CleanName(name),
		NameKey:   key,
		CreatedAt: t.store.now().UTC(),
	}
	t.staged.addInstitution(inst)
	return inst, true, nil
}

func (t *tx) FindOrCreateCollection(ctx context.Context, spec catalog.CollectionSpec) (catalog.Collection, bool, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Collection{}, false, err
	}
	key := catalog.NormalizeName(spec.Name)
	if key == "" {
		return catalog.Collection{}, false, pkgerrors.NewValidationError("name", spec.Name, "collection name is blank")
	}
	if _, ok := t.staged.institutions[spec.InstitutionID]; !ok {
		if _, ok := t.base.institutions[spec.InstitutionID]; !ok {
			return catalog.Collection{}, false, pkgerrors.NewNotFoundError("institution", spec.InstitutionID)
		}
	}

	ck := collectionKey{spec.InstitutionID, key}
	for _, st := range []*state{t.staged, t.base} {
		if id, ok := st.collByKey[ck]; ok {
			return st.collections[id], false, nil
		}
	}

	coll := catalog.Collection{
		ID:            t.store.newID(),
		Name:          catalog.CleanName(spec.Name),
		NameKey:       key,
		InstitutionID: spec.InstitutionID,
		Description:   spec.Description,
		CreatedAt:     t.store.now().UTC(),
	}
	if spec.Geolocation != nil {
		geo := *spec.Geolocation
		coll.Geolocation = &geo
	}
	t.staged.addCollection(coll)
	return coll, true, nil
}
