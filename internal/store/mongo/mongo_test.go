package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// newTestStore needs a replica set at MONGO_URI, e.g.
// mongodb://localhost:27017/?replicaSet=rs0
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	dbName := fmt.Sprintf("collectionmap_test_%d", time.Now().UnixNano())
	s, err := New(ctx, client, dbName, WithOwnedClient())
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestStore_FindOrCreateAndScopedUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx catalog.Tx) error {
		smith, created, err := tx.FindOrCreateInstitution(ctx, "Smith College")
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := tx.FindOrCreateInstitution(ctx, "smith college")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, smith.ID, again.ID)

		amherst, _, err := tx.FindOrCreateInstitution(ctx, "Amherst College")
		require.NoError(t, err)

		a, _, err := tx.FindOrCreateCollection(ctx, catalog.CollectionSpec{InstitutionID: smith.ID, Name: "Archive"})
		require.NoError(t, err)
		b, _, err := tx.FindOrCreateCollection(ctx, catalog.CollectionSpec{InstitutionID: amherst.ID, Name: "Archive"})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
		return nil
	})
	require.NoError(t, err)

	insts, err := s.Institutions(ctx)
	require.NoError(t, err)
	assert.Len(t, insts, 2)

	colls, err := s.Collections(ctx, catalog.CollectionFilter{})
	require.NoError(t, err)
	assert.Len(t, colls, 2)
}

func TestStore_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx catalog.Tx) error {
		if _, _, err := tx.FindOrCreateInstitution(ctx, "Smith College"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	insts, err := s.Institutions(ctx)
	require.NoError(t, err)
	assert.Empty(t, insts)
}

func TestStore_GeolocatedFilterAndNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx catalog.Tx) error {
		inst, _, err := tx.FindOrCreateInstitution(ctx, "Smith College")
		if err != nil {
			return err
		}
		if _, _, err := tx.FindOrCreateCollection(ctx, catalog.CollectionSpec{
			InstitutionID: inst.ID, Name: "Botanicals",
			Geolocation: &catalog.Geolocation{Latitude: 42.3, Longitude: -72.6},
		}); err != nil {
			return err
		}
		_, _, err = tx.FindOrCreateCollection(ctx, catalog.CollectionSpec{InstitutionID: inst.ID, Name: "Herbarium"})
		return err
	}))

	geo, err := s.Collections(ctx, catalog.CollectionFilter{GeolocatedOnly: true})
	require.NoError(t, err)
	require.Len(t, geo, 1)
	assert.Equal(t, "Botanicals", geo[0].Name)

	got, err := s.Collection(ctx, geo[0].ID)
	require.NoError(t, err)
	assert.Equal(t, geo[0].ID, got.ID)

	_, err = s.Institution(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}
