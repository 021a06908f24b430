package uploads

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// mongoDatabase connects to MONGO_URI or skips the test.
func mongoDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("collectionmap_test_uploads")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMongoStore_Lifecycle(t *testing.T) {
	db := mongoDatabase(t)
	ctx := context.Background()

	s, err := NewMongoStore(ctx, db, time.Hour)
	require.NoError(t, err)

	id, err := s.Create(ctx, sampleUpload())
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inst", "Coll"}, got.Headers)
	assert.Equal(t, [][]string{{"Smith College", "Botanicals"}}, got.Rows)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsNotFound(s.Delete(ctx, id)))
}

func TestMongoStore_ExpiredIsNotFound(t *testing.T) {
	db := mongoDatabase(t)
	ctx := context.Background()

	s, err := NewMongoStore(ctx, db, time.Minute)
	require.NoError(t, err)

	id, err := s.Create(ctx, sampleUpload())
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Get(ctx, id)
	assert.True(t, pkgerrors.IsNotFound(err))
}
