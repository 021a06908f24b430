package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentstation/collectionmap/pkg/constants"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// CollectionName is the Mongo collection holding pending uploads.
const CollectionName = "tmp_uploads"

// MongoStore keeps uploads in MongoDB. A TTL index on expiresAt lets the
// server's TTL monitor reap them; reads filter on expiresAt as well since the
// monitor only runs about once a minute.
type MongoStore struct {
	coll      *mongo.Collection
	retention time.Duration
	now       func() time.Time
}

// NewMongoStore ensures the TTL index exists and returns a store on db.
func NewMongoStore(ctx context.Context, db *mongo.Database, retention time.Duration) (*MongoStore, error) {
	if retention <= 0 {
		retention = constants.DefaultUploadRetention
	}
	s := &MongoStore{
		coll:      db.Collection(CollectionName),
		retention: retention,
		now:       time.Now,
	}

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, pkgerrors.WrapResource("create", "index", "expiresAt_ttl", err)
	}
	return s, nil
}

// Create implements Store.
func (s *MongoStore) Create(ctx context.Context, u *Upload) (string, error) {
	stored := stamp(u, s.now(), s.retention)
	if _, err := s.coll.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", pkgerrors.NewConflictError("upload", stored.ID, err)
		}
		return "", pkgerrors.WrapResource("create", "upload", stored.ID, err)
	}
	return stored.ID, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*Upload, error) {
	var u Upload
	err := s.coll.FindOne(ctx, s.live(id)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.NewNotFoundError("upload", id)
	}
	if err != nil {
		return nil, pkgerrors.WrapResource("get", "upload", id, err)
	}
	return &u, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, s.live(id))
	if err != nil {
		return pkgerrors.WrapResource("delete", "upload", id, err)
	}
	if res.DeletedCount == 0 {
		return pkgerrors.NewNotFoundError("upload", id)
	}
	return nil
}

// Len implements Store.
func (s *MongoStore) Len(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"expiresAt": bson.M{"$gt": s.now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("counting uploads: %w", err)
	}
	return int(n), nil
}

// Close implements Store. The client is owned by the caller.
func (s *MongoStore) Close(context.Context) error {
	return nil
}

func (s *MongoStore) live(id string) bson.M {
	return bson.M{"_id": id, "expiresAt": bson.M{"$gt": s.now().UTC()}}
}
