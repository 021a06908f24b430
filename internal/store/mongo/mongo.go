// Package mongo is a MongoDB catalog store. Units of work run in a session
// transaction, which requires a replica set deployment. Unique indexes on the
// natural keys make concurrent commits race-safe: the loser gets a duplicate
// key error, reported as PersistenceConflict, and its transaction aborts.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/agentstation/collectionmap/pkg/catalog"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
)

// Collection names.
const (
	InstitutionsCollection = "institutions"
	CollectionsCollection  = "collections"
)

var _ catalog.Store = (*Store)(nil)

// Store is a MongoDB catalog.Store.
type Store struct {
	client       *mongo.Client
	institutions *mongo.Collection
	collections  *mongo.Collection
	logger       *zerolog.Logger
	ownsClient   bool
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOwnedClient makes Close disconnect the client.
func WithOwnedClient() Option {
	return func(s *Store) {
		s.ownsClient = true
	}
}

// Connect dials uri and verifies the deployment with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pkgerrors.NewConfigError("mongo", "invalid connection settings", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.WrapResource("ping", "mongo", "", err)
	}
	return client, nil
}

// New returns a store on database dbName, creating its indexes.
func New(ctx context.Context, client *mongo.Client, dbName string, opts ...Option) (*Store, error) {
	db := client.Database(dbName)
	nop := zerolog.Nop()
	s := &Store{
		client:       client,
		institutions: db.Collection(InstitutionsCollection),
		collections:  db.Collection(CollectionsCollection),
		logger:       &nop,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.institutions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nameKey", Value: 1}},
		Options: options.Index().SetName("nameKey_unique").SetUnique(true),
	}); err != nil {
		return pkgerrors.WrapResource("create", "index", "institutions.nameKey_unique", err)
	}
	if _, err := s.collections.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "institutionId", Value: 1}, {Key: "nameKey", Value: 1}},
		Options: options.Index().SetName("institutionId_nameKey_unique").SetUnique(true),
	}); err != nil {
		return pkgerrors.WrapResource("create", "index", "collections.institutionId_nameKey_unique", err)
	}
	return nil
}

// WithTx implements catalog.Store. The driver retries fn on transient
// transaction errors; a duplicate key is not transient and aborts.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx catalog.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return pkgerrors.WrapResource("start", "session", "", err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, &tx{store: s})
	}, txnOpts)
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) && !pkgerrors.IsConflict(err) {
		return pkgerrors.NewConflictError("catalog", "commit", err)
	}
	return err
}

// Institution implements catalog.Reader.
func (s *Store) Institution(ctx context.Context, id string) (catalog.Institution, error) {
	var doc institutionDoc
	err := s.institutions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Institution{}, pkgerrors.NewNotFoundError("institution", id)
	}
	if err != nil {
		return catalog.Institution{}, pkgerrors.WrapResource("get", "institution", id, err)
	}
	return doc.model(), nil
}

// Collection implements catalog.Reader.
func (s *Store) Collection(ctx context.Context, id string) (catalog.Collection, error) {
	var doc collectionDoc
	err := s.collections.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Collection{}, pkgerrors.NewNotFoundError("collection", id)
	}
	if err != nil {
		return catalog.Collection{}, pkgerrors.WrapResource("get", "collection", id, err)
	}
	return doc.model(), nil
}

// Institutions implements catalog.Reader.
func (s *Store) Institutions(ctx context.Context) ([]catalog.Institution, error) {
	cur, err := s.institutions.Find(ctx, bson.M{}, byCreation())
	if err != nil {
		return nil, pkgerrors.WrapResource("list", "institution", "", err)
	}
	var docs []institutionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pkgerrors.WrapResource("list", "institution", "", err)
	}
	out := make([]catalog.Institution, len(docs))
	for i, d := range docs {
		out[i] = d.model()
	}
	return out, nil
}

// Collections implements catalog.Reader.
func (s *Store) Collections(ctx context.Context, filter catalog.CollectionFilter) ([]catalog.Collection, error) {
	query := bson.M{}
	if filter.InstitutionID != "" {
		query["institutionId"] = filter.InstitutionID
	}
	if filter.GeolocatedOnly {
		query["geolocation"] = bson.M{"$exists": true, "$ne": nil}
	}

	cur, err := s.collections.Find(ctx, query, byCreation())
	if err != nil {
		return nil, pkgerrors.WrapResource("list", "collection", "", err)
	}
	var docs []collectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pkgerrors.WrapResource("list", "collection", "", err)
	}
	out := make([]catalog.Collection, len(docs))
	for i, d := range docs {
		out[i] = d.model()
	}
	return out, nil
}

// Close implements catalog.Store.
func (s *Store) Close(ctx context.Context) error {
	if !s.ownsClient {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongo: %w", err)
	}
	return nil
}

func byCreation() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func newID() string {
	return uuid.New().String()
}
