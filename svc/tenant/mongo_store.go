package tenant

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongodb "github.com/dmitrymomot/chatblast/pkg/mongo"
)

const collectionName = "tenants"

// MongoStore keeps tenants in the "tenants" collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by db. Call EnsureIndexes once at
// startup.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the per-owner unique name index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// Get returns the tenant with id or ErrTenantNotFound.
func (s *MongoStore) Get(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByOwner returns the tenants of ownerID sorted by creation time.
func (s *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]*Tenant, error) {
	cur, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := make([]*Tenant, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByOwner counts the tenants of ownerID.
func (s *MongoStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	return int(n), err
}

// NameTaken reports whether ownerID has another tenant named name.
func (s *MongoStore) NameTaken(ctx context.Context, ownerID, name, exceptID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"owner_id": ownerID,
		"name":     name,
		"_id":      bson.M{"$ne": exceptID},
	}, options.Count().SetLimit(1))
	return n > 0, err
}

// Insert stores a new tenant. A duplicate (owner, name) pair gives
// ErrNameTaken.
func (s *MongoStore) Insert(ctx context.Context, t *Tenant) error {
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

// Update replaces the stored tenant.
func (s *MongoStore) Update(ctx context.Context, t *Tenant) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrNameTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		return errors.Join(ErrTenantNotFound, mongo.ErrNoDocuments)
	}
	return nil
}
