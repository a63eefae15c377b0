package identity

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongodb "github.com/dmitrymomot/chatblast/pkg/mongo"
)

const (
	collectionName = "profiles"

	indexRegisteredUsername = "registered_username"
	indexTenantUsername     = "tenant_kind_username"
	indexExternalID         = "external_id"
	indexEmail              = "email_address"
)

// MongoStore keeps profiles in the "profiles" collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by db. Call EnsureIndexes once at
// startup.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique indexes backing the username, email and
// external id rules.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexRegisteredUsername).SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": Registered}),
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "username", Value: 1}},
			Options: options.Index().SetName(indexTenantUsername).SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": bson.M{"$gt": Registered}}),
		},
		{
			Keys: bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetName(indexExternalID).SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_id": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "email.address", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true).
				SetPartialFilterExpression(bson.M{"email.address": bson.M{"$exists": true}}),
		},
	})
	return err
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Profile, error) {
	var p Profile
	if err := s.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get returns the profile with id or ErrProfileNotFound.
func (s *MongoStore) Get(ctx context.Context, id string) (*Profile, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetMany returns the profiles among ids. Unknown ids are skipped.
func (s *MongoStore) GetMany(ctx context.Context, ids []string) ([]*Profile, error) {
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, 0, len(ids))
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindRegistered looks up a Registered profile by username or email.
func (s *MongoStore) FindRegistered(ctx context.Context, login string) (*Profile, error) {
	return s.findOne(ctx, bson.M{
		"kind": Registered,
		"$or":  bson.A{bson.M{"username": login}, bson.M{"email.address": login}},
	})
}

// FindByExternalID returns the Delegated profile bound to externalID.
func (s *MongoStore) FindByExternalID(ctx context.Context, externalID string) (*Profile, error) {
	return s.findOne(ctx, bson.M{"external_id": externalID})
}

func (s *MongoStore) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

// UsernameTaken reports whether username is used in the scope of kind and
// tenantID, ignoring exceptID.
func (s *MongoStore) UsernameTaken(ctx context.Context, kind Kind, username, tenantID, exceptID string) (bool, error) {
	filter := bson.M{"username": username, "kind": kind, "_id": bson.M{"$ne": exceptID}}
	if kind != Registered {
		filter["tenant_id"] = tenantID
	}
	return s.exists(ctx, filter)
}

// EmailTaken reports whether a profile other than exceptID uses address.
func (s *MongoStore) EmailTaken(ctx context.Context, address, exceptID string) (bool, error) {
	return s.exists(ctx, bson.M{"email.address": address, "_id": bson.M{"$ne": exceptID}})
}

// Insert stores a new profile. Duplicate keys map to the Conflict errors.
func (s *MongoStore) Insert(ctx context.Context, p *Profile) error {
	_, err := s.coll.InsertOne(ctx, p)
	return mapWriteError(err)
}

// Update replaces the stored profile.
func (s *MongoStore) Update(ctx context.Context, p *Profile) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// AddTenant adds tenantID to the visited set with $addToSet.
func (s *MongoStore) AddTenant(ctx context.Context, profileID, tenantID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{"$addToSet": bson.M{"tenants": tenantID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// mapWriteError turns unique index violations into conflict errors.
func mapWriteError(err error) error {
	if err == nil || !mongodb.IsDuplicateKey(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return errors.Join(ErrEmailTaken, err)
	case strings.Contains(msg, indexExternalID):
		return errors.Join(ErrExternalIDTaken, err)
	default:
		return errors.Join(ErrUsernameTaken, err)
	}
}
