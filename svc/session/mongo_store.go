package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongodb "github.com/dmitrymomot/chatblast/pkg/mongo"
)

const collectionName = "sessions"

// MongoStore keeps sessions in the "sessions" collection, one document per
// profile.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by db. Call EnsureIndexes once at
// startup.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique profile index that keeps one session per
// profile, and the token lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "profile_id", Value: 1}},
			Options: options.Index().SetName("profile_id").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("active_token").
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "activated_at", Value: 1}},
			Options: options.Index().SetName("active_activated_at"),
		},
	})
	return err
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Session, error) {
	var sess Session
	if err := s.coll.FindOne(ctx, filter).Decode(&sess); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// GetByToken returns the active session holding token or ErrSessionNotFound.
func (s *MongoStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	return s.findOne(ctx, bson.M{"token": token, "active": true})
}

// GetByProfile returns the session of profileID, active or not.
func (s *MongoStore) GetByProfile(ctx context.Context, profileID string) (*Session, error) {
	return s.findOne(ctx, bson.M{"profile_id": profileID})
}

// Activate merges into an active session first and only then (re)activates,
// so concurrent logins converge on a single row and a single token.
func (s *MongoStore) Activate(ctx context.Context, p ActivateParams) (*Session, error) {
	merge := bson.M{}
	if p.Fingerprint != "" {
		merge["fingerprints"] = p.Fingerprint
	}
	if p.IP != "" {
		merge["ips"] = p.IP
	}

	for attempt := 0; attempt < 2; attempt++ {
		sess, err := s.mergeActive(ctx, p.ProfileID, merge)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}

		sess, err = s.activate(ctx, p, merge)
		if err == nil {
			return sess, nil
		}
		// a concurrent first login inserted the row; retry the merge path
		if !mongodb.IsDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, ErrSessionNotFound
}

func (s *MongoStore) mergeActive(ctx context.Context, profileID string, merge bson.M) (*Session, error) {
	update := bson.M{"$set": bson.M{"active": true}}
	if len(merge) > 0 {
		update["$addToSet"] = merge
	}

	var sess Session
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"profile_id": profileID, "active": true},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sess)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *MongoStore) activate(ctx context.Context, p ActivateParams, merge bson.M) (*Session, error) {
	update := bson.M{
		"$set": bson.M{
			"active":       true,
			"token":        p.Token,
			"activated_at": p.At,
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	if len(merge) > 0 {
		update["$addToSet"] = merge
	}

	var sess Session
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"profile_id": p.ProfileID, "active": bson.M{"$ne": true}},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&sess)
	if err != nil {
		return nil, err
	}
	if sess.Fingerprints == nil {
		sess.Fingerprints = []string{}
	}
	if sess.IPs == nil {
		sess.IPs = []string{}
	}
	return &sess, nil
}

// Deactivate clears the token and the active flag.
func (s *MongoStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"active": false}, "$unset": bson.M{"token": ""}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListActiveBefore returns the active sessions activated before t.
func (s *MongoStore) ListActiveBefore(ctx context.Context, t time.Time) ([]*Session, error) {
	cur, err := s.coll.Find(ctx, bson.M{"active": true, "activated_at": bson.M{"$lt": t}})
	if err != nil {
		return nil, err
	}
	out := []*Session{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
