package entitlement

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection entitlement records live in.
const DefaultCollection = "entitlements"

// MongoStore implements Store on top of a MongoDB collection. Counters are
// applied with $inc, timestamps are server-assigned via $currentDate, and
// conditional writes use filter preconditions so concurrent transitions
// cannot silently clobber each other.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the given database using DefaultCollection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(DefaultCollection)}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &rec, nil
}

func (s *MongoStore) GetOrCreate(ctx context.Context, userID string) (*Record, error) {
	defaults := NewRecord(userID)
	update := bson.M{"$setOnInsert": bson.M{
		"subscriptionStatus": defaults.SubscriptionStatus,
		"isPremium":          false,
		"hasEverBeenPremium": false,
		"trialCount":         0,
		"usage":              int64(0),
		"workspaceUsage":     int64(0),
		"shareUsage":         int64(0),
		"imageAnalysisUsage": int64(0),
		"version":            int64(0),
		"createdAt":          time.Now().UTC(),
		"updatedAt":          time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec Record
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&rec); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return &rec, nil
}

func (s *MongoStore) Update(ctx context.Context, userID string, patch Patch) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": userID}, buildUpdate(patch))
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateIf(ctx context.Context, userID string, cond map[string]any, patch Patch) error {
	filter := bson.M{"_id": userID}
	for field, want := range cond {
		filter[field] = want
	}

	res, err := s.coll.UpdateOne(ctx, filter, buildUpdate(patch))
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing document from a stale precondition.
		if _, err := s.Get(ctx, userID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrPreconditionFailed
	}
	return nil
}

func (s *MongoStore) BoundedIncrement(ctx context.Context, userID string, inc map[string]int64, below map[string]int64) error {
	filter := bson.M{"_id": userID}
	for field, bound := range below {
		filter[field] = bson.M{"$lt": bound}
	}

	res, err := s.coll.UpdateOne(ctx, filter, buildUpdate(Patch{Inc: inc}))
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.Get(ctx, userID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrLimitReached
	}
	return nil
}

// buildUpdate translates a Patch into a mongo update document. Nil Set
// values become $unset, and every patch bumps the version counter and the
// server-assigned updatedAt timestamp.
func buildUpdate(patch Patch) bson.M {
	set := bson.M{}
	unset := bson.M{}
	for field, value := range patch.Set {
		if value == nil {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	incs := bson.M{FieldVersion: int64(1)}
	for field, delta := range patch.Inc {
		incs[field] = delta
	}

	update := bson.M{
		"$inc":         incs,
		"$currentDate": bson.M{"updatedAt": true},
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
