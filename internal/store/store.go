// Package store is the minimal document-store surface the content layer
// depends on. Filters and updates use the MongoDB query language.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateResult mirrors the driver's matched/modified counts.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// Collection is one named set of schemaless documents.
type Collection interface {
	Name() string
	Find(ctx context.Context, filter bson.M) ([]bson.M, error)
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, filter bson.M) (bson.M, error)
	UpdateOne(ctx context.Context, filter, update bson.M) (UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update bson.M) (UpdateResult, error)
	InsertMany(ctx context.Context, docs []any) (int, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
}

// Database hands out collections by name.
type Database interface {
	Collection(name string) Collection
}

// ParseID turns a hex ObjectID into primitive.ObjectID and leaves every other
// identifier as a plain string.
func ParseID(s string) any {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

// ByID builds an _id equality filter.
func ByID(id string) bson.M {
	return bson.M{"_id": ParseID(id)}
}
