package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDatabase adapts a *mongo.Database to Database.
type MongoDatabase struct {
	db *mongo.Database
}

func NewMongoDatabase(db *mongo.Database) *MongoDatabase {
	return &MongoDatabase{db: db}
}

func (m *MongoDatabase) Collection(name string) Collection {
	return &MongoCollection{col: m.db.Collection(name)}
}

// MongoCollection adapts a *mongo.Collection to Collection.
type MongoCollection struct {
	col *mongo.Collection
}

func NewMongoCollection(col *mongo.Collection) *MongoCollection {
	return &MongoCollection{col: col}
}

func (m *MongoCollection) Name() string { return m.col.Name() }

func (m *MongoCollection) wrap(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s %s: %w", content.ErrDuplicate, op, m.col.Name(), err)
	}
	return fmt.Errorf("%w: %s %s: %w", content.ErrStore, op, m.col.Name(), err)
}

func (m *MongoCollection) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, m.wrap("find", err)
	}
	defer cur.Close(ctx)
	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, m.wrap("find", err)
	}
	return out, nil
}

func (m *MongoCollection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	var d bson.M
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, m.wrap("findOne", err)
	}
	return d, nil
}

func (m *MongoCollection) UpdateOne(ctx context.Context, filter, update bson.M) (UpdateResult, error) {
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return UpdateResult{}, m.wrap("updateOne", err)
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (m *MongoCollection) UpdateMany(ctx context.Context, filter, update bson.M) (UpdateResult, error) {
	res, err := m.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return UpdateResult{}, m.wrap("updateMany", err)
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (m *MongoCollection) InsertMany(ctx context.Context, docs []any) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := m.col.InsertMany(ctx, docs)
	if err != nil {
		n := 0
		if res != nil {
			n = len(res.InsertedIDs)
		}
		return n, m.wrap("insertMany", err)
	}
	return len(res.InsertedIDs), nil
}

func (m *MongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	n, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, m.wrap("countDocuments", err)
	}
	return n, nil
}

func (m *MongoCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := m.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, m.wrap("deleteMany", err)
	}
	return res.DeletedCount, nil
}
