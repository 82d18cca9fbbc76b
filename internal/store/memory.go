package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Database used by unit tests and by the service when
// MongoDB is not configured. Documents keep insertion order.
type Memory struct {
	mu          sync.Mutex
	collections map[string]*MemoryCollection
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*MemoryCollection)}
}

func (m *Memory) Collection(name string) Collection {
	return m.collection(name)
}

func (m *Memory) collection(name string) *MemoryCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		c = &MemoryCollection{name: name, unique: map[string]bool{}}
		m.collections[name] = c
	}
	return c
}

// EnsureUnique adds a unique index on field. Documents lacking the field (or
// holding null) are not indexed, like a sparse unique index.
func (m *Memory) EnsureUnique(collection, field string) {
	c := m.collection(collection)
	c.mu.Lock()
	c.unique[field] = true
	c.mu.Unlock()
}

// CollectionNames lists collections that hold at least one document.
func (m *Memory) CollectionNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for name, c := range m.collections {
		c.mu.RLock()
		n := len(c.docs)
		c.mu.RUnlock()
		if n > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// MemoryCollection implements Collection over a slice of documents.
type MemoryCollection struct {
	mu     sync.RWMutex
	name   string
	docs   []bson.M
	unique map[string]bool
}

func (c *MemoryCollection) Name() string { return c.name }

func (c *MemoryCollection) fail(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", content.ErrStore, op, c.name, err)
}

func (c *MemoryCollection) normaliseFilter(op string, filter bson.M) (bson.M, error) {
	if filter == nil {
		return bson.M{}, nil
	}
	f, err := roundTrip(filter)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return f, nil
}

func (c *MemoryCollection) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, c.fail("find", err)
	}
	f, err := c.normaliseFilter("find", filter)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []bson.M{}
	for _, d := range c.docs {
		hit, err := matches(d, f)
		if err != nil {
			return nil, c.fail("find", err)
		}
		if hit {
			cp, err := roundTrip(d)
			if err != nil {
				return nil, c.fail("find", err)
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	docs, err := c.Find(ctx, filter)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (c *MemoryCollection) UpdateOne(ctx context.Context, filter, update bson.M) (UpdateResult, error) {
	return c.update(ctx, "updateOne", filter, update, false)
}

func (c *MemoryCollection) UpdateMany(ctx context.Context, filter, update bson.M) (UpdateResult, error) {
	return c.update(ctx, "updateMany", filter, update, true)
}

func (c *MemoryCollection) update(ctx context.Context, op string, filter, update bson.M, many bool) (UpdateResult, error) {
	var res UpdateResult
	if err := ctx.Err(); err != nil {
		return res, c.fail(op, err)
	}
	f, err := c.normaliseFilter(op, filter)
	if err != nil {
		return res, err
	}
	u, err := roundTrip(update)
	if err != nil {
		return res, c.fail(op, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		hit, err := matches(d, f)
		if err != nil {
			return res, c.fail(op, err)
		}
		if !hit {
			continue
		}
		res.MatchedCount++
		next, err := applyUpdate(d, u)
		if err != nil {
			return res, c.fail(op, err)
		}
		if !valuesEqual(d, next) {
			if err := c.checkUnique(next, i); err != nil {
				return res, err
			}
			c.docs[i] = next
			res.ModifiedCount++
		}
		if !many {
			break
		}
	}
	return res, nil
}

func (c *MemoryCollection) InsertMany(ctx context.Context, docs []any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, c.fail("insertMany", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for n, raw := range docs {
		d, err := roundTrip(raw)
		if err != nil {
			return n, c.fail("insertMany", err)
		}
		if _, ok := d["_id"]; !ok {
			d["_id"] = primitive.NewObjectID()
		}
		if err := c.checkUnique(d, -1); err != nil {
			return n, err
		}
		c.docs = append(c.docs, d)
	}
	return len(docs), nil
}

func (c *MemoryCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, c.fail("countDocuments", err)
	}
	f, err := c.normaliseFilter("countDocuments", filter)
	if err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, d := range c.docs {
		hit, err := matches(d, f)
		if err != nil {
			return 0, c.fail("countDocuments", err)
		}
		if hit {
			n++
		}
	}
	return n, nil
}

func (c *MemoryCollection) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, c.fail("deleteMany", err)
	}
	f, err := c.normaliseFilter("deleteMany", filter)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]bson.M, 0, len(c.docs))
	var n int64
	for _, d := range c.docs {
		hit, err := matches(d, f)
		if err != nil {
			return 0, c.fail("deleteMany", err)
		}
		if hit {
			n++
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return n, nil
}

// checkUnique must be called with c.mu held. skip is the index of the
// document being replaced, or -1 on insert.
func (c *MemoryCollection) checkUnique(d bson.M, skip int) error {
	fields := []string{"_id"}
	for f := range c.unique {
		fields = append(fields, f)
	}
	for _, f := range fields {
		v, ok := lookup(d, f)
		if !ok || v == nil {
			continue
		}
		for i, other := range c.docs {
			if i == skip {
				continue
			}
			if ov, ok := lookup(other, f); ok && valuesEqual(ov, v) {
				return fmt.Errorf("%w: %s: duplicate key %s: %v", content.ErrDuplicate, c.name, f, v)
			}
		}
	}
	return nil
}
