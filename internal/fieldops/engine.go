// Package fieldops edits the shape of documents in schemaless collections:
// adding, removing and renaming fields singly or in bulk.
package fieldops

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
)

// Result is the outcome of one operation. Failures carry the error text and
// its kind (see content.ErrorKind); they never abort sibling operations.
type Result struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Matched   int64  `json:"matchedCount"`
	Modified  int64  `json:"modifiedCount"`
}

// Snapshot is a full read of a collection for the field management screen.
type Snapshot struct {
	Collection string   `json:"collection"`
	Documents  []bson.M `json:"documents"`
	Fields     []string `json:"fields"`
}

// Engine resolves collection names against an allow-list and runs field
// operations on them. An empty allow-list admits any valid collection name.
type Engine struct {
	db      store.Database
	allowed map[string]bool
}

func NewEngine(db store.Database, allowed []string) *Engine {
	e := &Engine{db: db, allowed: make(map[string]bool, len(allowed))}
	for _, name := range allowed {
		if name = strings.TrimSpace(name); name != "" {
			e.allowed[name] = true
		}
	}
	return e
}

// Collection returns the named collection, or a NotFoundError when it is not
// on the allow-list.
func (e *Engine) Collection(name string) (store.Collection, error) {
	if name == "" || strings.ContainsAny(name, "$\x00") || strings.HasPrefix(name, "system.") {
		return nil, fmt.Errorf("%w: invalid collection name %q", content.ErrValidation, name)
	}
	if len(e.allowed) > 0 && !e.allowed[name] {
		return nil, fmt.Errorf("%w: collection %q", content.ErrNotFound, name)
	}
	return e.db.Collection(name), nil
}

// Execute applies ops to collection strictly in order and returns one result
// per operation. The returned error is set only when the collection itself
// cannot be resolved.
func (e *Engine) Execute(ctx context.Context, collection string, ops []Request) ([]Result, error) {
	c, err := e.Collection(collection)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(ops))
	for i, req := range ops {
		res := e.run(ctx, c, req)
		outcome := "ok"
		if !res.Success {
			outcome = res.Kind
			logger.Warnf("field op %d (%s %q) on %s failed: %s", i, req.Type, req.FieldName, collection, res.Error)
		} else {
			logger.Debugf("field op %d (%s %q) on %s: %s", i, req.Type, req.FieldName, collection, res.Message)
		}
		metrics.FieldOperations.WithLabelValues(res.Operation, outcome).Inc()
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) run(ctx context.Context, c store.Collection, req Request) Result {
	op, err := req.Parse()
	var warning string
	if err != nil {
		if op == nil {
			return failed(req.Type, err)
		}
		// coercion fell back to a default value; the write still happens
		warning = err.Error()
		metrics.CoercionFailures.WithLabelValues(strings.ToLower(req.FieldType)).Inc()
		logger.Warnf("field %q on %s: %v", req.FieldName, c.Name(), err)
	}
	res, err := op.Apply(ctx, c)
	if err != nil {
		return failed(op.Kind(), err)
	}
	res.Operation = op.Kind()
	res.Warning = warning
	return res
}

func failed(operation string, err error) Result {
	switch operation {
	case OpAdd, OpRemove, OpRename:
	default:
		operation = "invalid"
	}
	return Result{Operation: operation, Success: false, Error: err.Error(), Kind: content.ErrorKind(err)}
}

// Describe loads every document of collection together with the sorted union
// of their top-level field names.
func (e *Engine) Describe(ctx context.Context, collection string) (Snapshot, error) {
	c, err := e.Collection(collection)
	if err != nil {
		return Snapshot{}, err
	}
	docs, err := c.Find(ctx, bson.M{})
	if err != nil {
		return Snapshot{}, err
	}
	seen := map[string]bool{}
	for _, d := range docs {
		for k := range d {
			seen[k] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return Snapshot{Collection: collection, Documents: docs, Fields: fields}, nil
}

// SetValue overwrites field on one document with value as given (no coercion).
func (e *Engine) SetValue(ctx context.Context, collection, id, field string, value any) (store.UpdateResult, error) {
	return e.updateOne(ctx, collection, id, field, bson.M{"$set": bson.M{field: value}})
}

// Unset removes field from one document.
func (e *Engine) Unset(ctx context.Context, collection, id, field string) (store.UpdateResult, error) {
	return e.updateOne(ctx, collection, id, field, bson.M{"$unset": bson.M{field: ""}})
}

func (e *Engine) updateOne(ctx context.Context, collection, id, field string, update bson.M) (store.UpdateResult, error) {
	if strings.TrimSpace(id) == "" {
		return store.UpdateResult{}, fmt.Errorf("%w: document id is required", content.ErrValidation)
	}
	if err := CheckFieldName(field); err != nil {
		return store.UpdateResult{}, err
	}
	c, err := e.Collection(collection)
	if err != nil {
		return store.UpdateResult{}, err
	}
	res, err := c.UpdateOne(ctx, store.ByID(id), update)
	if err != nil {
		return res, err
	}
	if res.MatchedCount == 0 {
		return res, fmt.Errorf("%w: document %q in %s", content.ErrNotFound, id, collection)
	}
	return res, nil
}
