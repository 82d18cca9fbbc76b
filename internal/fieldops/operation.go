package fieldops

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
)

// Request types on the wire.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpRename = "rename"
)

// Request is one field operation as submitted by the admin UI.
// An add without targetId applies to every document in the collection.
type Request struct {
	Type         string `json:"type" validate:"required,oneof=add remove rename"`
	FieldName    string `json:"fieldName" validate:"required"`
	NewFieldName string `json:"newFieldName,omitempty" validate:"required_if=Type rename"`
	FieldType    string `json:"fieldType,omitempty"`
	FieldValue   any    `json:"fieldValue,omitempty"`
	TargetID     string `json:"targetId,omitempty" validate:"required_unless=Type add"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Operation is a parsed, validated field operation.
type Operation interface {
	// Kind is the wire type (add, remove, rename).
	Kind() string
	Apply(ctx context.Context, c store.Collection) (Result, error)
}

// AddToAll sets Field on every document of the collection.
type AddToAll struct {
	Field string
	Value any
}

// AddToOne sets Field on the document identified by ID.
type AddToOne struct {
	ID    string
	Field string
	Value any
}

// Remove unsets Field on one document. Removing an absent field is a no-op.
type Remove struct {
	ID    string
	Field string
}

// Rename moves From to To on one document in a single conditional update.
type Rename struct {
	ID   string
	From string
	To   string
}

func (AddToAll) Kind() string { return OpAdd }
func (AddToOne) Kind() string { return OpAdd }
func (Remove) Kind() string   { return OpRemove }
func (Rename) Kind() string   { return OpRename }

// Parse validates r and converts it into its operation variant.
//
// A coercion failure does not reject the request: the operation is returned
// with the fallback value together with an error wrapping content.ErrCoercion.
// Every other error wraps content.ErrValidation and the operation is nil.
func (r Request) Parse() (Operation, error) {
	if err := validate.Struct(r); err != nil {
		return nil, validationError(err)
	}
	if err := CheckFieldName(r.FieldName); err != nil {
		return nil, err
	}
	switch r.Type {
	case OpAdd:
		value, cerr := Coerce(r.FieldValue, r.FieldType)
		var op Operation = AddToAll{Field: r.FieldName, Value: value}
		if r.TargetID != "" {
			op = AddToOne{ID: r.TargetID, Field: r.FieldName, Value: value}
		}
		return op, cerr
	case OpRemove:
		return Remove{ID: r.TargetID, Field: r.FieldName}, nil
	default:
		if err := CheckFieldName(r.NewFieldName); err != nil {
			return nil, err
		}
		if r.NewFieldName == r.FieldName {
			return nil, fmt.Errorf("%w: newFieldName must differ from fieldName", content.ErrValidation)
		}
		return Rename{ID: r.TargetID, From: r.FieldName, To: r.NewFieldName}, nil
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", content.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", content.ErrValidation, strings.Join(msgs, "; "))
}

// CheckFieldName rejects names that cannot be written as a document field.
func CheckFieldName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: field name must not be empty", content.ErrValidation)
	case name == "_id" || strings.HasPrefix(name, "_id."):
		return fmt.Errorf("%w: _id cannot be modified", content.ErrValidation)
	case strings.HasPrefix(name, "$") || strings.Contains(name, ".$"):
		return fmt.Errorf("%w: field name %q must not start with $", content.ErrValidation, name)
	case strings.ContainsRune(name, 0) || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, ".."):
		return fmt.Errorf("%w: invalid field name %q", content.ErrValidation, name)
	}
	return nil
}

func (op AddToAll) Apply(ctx context.Context, c store.Collection) (Result, error) {
	res, err := c.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{op.Field: op.Value}})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("field %q added to %d documents", op.Field, res.ModifiedCount),
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
	}, nil
}

func (op AddToOne) Apply(ctx context.Context, c store.Collection) (Result, error) {
	res, err := c.UpdateOne(ctx, store.ByID(op.ID), bson.M{"$set": bson.M{op.Field: op.Value}})
	if err != nil {
		return Result{}, err
	}
	out := Result{Success: true, Matched: res.MatchedCount, Modified: res.ModifiedCount}
	if res.MatchedCount == 0 {
		out.Message = fmt.Sprintf("no matching document %q; nothing changed", op.ID)
	} else {
		out.Message = fmt.Sprintf("field %q added to document %s", op.Field, op.ID)
	}
	return out, nil
}

func (op Remove) Apply(ctx context.Context, c store.Collection) (Result, error) {
	res, err := c.UpdateOne(ctx, store.ByID(op.ID), bson.M{"$unset": bson.M{op.Field: ""}})
	if err != nil {
		return Result{}, err
	}
	out := Result{Success: true, Matched: res.MatchedCount, Modified: res.ModifiedCount}
	switch {
	case res.MatchedCount == 0:
		out.Message = fmt.Sprintf("no matching document %q; nothing changed", op.ID)
	case res.ModifiedCount == 0:
		out.Message = fmt.Sprintf("field %q not present on document %s", op.Field, op.ID)
	default:
		out.Message = fmt.Sprintf("field %q removed from document %s", op.Field, op.ID)
	}
	return out, nil
}

// Apply renames only if the old field is still present when the update runs,
// so a concurrent writer cannot be overwritten with a stale value. When the
// guard does not match, a follow-up read tells a missing document apart from
// a missing field.
func (op Rename) Apply(ctx context.Context, c store.Collection) (Result, error) {
	filter := store.ByID(op.ID)
	filter[op.From] = bson.M{"$exists": true}
	res, err := c.UpdateOne(ctx, filter, bson.M{"$rename": bson.M{op.From: op.To}})
	if err != nil {
		return Result{}, err
	}
	if res.MatchedCount == 0 {
		doc, err := c.FindOne(ctx, store.ByID(op.ID))
		if err != nil {
			return Result{}, err
		}
		if doc == nil {
			return Result{}, fmt.Errorf("%w: document %q in %s", content.ErrNotFound, op.ID, c.Name())
		}
		return Result{}, fmt.Errorf("%w: %q on document %s", content.ErrFieldNotFound, op.From, op.ID)
	}
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("field %q renamed to %q", op.From, op.To),
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
	}, nil
}
