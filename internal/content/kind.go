package content

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind classifies a document value. The store is schemaless, so every field
// value is one of these.
type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindText
	KindNumber
	KindBool
	KindList
	KindMap
	KindBinary
	KindDate
	KindID
	KindOther
)

var kindNames = map[Kind]string{
	KindMissing: "missing",
	KindNull:    "null",
	KindText:    "string",
	KindNumber:  "number",
	KindBool:    "bool",
	KindList:    "array",
	KindMap:     "object",
	KindBinary:  "binData",
	KindDate:    "date",
	KindID:      "objectId",
	KindOther:   "other",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

// KindOf returns the kind of v as stored in a document.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case primitive.Null, primitive.Undefined:
		return KindNull
	case string:
		return KindText
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, primitive.Decimal128:
		return KindNumber
	case bool:
		return KindBool
	case bson.A, []any, []string, []int, []float64, []bson.M, []map[string]any:
		return KindList
	case bson.M, map[string]any, bson.D:
		return KindMap
	case primitive.Binary, []byte:
		return KindBinary
	case time.Time, primitive.DateTime, primitive.Timestamp:
		return KindDate
	case primitive.ObjectID:
		return KindID
	default:
		return KindOther
	}
}

// MatchesTypeAlias reports whether k satisfies a MongoDB $type alias.
func MatchesTypeAlias(k Kind, alias string) bool {
	switch alias {
	case "string":
		return k == KindText
	case "object":
		return k == KindMap
	case "array":
		return k == KindList
	case "binData":
		return k == KindBinary
	case "bool":
		return k == KindBool
	case "number", "double", "int", "long", "decimal":
		return k == KindNumber
	case "date", "timestamp":
		return k == KindDate
	case "objectId":
		return k == KindID
	case "null":
		return k == KindNull
	}
	return false
}
