package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lenient accessors over raw document values. Legacy documents hold numbers
// as strings, dates as strings and maps as primitive.D, so none of these fail.

// AsString returns v as text, or "" when v is not text.
func AsString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// AsInt64 converts any numeric (or numeric string) value.
func AsInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int64(x)
	case float32:
		return int64(x)
	case string:
		n, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return int64(n)
	}
	return 0
}

// AsFloat64 reports v as a float when it is numeric.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// AsTime accepts BSON dates, time.Time and RFC 3339 or YYYY-MM-DD strings.
func AsTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// AsMap returns v as a map, converting bson.D.
func AsMap(v any) (bson.M, bool) {
	switch x := v.(type) {
	case bson.M:
		return x, true
	case map[string]any:
		return bson.M(x), true
	case bson.D:
		return x.Map(), true
	}
	return nil, false
}

// AsList returns v as a list of values.
func AsList(v any) ([]any, bool) {
	switch x := v.(type) {
	case bson.A:
		return []any(x), true
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// AsStrings returns the text elements of a list, or a one-element slice for a
// non-empty scalar string.
func AsStrings(v any) []string {
	if s, ok := v.(string); ok {
		if s == "" {
			return []string{}
		}
		return []string{s}
	}
	list, ok := AsList(v)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		switch x := e.(type) {
		case string:
			out = append(out, x)
		case nil:
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

// IDString renders a document identifier for comparisons across stores:
// ObjectIDs become hex, everything else its default formatting.
func IDString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return x.Hex()
	case string:
		return x
	}
	return fmt.Sprint(v)
}

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Stamp renders t the way backup and report names embed it: ISO 8601 in UTC
// with millisecond precision and colons and dots replaced by dashes.
func Stamp(t time.Time) string {
	return stampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
}
