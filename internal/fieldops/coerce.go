package fieldops

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"go.mongodb.org/mongo-driver/bson"
)

// Field types accepted in a request's fieldType. Anything else is stored as text.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1<<53 - 1

// Coerce converts a requested field value to fieldType.
//
// Coercion never blocks a write: on failure the returned value is the
// fallback (NaN for numbers, an empty map or list for structured types) and
// the error wraps content.ErrCoercion so the caller can log and count it.
func Coerce(v any, fieldType string) (any, error) {
	text := textOf(v)
	switch strings.ToLower(fieldType) {
	case TypeNumber:
		if f, ok := content.AsFloat64(v); ok {
			return normaliseNumber(f), nil
		}
		s := strings.TrimSpace(text)
		if s == "" {
			return int64(0), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("%w: %q is not a number", content.ErrCoercion, text)
		}
		return normaliseNumber(f), nil
	case TypeBoolean:
		return strings.EqualFold(text, "true"), nil
	case TypeObject:
		if m, ok := content.AsMap(v); ok {
			return m, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(text), &out); err != nil || out == nil {
			return bson.M{}, fmt.Errorf("%w: %q is not a JSON object", content.ErrCoercion, text)
		}
		return out, nil
	case TypeArray:
		if l, ok := content.AsList(v); ok {
			return l, nil
		}
		var out []any
		if err := json.Unmarshal([]byte(text), &out); err != nil || out == nil {
			return bson.A{}, fmt.Errorf("%w: %q is not a JSON array", content.ErrCoercion, text)
		}
		return out, nil
	}
	return text, nil
}

// normaliseNumber stores integral values as int64 so equality filters on
// whole numbers behave the same for every driver.
func normaliseNumber(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
		return int64(f)
	}
	return f
}

// textOf renders a request value the way a form field would carry it.
func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
