package store

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"go.mongodb.org/mongo-driver/bson"
)

// Query evaluation for the in-memory store. Only the subset of the MongoDB
// query language used by this module is supported; anything else is rejected
// so tests cannot silently pass on an unsupported filter.

// roundTrip normalises v through BSON so values look exactly like what the
// driver returns (bson.M, bson.A, primitive.DateTime, int32/int64, ...).
func roundTrip(v any) (bson.M, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func lookup(doc bson.M, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := content.AsMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := m[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func setPath(doc bson.M, path string, v any) error {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok || next == nil {
			m := bson.M{}
			cur[p] = m
			cur = m
			continue
		}
		m, ok := content.AsMap(next)
		if !ok {
			return fmt.Errorf("cannot create field %q in element of type %s", path, content.KindOf(next))
		}
		cur[p] = m
		cur = m
	}
	cur[parts[len(parts)-1]] = v
	return nil
}

func unsetPath(doc bson.M, path string) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		m, ok := content.AsMap(cur[p])
		if !ok {
			return
		}
		cur[p] = m
		cur = m
	}
	delete(cur, parts[len(parts)-1])
}

func matches(doc, filter bson.M) (bool, error) {
	for key, cond := range filter {
		switch key {
		case "$and", "$or", "$nor":
			subs, ok := content.AsList(cond)
			if !ok {
				return false, fmt.Errorf("%s requires an array", key)
			}
			hits := 0
			for _, s := range subs {
				sm, ok := content.AsMap(s)
				if !ok {
					return false, fmt.Errorf("%s entries must be documents", key)
				}
				hit, err := matches(doc, sm)
				if err != nil {
					return false, err
				}
				if hit {
					hits++
				}
			}
			switch {
			case key == "$and" && hits != len(subs):
				return false, nil
			case key == "$or" && hits == 0:
				return false, nil
			case key == "$nor" && hits > 0:
				return false, nil
			}
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("unsupported top-level operator %s", key)
			}
			val, present := lookup(doc, key)
			ok, err := matchCond(val, present, cond)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	return true, nil
}

func operatorDoc(cond any) (bson.M, bool) {
	m, ok := content.AsMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchCond(val any, present bool, cond any) (bool, error) {
	ops, ok := operatorDoc(cond)
	if !ok {
		return equalMatch(val, present, cond), nil
	}
	for op, arg := range ops {
		hit, err := matchOp(val, present, op, arg)
		if err != nil || !hit {
			return false, err
		}
	}
	return true, nil
}

func matchOp(val any, present bool, op string, arg any) (bool, error) {
	switch op {
	case "$exists":
		want, _ := arg.(bool)
		if n, ok := content.AsFloat64(arg); ok {
			want = n != 0
		}
		return present == want, nil
	case "$type":
		if !present {
			return false, nil
		}
		aliases := content.AsStrings(arg)
		kind := content.KindOf(val)
		for _, a := range aliases {
			if content.MatchesTypeAlias(kind, a) {
				return true, nil
			}
		}
		return false, nil
	case "$eq":
		return equalMatch(val, present, arg), nil
	case "$ne":
		return !equalMatch(val, present, arg), nil
	case "$in", "$nin":
		list, ok := content.AsList(arg)
		if !ok {
			return false, fmt.Errorf("%s requires an array", op)
		}
		hit := false
		for _, want := range list {
			if equalMatch(val, present, want) {
				hit = true
				break
			}
		}
		return hit == (op == "$in"), nil
	case "$gt", "$gte", "$lt", "$lte":
		if !present {
			return false, nil
		}
		c, ok := compare(val, arg)
		if !ok {
			return false, nil
		}
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case "$not":
		hit, err := matchCond(val, present, arg)
		return !hit, err
	}
	return false, fmt.Errorf("unsupported query operator %s", op)
}

func equalMatch(val any, present bool, want any) bool {
	if want == nil {
		return !present || val == nil
	}
	if !present {
		return false
	}
	if valuesEqual(val, want) {
		return true
	}
	if list, ok := content.AsList(val); ok && content.KindOf(want) != content.KindList {
		for _, e := range list {
			if valuesEqual(e, want) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if fa, ok := content.AsFloat64(a); ok {
		fb, ok := content.AsFloat64(b)
		return ok && fa == fb
	}
	if content.KindOf(a) == content.KindDate && content.KindOf(b) == content.KindDate {
		return content.AsTime(a).Equal(content.AsTime(b))
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) (int, bool) {
	if fa, ok := content.AsFloat64(a); ok {
		fb, ok := content.AsFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if content.KindOf(a) == content.KindDate && content.KindOf(b) == content.KindDate {
		ta, tb := content.AsTime(a), content.AsTime(b)
		return ta.Compare(tb), true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func applyUpdate(doc, update bson.M) (bson.M, error) {
	if len(update) == 0 {
		return nil, fmt.Errorf("update document must not be empty")
	}
	out, err := roundTrip(doc)
	if err != nil {
		return nil, err
	}
	for op, arg := range update {
		fields, ok := content.AsMap(arg)
		if !ok {
			return nil, fmt.Errorf("update operator %s requires a document", op)
		}
		switch op {
		case "$set":
			for path, v := range fields {
				if path == "_id" && !valuesEqual(out["_id"], v) {
					return nil, fmt.Errorf("the _id field is immutable")
				}
				if err := setPath(out, path, v); err != nil {
					return nil, err
				}
			}
		case "$unset":
			for path := range fields {
				if path == "_id" {
					return nil, fmt.Errorf("the _id field is immutable")
				}
				unsetPath(out, path)
			}
		case "$rename":
			for from, to := range fields {
				target, ok := to.(string)
				if !ok || target == "" || target == from {
					return nil, fmt.Errorf("$rename target for %q must be a different field name", from)
				}
				if v, ok := lookup(out, from); ok {
					unsetPath(out, from)
					if err := setPath(out, target, v); err != nil {
						return nil, err
					}
				}
			}
		default:
			return nil, fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return out, nil
}
