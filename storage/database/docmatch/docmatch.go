// Package docmatch evaluates core.Query conditions against BSON documents.
// It backs the embedded engines (bolt, memory) so they answer queries the way MongoDB does.
package docmatch

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/masomo/core"
)

// Doc is a stored document: its raw BSON and the decoded map used for matching.
type Doc struct {
	ID  string
	Raw []byte
	M   bson.M
}

// Encode marshals v into a Doc. v must carry a string `_id`.
func Encode(v interface{}) (Doc, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return Doc{}, errors.Wrap(err, "marshalling document")
	}
	return Decode(raw)
}

// Decode wraps raw BSON bytes into a Doc.
func Decode(raw []byte) (Doc, error) {
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return Doc{}, errors.Wrap(err, "unmarshalling document")
	}
	id, _ := m["_id"].(string)
	return Doc{ID: id, Raw: raw, M: m}, nil
}

// Unmarshal decodes the Doc into a T.
func Unmarshal[T any](doc Doc) (T, error) {
	var v T
	err := bson.Unmarshal(doc.Raw, &v)
	return v, errors.Wrap(err, "unmarshalling document")
}

// Normalize converts v into the type it takes once stored (time.Time -> primitive.DateTime, ints -> int32/int64, ...).
func Normalize(v interface{}) interface{} {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return v
	}
	return m["v"]
}

// Lookup returns the values at the dotted path in m. Arrays along the path are traversed.
func Lookup(m bson.M, path string) []interface{} {
	return lookup(m, strings.Split(path, "."))
}

func lookup(v interface{}, keys []string) []interface{} {
	if len(keys) == 0 {
		return []interface{}{v}
	}
	switch val := v.(type) {
	case bson.M:
		child, ok := val[keys[0]]
		if !ok {
			return nil
		}
		return lookup(child, keys[1:])
	case map[string]interface{}:
		return lookup(bson.M(val), keys)
	case bson.D:
		return lookup(bson.M(val.Map()), keys)
	case bson.A:
		var vals []interface{}
		for _, elem := range val {
			vals = append(vals, lookup(elem, keys)...)
		}
		return vals
	}
	return nil
}

// values flattens arrays so that a condition on an array field applies to any of its elements.
func values(m bson.M, field string) []interface{} {
	found := Lookup(m, field)
	var vals []interface{}
	for _, v := range found {
		if arr, ok := v.(bson.A); ok {
			vals = append(vals, arr...)
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// Compare orders a and b the way MongoDB sorts values of the same kind; ok is false when they are not comparable.
func Compare(a, b interface{}) (cmp int, ok bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	if fa, isNum := number(a); isNum {
		fb, isNum := number(b)
		if !isNum {
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

	switch va := a.(type) {
	case string:
		vb, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case primitive.DateTime:
		vb, isDate := b.(primitive.DateTime)
		if !isDate {
			return 0, false
		}
		switch {
		case va < vb:
			return -1, true
		case va > vb:
			return 1, true
		}
		return 0, true
	case bool:
		vb, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		}
		return 1, true
	case primitive.Binary:
		vb, isBin := b.(primitive.Binary)
		if !isBin {
			return 0, false
		}
		return bytes.Compare(va.Data, vb.Data), true
	}
	return 0, false
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equal(a, b interface{}) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// Match reports whether m satisfies all conds.
func Match(m bson.M, conds []core.Cond) bool {
	for _, cond := range conds {
		if !matchOne(m, cond) {
			return false
		}
	}
	return true
}

func matchOne(m bson.M, cond core.Cond) bool {
	switch cond.Op {
	case core.OpEq:
		return anyValue(m, cond.Field, func(v interface{}) bool { return equal(v, Normalize(cond.Value)) }, cond.Value == nil)
	case core.OpNe:
		want := Normalize(cond.Value)
		return !anyValue(m, cond.Field, func(v interface{}) bool { return equal(v, want) }, cond.Value == nil)
	case core.OpIn:
		want, _ := Normalize(cond.Value).(bson.A)
		return anyValue(m, cond.Field, func(v interface{}) bool {
			for _, w := range want {
				if equal(v, w) {
					return true
				}
			}
			return false
		}, false)
	case core.OpGte, core.OpLte:
		want := Normalize(cond.Value)
		return anyValue(m, cond.Field, func(v interface{}) bool {
			cmp, ok := Compare(v, want)
			if !ok || v == nil {
				return false
			}
			if cond.Op == core.OpGte {
				return cmp >= 0
			}
			return cmp <= 0
		}, false)
	case core.OpSearch:
		term, _ := cond.Value.(string)
		rgx := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
		for _, fld := range cond.Fields {
			if anyValue(m, fld, func(v interface{}) bool {
				s, ok := v.(string)
				return ok && rgx.MatchString(s)
			}, false) {
				return true
			}
		}
		return false
	case core.OpOr:
		for _, c := range cond.Conds {
			if matchOne(m, c) {
				return true
			}
		}
		return false
	}
	return false
}

// anyValue reports whether fn holds for any value of field; missing fields match only when matchMissing.
func anyValue(m bson.M, field string, fn func(v interface{}) bool, matchMissing bool) bool {
	vals := values(m, field)
	if len(vals) == 0 {
		return matchMissing
	}
	for _, v := range vals {
		if fn(v) {
			return true
		}
	}
	return false
}

// Sort orders docs by ordering; docs comparing equal keep their relative order.
func Sort(docs []Doc, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := Compare(sortKey(docs[i].M, ord.Field), sortKey(docs[j].M, ord.Field))
			if !ok || cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

func sortKey(m bson.M, field string) interface{} {
	vals := Lookup(m, field)
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// Query filters, sorts and pages docs.
func Query(docs []Doc, q core.Query) []Doc {
	matched := make([]Doc, 0, len(docs))
	for _, doc := range docs {
		if Match(doc.M, q.Conds) {
			matched = append(matched, doc)
		}
	}
	Sort(matched, q.Ordering)

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			return matched[:0]
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}
	return matched
}

// CheckUnique returns a *core.ConflictError when doc collides with another of docs on a unique index.
func CheckUnique(doc Doc, docs []Doc, indexes []core.Index) error {
	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		key := make([]interface{}, len(idx.Keys))
		for i, k := range idx.Keys {
			key[i] = sortKey(doc.M, k)
		}
		for _, other := range docs {
			if other.ID == doc.ID {
				continue
			}
			same := true
			for i, k := range idx.Keys {
				if !equal(key[i], sortKey(other.M, k)) {
					same = false
					break
				}
			}
			if same {
				return core.NewConflictError(strings.Join(idx.Keys, ","), formatKey(key))
			}
		}
	}
	return nil
}

func formatKey(key []interface{}) string {
	parts := make([]string, len(key))
	for i, v := range key {
		switch val := v.(type) {
		case primitive.DateTime:
			parts[i] = val.Time().UTC().Format("2006-01-02")
		default:
			parts[i] = fmt.Sprint(val)
		}
	}
	return strings.Join(parts, ",")
}
