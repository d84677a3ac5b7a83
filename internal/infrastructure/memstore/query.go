package memstore

import (
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
)

// matches evaluates an equality filter. Keys may be dotted paths.
func matches(doc bson.M, filter bson.M) (bool, error) {
	for key, want := range filter {
		if strings.HasPrefix(key, "$") {
			return false, fmt.Errorf("memstore: unsupported query operator %s", key)
		}
		if m, ok := asMap(want); ok && hasOperator(m) {
			return false, fmt.Errorf("memstore: unsupported query operator in %s", key)
		}
		got, ok := lookup(doc, key)
		if !ok {
			if want == nil {
				continue
			}
			return false, nil
		}
		if !valuesEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// project applies a top-level inclusion or exclusion projection.
func project(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return doc
	}
	inclusion := false
	for _, v := range projection {
		if truthy(v) {
			inclusion = true
			break
		}
	}

	if !inclusion {
		out := make(bson.M, len(doc))
		for k, v := range doc {
			if _, excluded := projection[k]; !excluded {
				out[k] = v
			}
		}
		return out
	}

	out := bson.M{}
	if idv, ok := projection["_id"]; !ok || truthy(idv) {
		if id, ok := doc["_id"]; ok {
			out["_id"] = id
		}
	}
	for k, v := range projection {
		if k == "_id" || !truthy(v) {
			continue
		}
		if val, ok := doc[k]; ok {
			out[k] = val
		}
	}
	return out
}

// applyUpdate mutates doc with the $set and $push operators.
func applyUpdate(doc bson.M, update bson.M) error {
	if len(update) == 0 {
		return fmt.Errorf("memstore: update document must contain operators")
	}
	for op, arg := range update {
		norm, err := toValue(arg)
		if err != nil {
			return err
		}
		fields, ok := asMap(norm)
		if !ok {
			return fmt.Errorf("memstore: %s expects a document", op)
		}
		if len(fields) == 0 {
			return fmt.Errorf("memstore: '%s' is empty", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				if strings.Contains(k, ".") {
					return fmt.Errorf("memstore: dotted path %s not supported in $set", k)
				}
				doc[k] = v
			}
		case "$push":
			for k, v := range fields {
				existing, has := doc[k]
				if !has || existing == nil {
					doc[k] = bson.A{v}
					continue
				}
				arr, ok := asSlice(existing)
				if !ok {
					return fmt.Errorf("memstore: the field '%s' must be an array", k)
				}
				doc[k] = append(bson.A(arr), v)
			}
		default:
			return fmt.Errorf("memstore: unsupported update operator %s", op)
		}
	}
	return nil
}

func runPipeline(docs []bson.M, pipeline []bson.D) ([]bson.M, error) {
	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("memstore: a pipeline stage must have exactly one field")
		}
		name, arg := stage[0].Key, stage[0].Value
		var err error
		switch name {
		case "$match":
			docs, err = matchStage(docs, arg)
		case "$unwind":
			docs, err = unwindStage(docs, arg)
		case "$group":
			docs, err = groupStage(docs, arg)
		case "$project":
			docs, err = projectStage(docs, arg)
		default:
			err = fmt.Errorf("memstore: unsupported pipeline stage %s", name)
		}
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func matchStage(docs []bson.M, arg any) ([]bson.M, error) {
	filter, ok := asMap(arg)
	if !ok {
		return nil, fmt.Errorf("memstore: $match expects a document")
	}
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// unwindStage drops documents whose array is missing, null or empty.
func unwindStage(docs []bson.M, arg any) ([]bson.M, error) {
	path, ok := arg.(string)
	if !ok {
		m, isMap := asMap(arg)
		if !isMap {
			return nil, fmt.Errorf("memstore: $unwind expects a field path")
		}
		path, _ = m["path"].(string)
	}
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("memstore: $unwind path must start with '$'")
	}
	field := strings.TrimPrefix(path, "$")

	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		arr, ok := asSlice(doc[field])
		if !ok {
			continue
		}
		for _, item := range arr {
			cp := make(bson.M, len(doc))
			for k, v := range doc {
				cp[k] = v
			}
			cp[field] = item
			out = append(out, cp)
		}
	}
	return out, nil
}

// groupStage supports an _id expression and $sum accumulators.
func groupStage(docs []bson.M, arg any) ([]bson.M, error) {
	m, ok := asMap(arg)
	if !ok {
		return nil, fmt.Errorf("memstore: $group expects a document")
	}
	idExpr, ok := m["_id"]
	if !ok {
		return nil, fmt.Errorf("memstore: $group requires an _id expression")
	}

	type group struct {
		id   any
		sums map[string]float64
	}
	var order []string
	groups := map[string]*group{}

	for _, doc := range docs {
		id := evalExpr(doc, idExpr)
		key := fmt.Sprintf("%v", id)
		g, ok := groups[key]
		if !ok {
			g = &group{id: id, sums: map[string]float64{}}
			groups[key] = g
			order = append(order, key)
		}
		for field, acc := range m {
			if field == "_id" {
				continue
			}
			accMap, ok := asMap(acc)
			if !ok || len(accMap) != 1 {
				return nil, fmt.Errorf("memstore: accumulator for %s must be a single-operator document", field)
			}
			expr, ok := accMap["$sum"]
			if !ok {
				return nil, fmt.Errorf("memstore: unsupported accumulator for %s", field)
			}
			// non-numeric values are ignored by $sum
			f, _ := toFloat(evalExpr(doc, expr))
			g.sums[field] += f
		}
	}

	out := make([]bson.M, 0, len(order))
	for _, key := range order {
		g := groups[key]
		doc := bson.M{"_id": g.id}
		for field, sum := range g.sums {
			doc[field] = sum
		}
		out = append(out, doc)
	}
	return out, nil
}

func projectStage(docs []bson.M, arg any) ([]bson.M, error) {
	projection, ok := asMap(arg)
	if !ok {
		return nil, fmt.Errorf("memstore: $project expects a document")
	}
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		out = append(out, project(doc, projection))
	}
	return out, nil
}

// evalExpr resolves field paths ("$a.b"), $multiply, $add and literals.
func evalExpr(doc bson.M, expr any) any {
	if s, ok := expr.(string); ok && strings.HasPrefix(s, "$") {
		v, _ := lookup(doc, strings.TrimPrefix(s, "$"))
		return v
	}
	m, ok := asMap(expr)
	if !ok {
		return expr
	}
	for op, raw := range m {
		args, ok := asSlice(raw)
		if !ok {
			return nil
		}
		switch op {
		case "$multiply":
			product := 1.0
			for _, a := range args {
				f, ok := toFloat(evalExpr(doc, a))
				if !ok {
					return nil
				}
				product *= f
			}
			return product
		case "$add":
			sum := 0.0
			for _, a := range args {
				f, ok := toFloat(evalExpr(doc, a))
				if !ok {
					return nil
				}
				sum += f
			}
			return sum
		}
	}
	return nil
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func hasOperator(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func asMap(v any) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case map[string]any:
		return bson.M(t), true
	case bson.D:
		m := make(bson.M, len(t))
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case bson.A:
		return []any(t), true
	case []any:
		return t, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	f, ok := toFloat(v)
	return ok && f != 0
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// toValue converts v into its BSON map/array/primitive form.
func toValue(v any) (any, error) {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m["v"], nil
}

func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func deepCopy(doc bson.M) (bson.M, error) {
	return toDocument(doc)
}

func decodeUser(doc bson.M) (entity.User, error) {
	var u entity.User
	raw, err := bson.Marshal(doc)
	if err != nil {
		return u, err
	}
	if err := bson.Unmarshal(raw, &u); err != nil {
		return u, err
	}
	return u, nil
}
