package value

import (
	"fmt"
	"math"
	"reflect"
)

var (
	valueType    = reflect.TypeOf(Value{})
	snapshotType = reflect.TypeOf(Snapshot{})
	bytesType    = reflect.TypeOf([]byte(nil))
)

// FromGo converts a native Go value into a Value. Supported are nil, bools,
// all integer and float kinds, strings, byte slices (as strings), slices and
// arrays, string-keyed maps, pointers and interfaces to any of those, and
// nested Values or Snapshots.
func FromGo(x any) (Value, error) {
	c := goConverter{visiting: make(map[visitKey]struct{})}
	return c.convert(reflect.ValueOf(x), "", 0)
}

// MustFromGo is FromGo for literals known to be convertible.
func MustFromGo(x any) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(err)
	}
	return v
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

type goConverter struct {
	visiting map[visitKey]struct{}
}

func (c *goConverter) enter(rv reflect.Value, path string) (func(), error) {
	key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
	if key.ptr == 0 {
		return func() {}, nil
	}
	if _, ok := c.visiting[key]; ok {
		return nil, &SerializationError{Path: path, Reason: "cyclic structure"}
	}
	c.visiting[key] = struct{}{}
	return func() { delete(c.visiting, key) }, nil
}

func (c *goConverter) convert(rv reflect.Value, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Null(), &SerializationError{Path: path, Reason: "maximum nesting depth exceeded"}
	}
	if !rv.IsValid() {
		return Null(), nil
	}

	switch rv.Type() {
	case valueType:
		return rv.Interface().(Value), nil
	case snapshotType:
		return rv.Interface().(Snapshot).Value(), nil
	case bytesType:
		return String(string(rv.Bytes())), nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem(), path, depth)

	case reflect.Ptr:
		if rv.IsNil() {
			return Null(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return Null(), err
		}
		defer leave()
		return c.convert(rv.Elem(), path, depth+1)

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Null(), &SerializationError{Path: path, Reason: fmt.Sprintf("integer %d overflows int64", u)}
		}
		return Int(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Null(), nil
			}
			if rv.Len() > 0 {
				leave, err := c.enter(rv, path)
				if err != nil {
					return Null(), err
				}
				defer leave()
			}
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := c.convert(rv.Index(i), IndexPath(path, i), depth+1)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Value{kind: KindSeq, seq: items}, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null(), &SerializationError{Path: path, Reason: fmt.Sprintf("map key must be a string, got %s", rv.Type().Key())}
		}
		if rv.IsNil() {
			return Null(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return Null(), err
		}
		defer leave()

		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			item, err := c.convert(iter.Value(), ChildPath(path, k), depth+1)
			if err != nil {
				return Null(), err
			}
			m[k] = item
		}
		return Value{kind: KindMap, m: m}, nil
	}

	return Null(), &SerializationError{Path: path, Reason: fmt.Sprintf("unsupported type %s", rv.Type())}
}

// ToGo converts v into plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any.
func ToGo(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, e := range v.seq {
			out[i] = ToGo(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = ToGo(e)
		}
		return out
	}
	return nil
}
