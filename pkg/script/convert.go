package script

import (
	"fmt"

	"github.com/mittwald/mittcheck/pkg/value"
	"go.starlark.net/starlark"
)

type starlarkConverter struct {
	visiting map[starlark.Value]struct{}
}

func fromStarlark(v starlark.Value) (value.Value, error) {
	c := starlarkConverter{visiting: make(map[starlark.Value]struct{})}
	return c.convert(v, "", 0)
}

func (c *starlarkConverter) enter(v starlark.Value, path string) (func(), error) {
	if _, ok := c.visiting[v]; ok {
		return nil, &value.SerializationError{Path: path, Reason: "cyclic structure"}
	}
	c.visiting[v] = struct{}{}
	return func() { delete(c.visiting, v) }, nil
}

func (c *starlarkConverter) convert(v starlark.Value, path string, depth int) (value.Value, error) {
	if depth > value.MaxDepth {
		return value.Null(), &value.SerializationError{Path: path, Reason: "maximum nesting depth exceeded"}
	}

	switch t := v.(type) {
	case starlark.NoneType:
		return value.Null(), nil
	case starlark.Bool:
		return value.Bool(bool(t)), nil
	case starlark.Int:
		i, ok := t.Int64()
		if !ok {
			return value.Null(), &value.SerializationError{Path: path, Reason: fmt.Sprintf("integer %s overflows int64", t.String())}
		}
		return value.Int(i), nil
	case starlark.Float:
		return value.Float(float64(t)), nil
	case starlark.String:
		return value.String(string(t)), nil

	case *starlark.List:
		leave, err := c.enter(t, path)
		if err != nil {
			return value.Null(), err
		}
		defer leave()
		items := make([]value.Value, t.Len())
		for i := range items {
			item, err := c.convert(t.Index(i), value.IndexPath(path, i), depth+1)
			if err != nil {
				return value.Null(), err
			}
			items[i] = item
		}
		return value.Seq(items...), nil

	case starlark.Tuple:
		items := make([]value.Value, len(t))
		for i, e := range t {
			item, err := c.convert(e, value.IndexPath(path, i), depth+1)
			if err != nil {
				return value.Null(), err
			}
			items[i] = item
		}
		return value.Seq(items...), nil

	case *starlark.Dict:
		leave, err := c.enter(t, path)
		if err != nil {
			return value.Null(), err
		}
		defer leave()
		m := make(map[string]value.Value, t.Len())
		for _, kv := range t.Items() {
			k, ok := kv[0].(starlark.String)
			if !ok {
				return value.Null(), &value.SerializationError{Path: path, Reason: fmt.Sprintf("dict key must be a string, got %s", kv[0].Type())}
			}
			item, err := c.convert(kv[1], value.ChildPath(path, string(k)), depth+1)
			if err != nil {
				return value.Null(), err
			}
			m[string(k)] = item
		}
		return value.Map(m), nil
	}

	return value.Null(), &value.SerializationError{Path: path, Reason: fmt.Sprintf("unsupported type %s", v.Type())}
}

func toStarlark(v value.Value) starlark.Value {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return starlark.Bool(b)
	case value.KindInt:
		i, _ := v.AsInt()
		return starlark.MakeInt64(i)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return starlark.Float(f)
	case value.KindString:
		s, _ := v.AsString()
		return starlark.String(s)
	case value.KindSeq:
		items := v.Items()
		elems := make([]starlark.Value, len(items))
		for i, e := range items {
			elems[i] = toStarlark(e)
		}
		return starlark.NewList(elems)
	case value.KindMap:
		d := starlark.NewDict(v.Len())
		v.Range(func(k string, e value.Value) bool {
			_ = d.SetKey(starlark.String(k), toStarlark(e))
			return true
		})
		return d
	}
	return starlark.None
}
