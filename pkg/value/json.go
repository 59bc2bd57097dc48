package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FromJSON decodes a single JSON document. Numbers without fraction or
// exponent become Int, all others Float.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), &SerializationError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), &SerializationError{Reason: "invalid JSON: trailing data after document"}
	}

	return fromJSONValue(raw, "", 0)
}

func fromJSONValue(raw any, path string, depth int) (Value, error) {
	if depth > MaxDepth {
		return Null(), &SerializationError{Path: path, Reason: "maximum nesting depth exceeded"}
	}

	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), &SerializationError{Path: path, Reason: fmt.Sprintf("invalid number %q", s), Err: err}
		}
		return Float(f), nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := fromJSONValue(e, IndexPath(path, i), depth+1)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Value{kind: KindSeq, seq: items}, nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			item, err := fromJSONValue(e, ChildPath(path, k), depth+1)
			if err != nil {
				return Null(), err
			}
			m[k] = item
		}
		return Value{kind: KindMap, m: m}, nil
	}

	return Null(), &SerializationError{Path: path, Reason: fmt.Sprintf("unexpected JSON type %T", raw)}
}

// ToJSON encodes v with sorted map keys. Floats always carry a fraction or
// exponent so that they decode back as floats. Non-finite floats cannot be
// represented and yield a SerializationError naming their path.
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, v Value, path string) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return &SerializationError{Path: path, Reason: fmt.Sprintf("%v is not representable in JSON", v.f)}
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		return encodeJSONString(buf, v.s)
	case KindSeq:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, e, IndexPath(path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range sortedKeys(v.m) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeJSON(buf, v.m[k], ChildPath(path, k)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func encodeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return &SerializationError{Err: err}
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return ToJSON(v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
