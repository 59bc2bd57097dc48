package value

import (
	"encoding/json"
	"sort"
)

// Snapshot is the string-keyed result of one query. It is never mutated after
// construction; With returns a modified copy.
type Snapshot struct {
	m map[string]Value
}

const ErrorKey = "error"

func NewSnapshot(m map[string]Value) Snapshot {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Snapshot{m: cp}
}

func EmptySnapshot() Snapshot {
	return Snapshot{m: map[string]Value{}}
}

// ErrorSnapshot is the shape every failed query resolves to.
func ErrorSnapshot(msg string) Snapshot {
	return Snapshot{m: map[string]Value{ErrorKey: String(msg)}}
}

// SnapshotFromValue converts a map value into a Snapshot.
func SnapshotFromValue(v Value) (Snapshot, error) {
	if v.kind != KindMap {
		return Snapshot{}, &SerializationError{Reason: "snapshot must be a map, got " + v.kind.String()}
	}
	return Snapshot{m: v.m}, nil
}

func (s Snapshot) Get(key string) (Value, bool) {
	v, ok := s.m[key]
	return v, ok
}

func (s Snapshot) Len() int {
	return len(s.m)
}

func (s Snapshot) Keys() []string {
	return sortedKeys(s.m)
}

// Value returns the snapshot as a map value.
func (s Snapshot) Value() Value {
	if s.m == nil {
		return Value{kind: KindMap, m: map[string]Value{}}
	}
	return Value{kind: KindMap, m: s.m}
}

// With returns a copy of s with key set to v.
func (s Snapshot) With(key string, v Value) Snapshot {
	cp := make(map[string]Value, len(s.m)+1)
	for k, e := range s.m {
		cp[k] = e
	}
	cp[key] = v
	return Snapshot{m: cp}
}

// Merge returns a copy of s overlaid with the entries of o.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	cp := make(map[string]Value, len(s.m)+len(o.m))
	for k, e := range s.m {
		cp[k] = e
	}
	for k, e := range o.m {
		cp[k] = e
	}
	return Snapshot{m: cp}
}

// Error returns the message of an error-shaped snapshot.
func (s Snapshot) Error() (string, bool) {
	v, ok := s.m[ErrorKey]
	if !ok {
		return "", false
	}
	if msg, ok := v.AsString(); ok {
		return msg, true
	}
	return v.String(), true
}

// ErrorPaths lists the paths of all error-shaped maps in s, s itself
// included as "". Endpoint snapshots report failing children this way.
func (s Snapshot) ErrorPaths() []string {
	var paths []string
	collectErrorPaths(s.Value(), "", &paths)
	sort.Strings(paths)
	return paths
}

// Failing reports whether s or any nested map carries an error.
func (s Snapshot) Failing() bool {
	return len(s.ErrorPaths()) > 0
}

func collectErrorPaths(v Value, path string, out *[]string) {
	if _, ok := v.m[ErrorKey]; ok {
		*out = append(*out, path)
	}
	for k, e := range v.m {
		if e.kind == KindMap {
			collectErrorPaths(e, ChildPath(path, k), out)
		}
	}
}

func (s Snapshot) Equal(o Snapshot) bool {
	return Equal(s.Value(), o.Value())
}

func (s Snapshot) ToGo() map[string]any {
	return ToGo(s.Value()).(map[string]any)
}

func (s Snapshot) String() string {
	return s.Value().String()
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return ToJSON(s.Value())
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	v, err := FromJSON(data)
	if err != nil {
		return err
	}
	snap, err := SnapshotFromValue(v)
	if err != nil {
		return err
	}
	*s = snap
	return nil
}

var _ json.Marshaler = Snapshot{}
