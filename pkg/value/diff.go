package value

import "sort"

type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeChanged ChangeKind = "changed"
)

type Change struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
	Old  Value      `json:"old"`
	New  Value      `json:"new"`
}

// Diff lists the differences between two snapshots, sorted by path. Nested
// maps are compared key by key; all other values, sequences included, are
// compared as a whole.
func Diff(prev, next Snapshot) []Change {
	var changes []Change
	diffMaps(prev.Value(), next.Value(), "", &changes)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}

func diffMaps(prev, next Value, path string, out *[]Change) {
	for k, ov := range prev.m {
		p := ChildPath(path, k)
		nv, ok := next.m[k]
		if !ok {
			*out = append(*out, Change{Path: p, Kind: ChangeRemoved, Old: ov})
			continue
		}
		if ov.kind == KindMap && nv.kind == KindMap {
			diffMaps(ov, nv, p, out)
			continue
		}
		if !Equal(ov, nv) {
			*out = append(*out, Change{Path: p, Kind: ChangeChanged, Old: ov, New: nv})
		}
	}
	for k, nv := range next.m {
		if _, ok := prev.m[k]; !ok {
			*out = append(*out, Change{Path: ChildPath(path, k), Kind: ChangeAdded, New: nv})
		}
	}
}
