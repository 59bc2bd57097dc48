package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffEqualSnapshots(t *testing.T) {
	s := NewSnapshot(map[string]Value{"a": Int(1)})
	assert.Empty(t, Diff(s, NewSnapshot(map[string]Value{"a": Int(1)})))
}

func TestDiffReportsNestedChanges(t *testing.T) {
	prev := NewSnapshot(map[string]Value{
		"status": String("ok"),
		"gone":   Bool(true),
		"http":   Map(map[string]Value{"code": Int(200), "body": String("x")}),
		"list":   Seq(Int(1), Int(2)),
	})
	next := NewSnapshot(map[string]Value{
		"status": String("down"),
		"http":   Map(map[string]Value{"code": Int(500), "body": String("x")}),
		"list":   Seq(Int(2), Int(1)),
		"new":    Float(1),
	})

	changes := Diff(prev, next)
	require.Len(t, changes, 5)

	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	assert.Equal(t, []string{"gone", "http.code", "list", "new", "status"}, paths)

	assert.Equal(t, ChangeRemoved, changes[0].Kind)
	assert.Equal(t, ChangeChanged, changes[1].Kind)
	assert.True(t, Equal(Int(200), changes[1].Old))
	assert.True(t, Equal(Int(500), changes[1].New))
	assert.Equal(t, ChangeAdded, changes[3].Kind)
}

func TestDiffFromEmpty(t *testing.T) {
	changes := Diff(EmptySnapshot(), ErrorSnapshot("boom"))
	require.Len(t, changes, 1)
	assert.Equal(t, ErrorKey, changes[0].Path)
	assert.Equal(t, ChangeAdded, changes[0].Kind)
}
