package memo

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sameSlice[T any](a, b []T) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

func sameMap[K comparable, V any](a, b map[K]V) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

func TestMemoizer_SliceStability(t *testing.T) {
	calls := 0
	m := New(func(in []string) []string {
		calls++
		out := make([]string, len(in))
		copy(out, in)
		return out
	}, SliceEqual[string])

	first := m.Get([]string{"a", "b"})
	second := m.Get([]string{"a", "b"})
	assert.True(t, sameSlice(first, second), "equal results must keep the first reference")
	assert.Equal(t, 2, calls)

	third := m.Get([]string{"a", "c"})
	assert.False(t, sameSlice(first, third))
	assert.Equal(t, []string{"a", "c"}, third)

	// order matters for slices
	fourth := m.Get([]string{"c", "a"})
	assert.False(t, sameSlice(third, fourth))
}

func TestMemoizer_SetStability(t *testing.T) {
	m := New(func(in []int) Set[int] { return NewSet(in) }, SetEqual[int])

	first := m.Get([]int{1, 2, 3})
	second := m.Get([]int{3, 2, 1})
	assert.True(t, sameMap(first, second), "sets with the same elements must keep the first reference")

	third := m.Get([]int{1, 2})
	assert.False(t, sameMap(first, third))
	assert.True(t, third.Has(2))
	assert.False(t, third.Has(3))
}

func TestMemoizer_Reset(t *testing.T) {
	m := New(func(in []string) []string { return append([]string(nil), in...) }, SliceEqual[string])
	first := m.Get([]string{"x"})
	m.Reset()
	second := m.Get([]string{"x"})
	assert.False(t, sameSlice(first, second))
}

func TestErrMemoizer(t *testing.T) {
	boom := errors.New("boom")
	m := NewErr(func(in []string) ([]string, error) {
		if len(in) == 0 {
			return nil, boom
		}
		return append([]string(nil), in...), nil
	}, SliceEqual[string])

	first, err := m.Get([]string{"a"})
	require.NoError(t, err)

	_, err = m.Get(nil)
	assert.ErrorIs(t, err, boom)

	second, err := m.Get([]string{"a"})
	require.NoError(t, err)
	assert.True(t, sameSlice(first, second), "a failed derivation must not evict the stored result")
}

func TestSliceEqualFunc(t *testing.T) {
	type point struct{ x, y float64 }
	eq := SliceEqualFunc(func(a, b point) bool { return a == b })
	assert.True(t, eq([]point{{1, 2}}, []point{{1, 2}}))
	assert.False(t, eq([]point{{1, 2}}, []point{{2, 1}}))
	assert.False(t, eq(nil, []point{{1, 2}}))
}
