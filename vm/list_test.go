package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList_GetSetNegativeIndex(t *testing.T) {
	rt := NewRuntime(false)
	l := rt.NewList([]*Value{rt.Int(1), rt.Int(2), rt.Int(3)})

	v, err := ListGet(l, -1)
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Data)

	require.NoError(t, ListSet(l, -1, rt.Int(99)))
	v, _ = ListGet(l, 2)
	require.Equal(t, int64(99), v.Data)

	_, err = ListGet(l, 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestList_Push(t *testing.T) {
	rt := NewRuntime(false)
	l := rt.NewList(nil)
	ListPush(l, rt.Int(5))
	length, err := l.Len()
	require.NoError(t, err)
	require.Equal(t, int64(1), length)
}

func TestList_TailAndRest(t *testing.T) {
	rt := NewRuntime(false)
	l := rt.NewList([]*Value{rt.Int(1), rt.Int(2), rt.Int(3)})

	tail := ListTail(l)
	require.Len(t, tail, 1)
	require.Equal(t, int64(3), tail[0].Data)

	rest := ListRest(l, 1)
	require.Len(t, rest, 2)
	require.Equal(t, int64(2), rest[0].Data)

	require.Empty(t, ListTail(rt.NewList(nil)))
}

func TestList_NewListCopiesSource(t *testing.T) {
	rt := NewRuntime(false)
	src := []*Value{rt.Int(1)}
	l := rt.NewList(src)
	src[0] = rt.Int(999)
	got, _ := ListGet(l, 0)
	require.Equal(t, int64(1), got.Data, "NewList must copy, not alias, its source slice")
}

func TestList_CloneIsDeep(t *testing.T) {
	rt := NewRuntime(false)
	l := rt.NewList([]*Value{rt.NewList([]*Value{rt.Int(1)})})
	clone := l.Clone()
	require.NotSame(t, l, clone)
	require.NotSame(t, l.Data.([]*Value)[0], clone.Data.([]*Value)[0])
}

func TestValue_Len(t *testing.T) {
	rt := NewRuntime(false)
	n, err := rt.NewString("hello").Len()
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	_, err = rt.Int(3).Len()
	require.Error(t, err)
}
