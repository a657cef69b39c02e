package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDict_SetGetDelete(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, nil, true)
	d := rt.NewDict()
	dd := d.Data.(*dictData)

	k := rt.NewString("key")
	v := rt.Int(1)
	require.NoError(t, dd.Set(in, k, v))
	require.Equal(t, 1, dd.Len())

	got, ok, err := dd.Get(in, rt.NewString("key"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), got.Data)

	_, ok, err = dd.Get(in, rt.NewString("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, dd.Set(in, rt.NewString("key"), rt.Int(2)))
	require.Equal(t, 1, dd.Len(), "re-setting an equal key must not grow the dict")
	got, _, _ = dd.Get(in, rt.NewString("key"))
	require.Equal(t, int64(2), got.Data)

	deleted, err := dd.Delete(in, rt.NewString("key"))
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 0, dd.Len())

	deleted, err = dd.Delete(in, rt.NewString("key"))
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDict_CloneDeepCopiesValues(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, nil, true)
	d := rt.NewDict()
	dd := d.Data.(*dictData)
	require.NoError(t, dd.Set(in, rt.NewString("k"), rt.NewList([]*Value{rt.Int(1)})))

	clone := d.Clone()
	cdd := clone.Data.(*dictData)
	origVal, _, _ := dd.Get(in, rt.NewString("k"))
	cloneVal, _, _ := cdd.Get(in, rt.NewString("k"))
	require.NotSame(t, origVal, cloneVal)
}

func TestDict_Equal(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, nil, true)

	a := rt.NewDict()
	ad := a.Data.(*dictData)
	require.NoError(t, ad.Set(in, rt.NewString("k"), rt.Int(1)))

	b := rt.NewDict()
	bd := b.Data.(*dictData)
	require.NoError(t, bd.Set(in, rt.NewString("k"), rt.Int(1)))

	eq, err := Equal(in, a, b)
	require.NoError(t, err)
	require.True(t, eq)

	require.NoError(t, bd.Set(in, rt.NewString("k"), rt.Int(2)))
	eq, err = Equal(in, a, b)
	require.NoError(t, err)
	require.False(t, eq)
}
