package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_Hash_AgreesWithEquality(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, nil, true)

	pairs := []struct{ a, b *Value }{
		{rt.Int(5), rt.Int(5)},
		{rt.NewString("x"), rt.NewString("x")},
		{rt.Bool(true), rt.Bool(true)},
		{rt.NewRange(0, 10, 1), rt.NewRange(0, 10, 1)},
	}
	for _, p := range pairs {
		eq, err := Equal(in, p.a, p.b)
		require.NoError(t, err)
		require.True(t, eq)
		require.Equal(t, p.a.Hash(), p.b.Hash())
	}
}

func TestValue_Hash_PanicsOnUnhashableKind(t *testing.T) {
	rt := NewRuntime(false)
	l := rt.NewList(nil)
	require.Panics(t, func() { l.Hash() })
}

func TestValue_AsFloat(t *testing.T) {
	rt := NewRuntime(false)
	f, ok := rt.Int(3).AsFloat()
	require.True(t, ok)
	require.Equal(t, 3.0, f)

	f, ok = rt.Float(1.5).AsFloat()
	require.True(t, ok)
	require.Equal(t, 1.5, f)

	_, ok = rt.NewString("x").AsFloat()
	require.False(t, ok)
}

func TestValue_AsString(t *testing.T) {
	rt := NewRuntime(false)
	require.Equal(t, "42", rt.Int(42).AsString())
	require.Equal(t, "true", rt.Bool(true).AsString())
	require.Equal(t, "nil", rt.Nil().AsString())
	require.Equal(t, "hi", rt.NewString("hi").AsString())
}

func TestValue_AsString_Float(t *testing.T) {
	rt := NewRuntime(false)
	require.Equal(t, "1.5", rt.Float(1.5).AsString())
	require.Equal(t, "3.0", rt.Float(3.0).AsString())
	require.Equal(t, "inf", rt.Float(math.Inf(1)).AsString())
	require.Equal(t, "-inf", rt.Float(math.Inf(-1)).AsString())
	require.Equal(t, "nan", rt.Float(math.NaN()).AsString())
}

func TestValue_Dump(t *testing.T) {
	rt := NewRuntime(false)
	require.Equal(t, `"hi"`, rt.NewString("hi").Dump())
	require.Equal(t, "42", rt.Int(42).Dump())
}

func TestValue_Truthy(t *testing.T) {
	rt := NewRuntime(false)
	require.False(t, rt.Nil().Truthy())
	require.False(t, rt.Int(0).Truthy())
	require.True(t, rt.Int(1).Truthy())
	require.False(t, rt.NewString("").Truthy())
	require.True(t, rt.NewString("x").Truthy())
	require.False(t, rt.NewList(nil).Truthy())
	require.True(t, rt.NewList([]*Value{rt.Int(1)}).Truthy())
}
