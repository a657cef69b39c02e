package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAlloc_EveryKindGetsAType pins down spec.md §3's invariant: every
// allocated value carries a non-nil .Type, either the shared built-in
// Class for its Kind (kindClasses) or a value-specific Type assigned at
// construction (Object, EnumValue).
func TestAlloc_EveryKindGetsAType(t *testing.T) {
	rt := NewRuntime(false)

	cls := rt.NewClass("C")
	require.NotNil(t, cls.Type)
	require.Same(t, cls.Type, cls.Type.Type, "Type is the only self-typed built-in")

	values := []*Value{
		rt.Int(1), rt.Float(1.0), rt.Bool(true), rt.Nil(),
		rt.NewString("s"), rt.NewDict(), rt.NewList(nil),
		rt.NewRange(0, 1, 1), rt.NewFunction("f", nil),
		rt.NewFunctionList("fl", nil),
	}
	for _, v := range values {
		require.NotNil(t, v.Type, "Kind %s must carry a non-nil Type", v.Kind)
	}

	obj := rt.NewObject(cls)
	require.Same(t, cls, obj.Type)

	et := rt.NewEnumType("E", []string{"A"})
	ev, _ := et.Data.(*enumTypeData).Value("A")
	require.Same(t, et, ev.Type)
}

func TestValue_GetSetDelAttr(t *testing.T) {
	rt := NewRuntime(false)
	cls := rt.NewClass("C")
	_, ok := cls.GetAttr("x")
	require.False(t, ok)

	cls.SetAttr("x", rt.Int(1))
	v, ok := cls.GetAttr("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v.Data)

	cls.DelAttr("x")
	_, ok = cls.GetAttr("x")
	require.False(t, ok)
}

func TestValue_SetAttrPanicsOnNonModifiableKind(t *testing.T) {
	rt := NewRuntime(false)
	require.Panics(t, func() { rt.Int(1).SetAttr("x", rt.Int(2)) })
}

func TestValue_CloneImmutableReturnsSelf(t *testing.T) {
	rt := NewRuntime(false)
	i := rt.Int(5)
	require.Same(t, i, i.Clone())
}
