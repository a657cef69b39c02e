package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClass_AttributeResolutionBreadthFirst(t *testing.T) {
	rt := NewRuntime(false)
	grandparent := rt.NewClass("GrandParent")
	grandparent.SetAttr("greeting", rt.NewString("from-grandparent"))

	parent := rt.NewClass("Parent")
	parent.Data.(*classData).Supers = []*Value{grandparent}

	child := rt.NewClass("Child")
	child.Data.(*classData).Supers = []*Value{parent}

	obj := rt.NewObject(child)
	val, ok := obj.GetAttr("greeting")
	require.True(t, ok)
	require.Equal(t, "from-grandparent", val.Data)

	// A closer override wins over the more distant one.
	parent.SetAttr("greeting", rt.NewString("from-parent"))
	val, ok = obj.GetAttr("greeting")
	require.True(t, ok)
	require.Equal(t, "from-parent", val.Data)

	// Instance attributes shadow class attributes.
	obj.SetAttr("greeting", rt.NewString("from-instance"))
	val, ok = obj.GetAttr("greeting")
	require.True(t, ok)
	require.Equal(t, "from-instance", val.Data)
}

func TestClass_MissingAttrNotFound(t *testing.T) {
	rt := NewRuntime(false)
	cls := rt.NewClass("Empty")
	obj := rt.NewObject(cls)
	_, ok := obj.GetAttr("nope")
	require.False(t, ok)
}

func TestClass_CloneObjectDeepCopiesAttrsSharesClass(t *testing.T) {
	rt := NewRuntime(false)
	cls := rt.NewClass("C")
	obj := rt.NewObject(cls)
	obj.SetAttr("x", rt.Int(1))

	clone := obj.Clone()
	require.NotSame(t, obj, clone)
	require.Same(t, cls, clone.Data.(*objectData).Class)

	clone.SetAttr("x", rt.Int(2))
	orig, _ := obj.GetAttr("x")
	require.Equal(t, int64(1), orig.Data)
}

func TestClass_Super(t *testing.T) {
	rt := NewRuntime(false)
	base := rt.NewClass("Base")
	base.SetAttr("speak", rt.NewString("base-speak"))

	derived := rt.NewClass("Derived")
	derived.Data.(*classData).Supers = []*Value{base}
	derived.SetAttr("speak", rt.NewString("derived-speak"))

	obj := rt.NewObject(derived)
	sup := rt.NewSuper(obj, derived)

	val, ok := sup.GetAttr("speak")
	require.True(t, ok)
	require.Equal(t, "base-speak", val.Data, "super must skip the instance's own class")
}

func TestClass_ObjectEqualityFallsBackToIdentity(t *testing.T) {
	rt := NewRuntime(false)
	cls := rt.NewClass("C")
	a := rt.NewObject(cls)
	b := rt.NewObject(cls)

	in := NewInterpreter(rt, nil, true)
	eq, err := Equal(in, a, a)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = Equal(in, a, b)
	require.NoError(t, err)
	require.False(t, eq)
}
