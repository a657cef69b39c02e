package libms

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/vm"
)

func TestLoad_BuildsExpectedSurface(t *testing.T) {
	rt := vm.NewRuntime(true)
	mod := Load(rt)
	require.Equal(t, vm.KindModule, mod.Kind)

	for _, name := range []string{"output", "assert", "type", "len", "dump", "math", "string", "list"} {
		_, ok := mod.GetAttr(name)
		require.True(t, ok, "libms missing %s", name)
	}

	mathSpace, ok := mod.GetAttr("math")
	require.True(t, ok)
	for _, name := range []string{"sqrt", "floor", "ceil", "sin", "cos", "tan", "log", "exp", "abs", "pow", "min", "max", "pi", "e"} {
		_, ok := mathSpace.GetAttr(name)
		require.True(t, ok, "math missing %s", name)
	}

	stringSpace, ok := mod.GetAttr("string")
	require.True(t, ok)
	for _, name := range []string{"upper", "lower", "trim", "split", "join", "contains", "replace", "index"} {
		_, ok := stringSpace.GetAttr(name)
		require.True(t, ok, "string missing %s", name)
	}

	listSpace, ok := mod.GetAttr("list")
	require.True(t, ok)
	for _, name := range []string{"push", "pop", "reverse", "contains", "sum"} {
		_, ok := listSpace.GetAttr(name)
		require.True(t, ok, "list missing %s", name)
	}
}

func TestLenFn(t *testing.T) {
	rt := vm.NewRuntime(true)
	result, err := lenFn(rt, []*vm.Value{rt.NewString("hello")}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), result.Data)

	_, err = lenFn(rt, []*vm.Value{rt.Int(3)}, nil)
	require.Error(t, err)
	var le *vm.LibraryError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "TypeError", le.ClassName)
}

func TestAssertFn(t *testing.T) {
	rt := vm.NewRuntime(true)
	_, err := assertFn(rt, []*vm.Value{rt.Bool(true)}, nil)
	require.NoError(t, err)

	_, err = assertFn(rt, []*vm.Value{rt.Bool(false), rt.NewString("nope")}, nil)
	require.Error(t, err)
	var le *vm.LibraryError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "AssertionError", le.ClassName)
	require.Equal(t, "nope", le.Message)
}

// TestTypeFn exercises the Type-invariant fix (vm/classes.go's kindClasses
// table): type(3) must return the real built-in Int Class now, not nil.
func TestTypeFn(t *testing.T) {
	rt := vm.NewRuntime(true)
	result, err := typeFn(rt, []*vm.Value{rt.Int(3)}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.KindClass, result.Kind)
	require.Equal(t, "Int", result.Name)
}

func TestDumpFn(t *testing.T) {
	rt := vm.NewRuntime(true)
	result, err := dumpFn(rt, []*vm.Value{rt.NewString("hi")}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.KindString, result.Kind)
}

func TestMathFunctions(t *testing.T) {
	rt := vm.NewRuntime(true)

	absResult, err := mathAbs(rt, []*vm.Value{rt.Int(-5)}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.KindInt, absResult.Kind)
	require.Equal(t, int64(5), absResult.Data)

	powResult, err := mathPow(rt, []*vm.Value{rt.Float(2.0), rt.Float(10.0)}, nil)
	require.NoError(t, err)
	require.InDelta(t, 1024.0, powResult.Data, 1e-9)

	minResult, err := mathMin(rt, []*vm.Value{rt.Float(3.0), rt.Float(1.0)}, nil)
	require.NoError(t, err)
	require.InDelta(t, 1.0, minResult.Data, 1e-9)

	_, err = mathPow(rt, []*vm.Value{rt.NewString("nope"), rt.Float(2.0)}, nil)
	require.Error(t, err)
}

func TestStringFunctions(t *testing.T) {
	rt := vm.NewRuntime(true)

	upper, err := strUpper(rt, []*vm.Value{rt.NewString("abc")}, nil)
	require.NoError(t, err)
	require.Equal(t, "ABC", upper.Data)

	split, err := strSplit(rt, []*vm.Value{rt.NewString("a,b,c"), rt.NewString(",")}, nil)
	require.NoError(t, err)
	require.Len(t, split.Data.([]*vm.Value), 3)

	contains, err := strContains(rt, []*vm.Value{rt.NewString("hello world"), rt.NewString("world")}, nil)
	require.NoError(t, err)
	require.Equal(t, true, contains.Data)

	replaced, err := strReplace(rt, []*vm.Value{rt.NewString("aaa"), rt.NewString("a"), rt.NewString("b")}, nil)
	require.NoError(t, err)
	require.Equal(t, "bbb", replaced.Data)

	_, err = strUpper(rt, []*vm.Value{rt.Int(1)}, nil)
	require.Error(t, err)
}

func TestListFunctions(t *testing.T) {
	rt := vm.NewRuntime(true)
	l := rt.NewList([]*vm.Value{rt.Int(1), rt.Int(2), rt.Int(3)})

	sum, err := listSum(rt, []*vm.Value{l}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(6), sum.Data)

	reversed, err := listReverse(rt, []*vm.Value{l}, nil)
	require.NoError(t, err)
	elems := reversed.Data.([]*vm.Value)
	require.Equal(t, int64(3), elems[0].Data)
	require.Equal(t, int64(1), elems[2].Data)

	hasTwo, err := listContains(rt, []*vm.Value{l, rt.Int(2)}, nil)
	require.NoError(t, err)
	require.Equal(t, true, hasTwo.Data)

	hasNinetyNine, err := listContains(rt, []*vm.Value{l, rt.Int(99)}, nil)
	require.NoError(t, err)
	require.Equal(t, false, hasNinetyNine.Data)

	popped, err := listPop(rt, []*vm.Value{l}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), popped.Data)

	_, err = listPop(rt, []*vm.Value{rt.NewList(nil)}, nil)
	require.Error(t, err)
	var le *vm.LibraryError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "IndexError", le.ClassName)
}
