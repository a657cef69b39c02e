package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/bytecode"
)

func TestGC_UnreachableValueIsFreed(t *testing.T) {
	rt := NewRuntime(false)
	orphan := rt.NewList([]*Value{rt.Int(1)})
	require.True(t, heapContains(rt, orphan))

	rt.GC.Collect(rt)
	require.False(t, heapContains(rt, orphan))
}

func TestGC_RegisterRootKeepsValueAlive(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, bytecode.New("x", 0), true)
	v := rt.NewList(nil)
	in.setReg(0, v)

	rt.GC.Collect(rt)
	require.True(t, heapContains(rt, v))
}

func TestGC_ClosureKeepsCapturedValueAlive(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, bytecode.New("x", 0), true)
	captured := rt.NewList(nil)

	fn := rt.NewFunction("f", nil)
	closure := NewMemoryPool(false, false)
	closure.Store(closure.GetFreeReg(), captured)
	fn.Data.(*functionData).Closures = append(fn.Data.(*functionData).Closures, closure)
	in.setReg(0, fn)

	rt.GC.Collect(rt)
	require.True(t, heapContains(rt, fn))
	require.True(t, heapContains(rt, captured))
}

func TestGC_AnnotationsKeepValueAlive(t *testing.T) {
	rt := NewRuntime(false)
	in := NewInterpreter(rt, bytecode.New("x", 0), true)
	note := rt.NewString("converter")

	obj := rt.NewObject(rt.NewClass("C"))
	obj.Annotations = map[string]*Value{"tag": note}
	in.setReg(0, obj)

	rt.GC.Collect(rt)
	require.True(t, heapContains(rt, note))
}

func TestGC_SingletonsAlwaysSurvive(t *testing.T) {
	rt := NewRuntime(false)
	rt.GC.Collect(rt)
	require.True(t, heapContains(rt, rt.Nil()))
	require.True(t, heapContains(rt, rt.Bool(true)))
	require.True(t, heapContains(rt, rt.Bool(false)))
}

func TestHeap_ArmedOnThresholdOrStressTest(t *testing.T) {
	rt := NewRuntime(false)
	require.False(t, rt.Heap.armed())
	rt.Heap.allocatedBytes = rt.Heap.nextGC
	require.True(t, rt.Heap.armed())

	stressed := NewRuntime(true)
	require.True(t, stressed.Heap.armed())
}
