package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/opcodes"
)

func TestMemoryPool_StoreLoad(t *testing.T) {
	p := NewMemoryPool(false, false)
	require.Nil(t, p.Load(3))

	rt := NewRuntime(false)
	v := rt.Int(7)
	p.Store(3, v)
	require.Same(t, v, p.Load(3))
}

func TestMemoryPool_Names(t *testing.T) {
	p := NewMemoryPool(false, false)
	rt := NewRuntime(false)
	v := rt.NewString("x")
	p.Store(1, v)
	p.StoreName(1, "foo")

	reg, ok := p.GetNameRegister("foo")
	require.True(t, ok)
	require.Equal(t, opcodes.Register(1), reg)

	got, ok := p.LoadName("foo")
	require.True(t, ok)
	require.Same(t, v, got)

	_, ok = p.LoadName("bar")
	require.False(t, ok)

	p.RemoveName("foo")
	_, ok = p.LoadName("foo")
	require.False(t, ok)
}

func TestMemoryPool_Overwrite(t *testing.T) {
	p := NewMemoryPool(false, false)
	rt := NewRuntime(false)
	p.Store(0, rt.Int(1))
	p.StoreName(0, "x")

	require.True(t, p.Overwrite("x", rt.Int(2)))
	v, _ := p.LoadName("x")
	require.Equal(t, int64(2), v.Data)

	require.False(t, p.Overwrite("never-bound", rt.Int(3)))
}

func TestMemoryPool_GetFreeRegCountsDown(t *testing.T) {
	p := NewMemoryPool(false, false)
	first := p.GetFreeReg()
	second := p.GetFreeReg()
	require.Equal(t, first-1, second)
}

func TestMemoryPool_FinallyStack(t *testing.T) {
	p := NewMemoryPool(false, false)
	_, ok := p.ActiveFinally()
	require.False(t, ok)

	p.PushFinally(5, 1)
	entry, ok := p.ActiveFinally()
	require.True(t, ok)
	require.Equal(t, opcodes.Address(5), entry.Addr)
	require.Equal(t, 1, entry.CallDepth)

	p.PushFinallyStack()
	_, ok = p.ActiveFinally()
	require.False(t, ok)
	p.PushFinally(9, 2)
	entry, ok = p.ActiveFinally()
	require.True(t, ok)
	require.Equal(t, opcodes.Address(9), entry.Addr)

	p.PopFinallyStack()
	entry, ok = p.ActiveFinally()
	require.True(t, ok)
	require.Equal(t, opcodes.Address(5), entry.Addr)

	p.PopFinally()
	_, ok = p.ActiveFinally()
	require.False(t, ok)
}

func TestMemoryPool_Catches(t *testing.T) {
	p := NewMemoryPool(false, false)
	require.Empty(t, p.Catches())

	ec1 := &ExceptionCatch{BindName: "e1", HandlerAddr: 1}
	ec2 := &ExceptionCatch{BindName: "e2", HandlerAddr: 2}
	p.PushCatch(ec1)
	p.PushCatch(ec2)
	require.Len(t, p.Catches(), 2)

	p.PopCatch(1)
	require.Len(t, p.Catches(), 1)
	require.Equal(t, "e1", p.Catches()[0].BindName)

	p.PopCatch(5)
	require.Empty(t, p.Catches())
}

func TestMemoryPool_Clone(t *testing.T) {
	rt := NewRuntime(false)
	p := NewMemoryPool(false, false)
	v := rt.NewList([]*Value{rt.Int(42)})
	p.Store(0, v)
	p.StoreName(0, "x")

	clone := p.Clone()
	cloned, ok := clone.LoadName("x")
	require.True(t, ok)
	require.NotSame(t, v, cloned, "Clone must deep-copy mutable register values")
	require.Equal(t, int64(42), cloned.Data.([]*Value)[0].Data)

	// Mutating the clone's register must not affect the original pool.
	clone.Store(0, rt.Int(99))
	original, _ := p.LoadName("x")
	require.Same(t, v, original)
}

func TestMemoryPool_SymbolNamesSorted(t *testing.T) {
	p := NewMemoryPool(false, false)
	p.StoreName(0, "zeta")
	p.StoreName(1, "alpha")
	p.StoreName(2, "mu")
	require.Equal(t, []string{"alpha", "mu", "zeta"}, p.SymbolNames())
}
