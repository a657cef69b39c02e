package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/opcodes"
)

// newScenarioInterpreter builds a bare Interpreter over in, with no
// libms loaded, for spec.md §8's end-to-end scenarios.
func newScenarioInterpreter(t *testing.T, instrs []*opcodes.Instruction) (*Interpreter, *Runtime) {
	t.Helper()
	rt := NewRuntime(false)
	bc := bytecode.New("scenario", 0)
	for _, in := range instrs {
		bc.Append(in)
	}
	interp := NewInterpreter(rt, bc, true)
	return interp, rt
}

// TestScenario_ArithmeticSpecialisation is spec.md §8 scenario 1.
func TestScenario_ArithmeticSpecialisation(t *testing.T) {
	in, _ := newScenarioInterpreter(t, []*opcodes.Instruction{
		{Op: opcodes.STORE_INT_CONST, Dst: 200, IntLit: 2},
		{Op: opcodes.STORE_INT_CONST, Dst: 201, IntLit: 3},
		{Op: opcodes.STORE_INT_CONST, Dst: 202, IntLit: 9},
		{Op: opcodes.STORE_FLOAT_CONST, Dst: 203, FloatLit: 0.5},
		{Op: opcodes.STORE_CONST, Dst: 0, Src1: 200},
		{Op: opcodes.EXP3, Dst: 1, Src1: 0, Src2: 201},
		{Op: opcodes.STORE_CONST, Dst: 2, Src1: 203},
		{Op: opcodes.EXP2, Dst: 3, Src1: 202, Src2: 2},
		{Op: opcodes.EXP, Dst: 4, Src1: 1, Src2: 3},
		{Op: opcodes.ADD, Dst: 5, Src1: 4, Src2: 1},
		{Op: opcodes.ADD3, Dst: 6, Src1: 0, Src2: 202},
	})
	require.NoError(t, in.Run())

	reg1 := in.reg(1)
	require.Equal(t, KindInt, reg1.Kind)
	require.Equal(t, int64(8), reg1.Data)

	reg3 := in.reg(3)
	require.Equal(t, KindFloat, reg3.Kind)
	require.Equal(t, 3.0, reg3.Data)

	reg4 := in.reg(4)
	require.Equal(t, KindFloat, reg4.Kind)
	require.Equal(t, 512.0, reg4.Data)

	reg5 := in.reg(5)
	require.Equal(t, KindFloat, reg5.Kind)
	require.Equal(t, 520.0, reg5.Data)

	reg6 := in.reg(6)
	require.Equal(t, KindInt, reg6.Kind)
	require.Equal(t, int64(11), reg6.Data)
}

// TestScenario_NameBinding is spec.md §8 scenario 2.
func TestScenario_NameBinding(t *testing.T) {
	in, _ := newScenarioInterpreter(t, []*opcodes.Instruction{
		{Op: opcodes.STORE_INT_CONST, Dst: 200, IntLit: 2024},
		{Op: opcodes.STORE_CONST, Dst: 0, Src1: 200},
		{Op: opcodes.STORE_NAME, Dst: 0, Name: "foo"},
		{Op: opcodes.LOAD, Dst: 1, Name: "foo"},
	})
	require.NoError(t, in.Run())

	v, ok := in.LoadName("foo")
	require.True(t, ok)
	require.Equal(t, int64(2024), v.Data)
	require.Equal(t, int64(2024), in.reg(1).Data)
}

// TestScenario_ExceptionWithFinally is spec.md §8 scenario 3: a raise
// inside a try block is caught, output()s "caught", then execution falls
// through into the finally block, which outputs "done" with no newline
// inserted by the VM.
func TestScenario_ExceptionWithFinally(t *testing.T) {
	// We build this by hand rather than relying on a front end's lowering,
	// since lowering try/catch/finally into addresses is a compiler concern
	// (spec.md §1 Non-goals); this directly drives the opcodes finally
	// relies on.
	var buf bytes.Buffer

	instrs := []*opcodes.Instruction{
		// 0: entering the try statement's finally scope
		{Op: opcodes.PUSH_FINALLY_STACK},
		// 1: this try's finally block starts at addr 9
		{Op: opcodes.PUSH_FINALLY, Addr: 9},
		// 2: catch handler starts at addr 5 (a raise searches catches
		// before finally blocks)
		{Op: opcodes.CATCH_TYPED, Name: "e", TypeName: "ValueError", Addr: 5},
		// 3: raise the ValueError("bad") pre-seeded in frame register 0
		{Op: opcodes.RAISE, Src1: 0},
		// 4: unreachable on the raising path
		{Op: opcodes.JMP, Addr: 12},
		// 5-8: catch handler: output("caught"), then POP_CATCH
		{Op: opcodes.STORE_STRING_CONST, Dst: 200, StringLit: "caught"},
		{Op: opcodes.STORE_CONST, Dst: 1, Src1: 200},
		{Op: opcodes.OUTPUT, Src1: 1},
		{Op: opcodes.POP_CATCH},
		// 9-11: finally block: output("done")
		{Op: opcodes.STORE_STRING_CONST, Dst: 201, StringLit: "done"},
		{Op: opcodes.STORE_CONST, Dst: 2, Src1: 201},
		{Op: opcodes.OUTPUT, Src1: 2},
		// 12: end of finally (no pending exception here: the catch above
		// already handled it, so this just closes the bookkeeping)
		{Op: opcodes.POP_FINALLY},
		// 13: leaving the try statement's finally scope
		{Op: opcodes.POP_FINALLY_STACK},
	}
	in, rt := newScenarioInterpreter(t, instrs)
	in.Stdout = &buf
	in.setReg(0, rt.NewError("ValueError", "bad"))

	err := in.Run()
	require.NoError(t, err)
	require.Equal(t, "caughtdone", buf.String())
}

// TestScenario_FinallyRunsOnUncaughtRaise verifies the finally-only path:
// a raise with no matching catch anywhere still runs the enclosing
// finally block, then the exception continues propagating out of the VM
// (spec.md §4.1 "Finally": "the handler replicates the raise after
// running the block").
func TestScenario_FinallyRunsOnUncaughtRaise(t *testing.T) {
	var buf bytes.Buffer

	instrs := []*opcodes.Instruction{
		// 0: entering the try statement's finally scope
		{Op: opcodes.PUSH_FINALLY_STACK},
		// 1: this try's finally block starts at addr 4
		{Op: opcodes.PUSH_FINALLY, Addr: 4},
		// 2: raise the ValueError pre-seeded in frame register 0 (no catch
		// registered for it)
		{Op: opcodes.RAISE, Src1: 0},
		// 3: unreachable on the raising path
		{Op: opcodes.JMP, Addr: 8},
		// 4-6: finally block: output("done")
		{Op: opcodes.STORE_STRING_CONST, Dst: 200, StringLit: "done"},
		{Op: opcodes.STORE_CONST, Dst: 1, Src1: 200},
		{Op: opcodes.OUTPUT, Src1: 1},
		// 7: end of finally: a pending exception is re-raised here, so this
		// continues the unwind instead of falling through to POP_FINALLY_STACK
		{Op: opcodes.POP_FINALLY},
		// 8: leaving the try statement's finally scope (never reached)
		{Op: opcodes.POP_FINALLY_STACK},
	}
	in, rt := newScenarioInterpreter(t, instrs)
	in.Stdout = &buf
	in.setReg(0, rt.NewError("ValueError", "bad"))

	err := in.Run()
	require.Error(t, err)
	exc, ok := UnwrapRaise(err)
	require.True(t, ok)
	require.Equal(t, "ValueError", exc.Type.Name)
	require.Equal(t, "done", buf.String())
}

// TestScenario_FunctionListDispatch is spec.md §8 scenario 5: two Function
// overloads differing only by declared parameter type resolve by runtime
// argument type, and an unmatched argument type raises TypeError.
func TestScenario_FunctionListDispatch(t *testing.T) {
	rt := NewRuntime(false)

	intFn := rt.NewNativeFunction("g", 1, func(rt *Runtime, positional []*Value, named map[string]*Value) (*Value, error) {
		return rt.Int(1), nil
	})
	intFn.Data.(*functionData).Args = []*funcArg{{Name: "x", Types: []*Value{rt.builtins["Int"]}}}

	stringFn := rt.NewNativeFunction("g", 1, func(rt *Runtime, positional []*Value, named map[string]*Value) (*Value, error) {
		return rt.Int(2), nil
	})
	stringFn.Data.(*functionData).Args = []*funcArg{{Name: "x", Types: []*Value{rt.builtins["String"]}}}

	list := rt.NewFunctionList("g", []*Value{intFn, stringFn})

	resolved, err := ResolveOverload(list, []*Value{rt.NewString("hi")}, nil)
	require.NoError(t, err)
	result, err := resolved.Data.(*functionData).Native(rt, []*Value{rt.NewString("hi")}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Data)

	resolved, err = ResolveOverload(list, []*Value{rt.Int(3)}, nil)
	require.NoError(t, err)
	result, err = resolved.Data.(*functionData).Native(rt, []*Value{rt.Int(3)}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Data)

	_, err = ResolveOverload(list, []*Value{rt.Float(3.0)}, nil)
	require.Error(t, err)
}

// TestScenario_CrossModuleCall is spec.md §8 scenario 4: a module m
// defining `fun f() { return 42 }` is imported and called; the caller
// resumes after CALL with 42 in its destination register, and both VMs
// stay registered as GC roots for the duration.
func TestScenario_CrossModuleCall(t *testing.T) {
	rt := NewRuntime(false)

	moduleBC := bytecode.New("m", 0)
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.CREATE_FUN, Dst: 0, Name: "f"})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.FUN_BEGIN, Dst: 0, Addr: 4})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.STORE_GLOBAL, Src1: 0, Name: "f"})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.JMP, Addr: 8})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.PUSH_FRAME})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.STORE_INT_CONST, Dst: 200, IntLit: 42})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.STORE_CONST, Dst: 1, Src1: 200})
	moduleBC.Append(&opcodes.Instruction{Op: opcodes.RETURN, Src1: 1})

	mod, err := rt.LoadModule("m", moduleBC)
	require.NoError(t, err)

	rt.ModuleLoader = func(rt *Runtime, name string) (*Value, error) {
		if name == "m" {
			return mod, nil
		}
		return nil, &TypeMismatchError{Message: "unknown module " + name}
	}

	callerBC := bytecode.New("main", 0)
	callerBC.Append(&opcodes.Instruction{Op: opcodes.IMPORT, Dst: 0, Name: "m"})
	callerBC.Append(&opcodes.Instruction{Op: opcodes.LOAD_ATTR, Dst: 1, Src1: 0, Name: "f"})
	callerBC.Append(&opcodes.Instruction{Op: opcodes.PUSH_CALL_FRAME})
	callerBC.Append(&opcodes.Instruction{Op: opcodes.CALL, Dst: 2, Src1: 1})
	callerBC.Append(&opcodes.Instruction{Op: opcodes.RETURN, Src1: 2})

	caller := NewInterpreter(rt, callerBC, true)
	require.NoError(t, caller.Run())

	result := caller.reg(2)
	require.Equal(t, KindInt, result.Kind)
	require.Equal(t, int64(42), result.Data)

	require.Len(t, rt.Heap.vms, 2)
	rt.GC.Collect(rt)
	found := false
	for _, vmi := range rt.Heap.vms {
		if vmi == caller {
			found = true
		}
	}
	require.True(t, found)
}

// TestScenario_GCLiveness is spec.md §8 scenario 6: an Object whose
// attribute points to a Class whose method closes over that same Object
// forms a cycle. Once nothing outside the cycle references it, one
// Collect() frees every value in it, while a still-reachable root value
// survives.
func TestScenario_GCLiveness(t *testing.T) {
	rt := NewRuntime(false)
	interp := NewInterpreter(rt, bytecode.New("scenario", 0), true)

	class := rt.NewClass("C")
	obj := rt.NewObject(class)

	method := rt.NewFunction("method", nil)
	closure := NewMemoryPool(false, false)
	closure.Store(closure.GetFreeReg(), obj)
	method.Data.(*functionData).Closures = append(method.Data.(*functionData).Closures, closure)

	class.SetAttr("method", method)
	obj.SetAttr("peer", class)

	// A value kept live through the interpreter's own register file, to
	// confirm Collect only frees the unreachable cycle above.
	root := rt.NewString("still alive")
	interp.setReg(0, root)

	rt.GC.Collect(rt)

	require.False(t, heapContains(rt, class))
	require.False(t, heapContains(rt, obj))
	require.False(t, heapContains(rt, method))
	require.True(t, heapContains(rt, root))
}

// heapContains reports whether v is still tracked on rt's heap, by pointer
// identity rather than testify's deep-equal Contains (which would recurse
// into the very reference cycles this test is exercising).
func heapContains(rt *Runtime, v *Value) bool {
	for _, cur := range rt.Heap.values {
		if cur == v {
			return true
		}
	}
	return false
}
