package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/opcodes"
)

// Interpreter is one VM instance: one running module plus its frame,
// constant-pool, and call-frame stacks (spec.md §4.5). A cross-module call
// recursively drives a nested Interpreter's loop rather than switching
// stacks in place, which keeps each module's state isolated and is what
// lets the GC treat "every live Interpreter" as an independent root set.
type Interpreter struct {
	rt     *Runtime
	bc     *bytecode.Bytecode
	Module *Value

	frames     []*MemoryPool
	constPools []*MemoryPool
	callFrames []*CallFrame
	parents    []*Value // transient during BUILD_CLASS

	pc       opcodes.Address
	ExitCode int
	stop     bool
	isMain   bool

	Stdout io.Writer

	pendingNotes     []*Value
	lastReturnValue  *Value
	pendingExc       *Value // set while unwinding through a finally with no matching catch
}

// NewInterpreter constructs an Interpreter for bc, with an empty global
// frame and matching constant pool already pushed at position 0.
func NewInterpreter(rt *Runtime, bc *bytecode.Bytecode, isMain bool) *Interpreter {
	i := &Interpreter{rt: rt, bc: bc, isMain: isMain, Stdout: os.Stdout}
	i.frames = append(i.frames, NewMemoryPool(true, false))
	i.constPools = append(i.constPools, NewMemoryPool(false, true))
	if rt != nil {
		rt.Heap.pushVM(i)
		if rt.libms != nil {
			spillLibms(i, rt.libms)
		}
	}
	return i
}

// spillLibms implements spec.md §4.5's "Standard library contract": every
// non-libms interpreter gets libms's top-level bindings, plus a name
// `moss` bound to the libms module itself, copied into its global frame.
func spillLibms(i *Interpreter, libms *Value) {
	pool := i.frames[0]
	md := libms.Data.(*moduleData)
	for _, name := range md.Attrs.SymbolNames() {
		v, ok := md.Attrs.LoadName(name)
		if !ok {
			continue
		}
		reg := pool.GetFreeReg()
		pool.StoreName(reg, name)
		pool.Store(reg, v)
	}
	reg := pool.GetFreeReg()
	pool.StoreName(reg, "moss")
	pool.Store(reg, libms)
}

// Runtime exposes the owning process-wide context.
func (i *Interpreter) Runtime() *Runtime { return i.rt }

// Global returns the frame-0 global MemoryPool.
func (i *Interpreter) Global() *MemoryPool { return i.frames[0] }

// Frames/ConstPools/CallFrames expose the live stacks for GC root walking
// (gc.go).
func (i *Interpreter) Frames() []*MemoryPool       { return i.frames }
func (i *Interpreter) ConstPools() []*MemoryPool   { return i.constPools }
func (i *Interpreter) CallFrames() []*CallFrame    { return i.callFrames }
func (i *Interpreter) Parents() []*Value           { return i.parents }
func (i *Interpreter) IsMain() bool                { return i.isMain }
func (i *Interpreter) Stopped() bool               { return i.stop }

// Run drives the fetch-decode-execute loop until the PC runs past the end
// of the bytecode or stop is set (spec.md §4.5). GC is checked between
// every instruction, never mid-instruction (spec.md §4.6 "Safe points").
func (i *Interpreter) Run() error {
	for !i.stop && int(i.pc) < i.bc.Len() {
		if done, err := i.runOneStep(); err != nil {
			return err
		} else if done {
			break
		}
	}
	return nil
}

// RunOne executes a single fetch-decode-execute step, for a front end
// (cmd/moss's repl) that wants to single-step a chunk instruction by
// instruction rather than run it to completion.
func (i *Interpreter) RunOne() error {
	_, err := i.runOneStep()
	return err
}

// PC reports the interpreter's current program counter, read by a
// front end driving RunOne in a loop.
func (i *Interpreter) PC() opcodes.Address { return i.pc }

// runOneStep fetches and executes the instruction at the current pc,
// handling any raise it produces the same way Run's loop does. done is
// true once the pc has run past the end of the bytecode or stop was set.
func (i *Interpreter) runOneStep() (done bool, err error) {
	if i.stop || int(i.pc) >= i.bc.Len() {
		return true, nil
	}
	in := i.bc.At(i.pc)
	if in == nil {
		return true, nil
	}
	advance, err := i.step(in)
	if err != nil {
		if rerr, ok := err.(*raisedError); ok {
			if handled, herr := i.handleRaise(rerr.value); herr != nil {
				return false, herr
			} else if !handled {
				return false, rerr
			}
			return false, nil
		}
		return false, err
	}
	if advance {
		i.pc++
	}
	if i.rt != nil && i.rt.Heap.armed() {
		i.rt.GC.Collect(i.rt)
	}
	return false, nil
}

// pushFrame implements PUSH_FRAME: consume the top (unmatched) CallFrame,
// allocate a fresh MemoryPool/constant pool, copy each actual into its
// destination register, and run defaults/varargs for anything missing.
func (i *Interpreter) pushFrame() error {
	var cf *CallFrame
	if n := len(i.callFrames); n > 0 && !i.callFrames[n-1].MatchedToFrame {
		cf = i.callFrames[n-1]
		cf.MatchedToFrame = true
	}
	pool := NewMemoryPool(false, false)
	i.frames = append(i.frames, pool)
	i.constPools = append(i.constPools, NewMemoryPool(false, true))
	if cf == nil {
		return nil
	}
	fn, ok := cf.Target.Data.(*functionData)
	if !ok {
		return nil
	}
	used := make(map[int]bool)
	for _, arg := range fn.Args {
		if arg.Vararg || arg.KwVararg {
			continue
		}
		var found *Value
		for ai, a := range cf.Args {
			if used[ai] {
				continue
			}
			if a.Name == arg.Name || (a.Name == "" && !anyNamed(cf.Args[:ai+1])) {
				found = a.Value
				used[ai] = true
				break
			}
		}
		if found == nil {
			found = arg.Default
		}
		if found == nil {
			found = i.rt.Nil()
		}
		reg := pool.GetFreeReg()
		pool.Store(reg, found)
		pool.StoreName(reg, arg.Name)
	}
	for _, arg := range fn.Args {
		if arg.Vararg {
			var rest []*Value
			for ai, a := range cf.Args {
				if !used[ai] && a.Name == "" {
					rest = append(rest, a.Value)
					used[ai] = true
				}
			}
			reg := pool.GetFreeReg()
			pool.Store(reg, i.rt.NewList(rest))
			pool.StoreName(reg, arg.Name)
		}
		if arg.KwVararg {
			d := i.rt.NewDict()
			for ai, a := range cf.Args {
				if !used[ai] && a.Name != "" {
					d.Data.(*dictData).Set(i, i.rt.NewString(a.Name), a.Value)
					used[ai] = true
				}
			}
			reg := pool.GetFreeReg()
			pool.Store(reg, d)
			pool.StoreName(reg, arg.Name)
		}
	}
	return nil
}

func anyNamed(args []CallFrameArg) bool {
	for _, a := range args {
		if a.Name != "" {
			return true
		}
	}
	return false
}

// popFrame implements POP_FRAME: discard the innermost MemoryPool and its
// constant pool, notifying the heap so non-global pools can be swept
// promptly once unreachable (spec.md §4.6 describes pools as ordinary
// heap-reachable objects; this just gives the collector an early signal).
func (i *Interpreter) popFrame() {
	n := len(i.frames)
	if n <= 1 {
		return
	}
	popped := i.frames[n-1]
	i.frames = i.frames[:n-1]
	i.constPools = i.constPools[:len(i.constPools)-1]
	if i.rt != nil {
		i.rt.Heap.pushPoppedFrame(popped)
	}
}

// pushCallFrame implements PUSH_CALL_FRAME: stage a new, not-yet-matched
// CallFrame ahead of the callee's PUSH_FRAME.
func (i *Interpreter) pushCallFrame(cf *CallFrame) {
	i.callFrames = append(i.callFrames, cf)
}

func (i *Interpreter) popCallFrame() {
	n := len(i.callFrames)
	if n == 0 {
		return
	}
	i.callFrames = i.callFrames[:n-1]
}

// LoadName implements LOAD: innermost frame to global, inclusive.
func (i *Interpreter) LoadName(name string) (*Value, bool) {
	for idx := len(i.frames) - 1; idx >= 0; idx-- {
		if v, ok := i.frames[idx].LoadName(name); ok {
			return v, true
		}
		for _, sp := range i.frames[idx].SpilledValues() {
			if v, ok := sp.GetAttr(name); ok {
				return v, true
			}
		}
	}
	if i.rt != nil {
		if b, ok := i.rt.builtins[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// LoadGlobal implements LOAD_GLOBAL: restrict lookup to frame 0.
func (i *Interpreter) LoadGlobal(name string) (*Value, bool) {
	return i.frames[0].LoadName(name)
}

// LoadNonLocal implements LOAD_NONLOC: strictly between innermost and
// global.
func (i *Interpreter) LoadNonLocal(name string) (*Value, bool) {
	for idx := len(i.frames) - 2; idx >= 1; idx-- {
		if v, ok := i.frames[idx].LoadName(name); ok {
			return v, true
		}
	}
	return nil, false
}

// StoreName binds name in the innermost frame, allocating a register if
// the name is new.
func (i *Interpreter) StoreName(name string, val *Value) {
	pool := i.frames[len(i.frames)-1]
	reg, ok := pool.GetNameRegister(name)
	if !ok {
		reg = pool.GetFreeReg()
		pool.StoreName(reg, name)
	}
	pool.Store(reg, val)
}

// top returns the innermost (current) frame MemoryPool.
func (i *Interpreter) top() *MemoryPool { return i.frames[len(i.frames)-1] }

// topConst returns the innermost (current) constant pool.
func (i *Interpreter) topConst() *MemoryPool { return i.constPools[len(i.constPools)-1] }

// reg reads a register from the current frame, substituting Nil for an
// never-written slot (spec.md §4.3: "never fails; absent slot yields
// Nil").
func (i *Interpreter) reg(r opcodes.Register) *Value {
	if v := i.top().Load(r); v != nil {
		return v
	}
	return i.rt.Nil()
}

// creg reads a register from the current constant pool.
func (i *Interpreter) creg(r opcodes.Register) *Value {
	if v := i.topConst().Load(r); v != nil {
		return v
	}
	return i.rt.Nil()
}

// setReg writes a register in the current frame.
func (i *Interpreter) setReg(r opcodes.Register, v *Value) {
	i.top().Store(r, v)
}

// src1/src2 resolve an arithmetic instruction's operands against the
// constant pool or current frame per its ConstMask.
func (i *Interpreter) src1(in *opcodes.Instruction) *Value {
	if in.IsConstSrc1() {
		return i.creg(in.Src1)
	}
	return i.reg(in.Src1)
}

func (i *Interpreter) src2(in *opcodes.Instruction) *Value {
	if in.IsConstSrc2() {
		return i.creg(in.Src2)
	}
	return i.reg(in.Src2)
}

// topUnmatchedCallFrame returns the call frame awaiting a PUSH_FRAME,
// creating and pushing a fresh one if none is staged (PUSH_CALL_FRAME
// normally does this, but a defensive fallback keeps CALL robust against
// front ends that fold the two opcodes together).
func (i *Interpreter) topUnmatchedCallFrame() *CallFrame {
	if n := len(i.callFrames); n > 0 && !i.callFrames[n-1].MatchedToFrame {
		return i.callFrames[n-1]
	}
	cf := &CallFrame{}
	i.pushCallFrame(cf)
	return cf
}

// removeTopCallFrame pops cf from this Interpreter's call-frame stack if
// it is still the top entry, used when handing a CallFrame off to a
// different VM for a cross-module call.
func (i *Interpreter) removeTopCallFrame(cf *CallFrame) {
	if n := len(i.callFrames); n > 0 && i.callFrames[n-1] == cf {
		i.callFrames = i.callFrames[:n-1]
	}
}

// namedArgsOf collects a CallFrame's keyword actuals into a map, the shape
// ResolveOverload and native-function dispatch want.
func namedArgsOf(cf *CallFrame) map[string]*Value {
	var named map[string]*Value
	for _, a := range cf.Args {
		if a.Name != "" {
			if named == nil {
				named = make(map[string]*Value)
			}
			named[a.Name] = a.Value
		}
	}
	return named
}

// PushParent records class onto the transient parent list BUILD_CLASS
// consumes (spec.md §4.5: "a parent list used transiently during
// BUILD_CLASS").
func (i *Interpreter) PushParent(class *Value) {
	i.parents = append(i.parents, class)
}

// PopParents drains and returns the transient parent list.
func (i *Interpreter) PopParents() []*Value {
	out := i.parents
	i.parents = nil
	return out
}

// execReturn implements RETURN/RETURN_CONST: resolve the value, special-
// case a constructor call's "ignore the return expression, use the bound
// instance instead" rule, pop the current frame, and (if a CallFrame is
// active) route the value into the caller's return register and resume at
// its return address; a bare top-level RETURN (no active CallFrame) stops
// the Interpreter.
func (i *Interpreter) execReturn(in *opcodes.Instruction) (*Value, error) {
	var val *Value
	if in.Op == opcodes.RETURN {
		val = i.reg(in.Src1)
	} else {
		val = i.creg(in.Src1)
	}
	var cf *CallFrame
	if n := len(i.callFrames); n > 0 {
		cf = i.callFrames[n-1]
	}
	if cf != nil && cf.ConstructorCall {
		if self, ok := i.top().LoadName("this"); ok {
			val = self
		}
	}
	i.popFrame()
	if cf != nil {
		if len(i.frames) > 0 {
			i.frames[len(i.frames)-1].Store(cf.ReturnReg, val)
		}
		i.pc = cf.ReturnPC
	} else {
		i.stop = true
	}
	i.lastReturnValue = val
	return val, nil
}

// Raise implements RAISE src: unwind, per spec.md §4.5's three-step
// description, captured as an internal sentinel error that Run()
// intercepts.
type raisedError struct{ value *Value }

func (e *raisedError) Error() string { return "moss: unhandled raise" }

func (i *Interpreter) Raise(v *Value) error {
	return &raisedError{value: v}
}

// UnwrapRaise extracts the exception Value from an error Run() returned,
// for a front end (cmd/moss) that wants to print it with FormatException
// rather than just err.Error()'s placeholder text.
func UnwrapRaise(err error) (*Value, bool) {
	re, ok := err.(*raisedError)
	if !ok {
		return nil, false
	}
	return re.value, true
}

// handleRaise implements RAISE's unwind algorithm (spec.md §4.1). A catch
// anywhere in this VM always takes priority over running a finally: it is
// only once the whole frame stack has been searched and nothing catches
// the exception that the innermost active finally runs, per is_try_not_
// in_catch's first-pass behaviour in original_source/vm/interpreter.cpp
// (the finally jump there only fires once the catch search has already
// failed). The finally block's matching POP_FINALLY then "replicates the
// raise" (spec.md §4.1's "Finally" paragraph) to continue the unwind.
//
// handleRaise returns handled=true once control has been transferred to a
// catch handler or a finally block; handled=false means no handler or
// finally existed anywhere in this VM and the raise should propagate to
// the caller VM (or terminate the process, for the main VM).
func (i *Interpreter) handleRaise(exc *Value) (bool, error) {
	for fi := len(i.frames) - 1; fi >= 0; fi-- {
		pool := i.frames[fi]
		for ci := len(pool.Catches()) - 1; ci >= 0; ci-- {
			ec := pool.Catches()[ci]
			if ec.Type == nil || isTypeEqOrSubtype(exc.Type, ec.Type) {
				if i.rt != nil {
					for j := fi + 1; j < len(i.frames); j++ {
						i.rt.unwoundFuns = append(i.rt.unwoundFuns, i.frameLabel(j))
					}
				}
				i.frames = i.frames[:ec.FrameDepth]
				i.callFrames = i.callFrames[:ec.CallDepth]
				i.frames = append(i.frames, pool)
				if ec.BindName != "" {
					i.StoreName(ec.BindName, exc)
				}
				pool.PopCatch(len(pool.Catches()) - ci)
				i.pc = ec.HandlerAddr
				return true, nil
			}
		}
	}

	for fi := len(i.frames) - 1; fi >= 0; fi-- {
		pool := i.frames[fi]
		entry, ok := pool.ActiveFinally()
		if !ok {
			continue
		}
		if i.rt != nil {
			for j := fi + 1; j < len(i.frames); j++ {
				i.rt.unwoundFuns = append(i.rt.unwoundFuns, i.frameLabel(j))
			}
		}
		i.frames = i.frames[:fi+1]
		if entry.CallDepth < len(i.callFrames) {
			i.callFrames = i.callFrames[:entry.CallDepth]
		}
		i.pendingExc = exc
		i.pc = entry.Addr
		return true, nil
	}
	return false, nil
}

func (i *Interpreter) frameLabel(idx int) *Value {
	if idx < len(i.callFrames) && i.callFrames[idx].Target != nil {
		return i.callFrames[idx].Target
	}
	return i.rt.Nil()
}

// CallValue invokes fn synchronously as a runtime_call (spec.md §4.4's
// "runtime_call" flag), used for host-triggered invocations such as
// __String/__eq dispatch and converter chains rather than a CALL opcode.
// It returns the callee's return value.
func (i *Interpreter) CallValue(fn *Value, positional []*Value, named map[string]*Value) (*Value, error) {
	target := fn
	if fn.Kind == KindFunctionList {
		resolved, err := ResolveOverload(fn, positional, named)
		if err != nil {
			return nil, err
		}
		target = resolved
	}
	fd, ok := target.Data.(*functionData)
	if !ok {
		return nil, &TypeMismatchError{Message: target.Kind.String() + " is not callable"}
	}
	if fd.Native != nil {
		result, err := fd.Native(i.rt, positional, named)
		if le, ok := err.(*LibraryError); ok {
			return nil, i.Raise(i.rt.NewError(le.ClassName, le.Message))
		}
		return result, err
	}
	cf := &CallFrame{Target: target, RuntimeCall: true}
	for _, v := range positional {
		cf.Args = append(cf.Args, CallFrameArg{Value: v})
	}
	for n, v := range named {
		cf.Args = append(cf.Args, CallFrameArg{Name: n, Value: v})
	}
	callee := i
	if fd.OwnerVM != nil && fd.OwnerVM != i {
		callee = fd.OwnerVM
	}
	savedPC := callee.pc
	targetDepth := len(callee.frames) + 1
	callee.pushCallFrame(cf)
	callee.pc = fd.BodyAddr
	result, err := callee.runUntilFrameDepth(targetDepth)
	callee.pc = savedPC
	return result, err
}

// runUntilFrameDepth drives the loop until a RETURN/RETURN_CONST executes
// while the frame stack is exactly targetDepth deep — i.e. the return that
// belongs to the call this Interpreter is currently servicing, as opposed
// to some more deeply nested call's own return. Used by both CallValue
// (host-triggered calls) and execCall's cross-module branch (spec.md
// §4.5: "recursively enter that VM's loop until a matching RETURN...
// resumes the caller").
func (i *Interpreter) runUntilFrameDepth(targetDepth int) (*Value, error) {
	for !i.stop && int(i.pc) < i.bc.Len() {
		in := i.bc.At(i.pc)
		if in == nil {
			break
		}
		preDepth := len(i.frames)
		advance, err := i.step(in)
		if err != nil {
			if rerr, ok := err.(*raisedError); ok {
				handled, herr := i.handleRaise(rerr.value)
				if herr != nil {
					return nil, herr
				}
				if !handled {
					return nil, rerr
				}
				continue
			}
			return nil, err
		}
		if (in.Op == opcodes.RETURN || in.Op == opcodes.RETURN_CONST) && preDepth == targetDepth {
			return i.lastReturnValue, nil
		}
		if advance {
			i.pc++
		}
	}
	return nil, nil
}

// Output implements OUTPUT src (spec.md §4.5): Notes are buffered for
// generator dispatch at program end; everything else's __String form is
// written immediately.
func (i *Interpreter) Output(v *Value) error {
	if v.Kind == KindNote {
		i.pendingNotes = append(i.pendingNotes, v)
		if i.rt != nil {
			i.rt.AddGeneratorNote(v)
		}
		return nil
	}
	s, err := i.stringOf(v)
	if err != nil {
		return err
	}
	fmt.Fprint(i.Stdout, s)
	return nil
}

// stringOf resolves __String for Objects, else falls back to AsString.
func (i *Interpreter) stringOf(v *Value) (string, error) {
	if v.Kind == KindObject {
		if method, ok := v.GetAttr("__String"); ok && method.Kind == KindFunction {
			result, err := i.CallValue(method, []*Value{v}, nil)
			if err != nil {
				return "", err
			}
			return result.AsString(), nil
		}
	}
	return v.AsString(), nil
}
