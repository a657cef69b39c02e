package vm

import (
	"fmt"

	"github.com/moss-lang/moss/opcodes"
)

// step executes one decoded instruction. It returns advance=true when the
// PC should move to the next instruction; control-flow opcodes (JMP,
// CALL, RETURN, RAISE handling, ...) set the PC themselves and return
// false. An error of concrete type *raisedError is how RAISE and any
// host-detected failure (type mismatch, missing name, division by zero)
// propagate to the nearest handleRaise call.
func (i *Interpreter) step(in *opcodes.Instruction) (bool, error) {
	if canonical, spec, ok := in.Specialisation(); ok {
		return i.execArith(canonical, spec, in)
	}

	switch in.Op {
	case opcodes.END:
		i.stop = true
		return false, nil

	case opcodes.LOAD:
		v, ok := i.LoadName(in.Name)
		if !ok {
			return false, i.Raise(i.rt.NewError("NameError", "name "+in.Name+" is not defined"))
		}
		i.setReg(in.Dst, v)
		return true, nil

	case opcodes.LOAD_ATTR:
		obj := i.reg(in.Src1)
		v, ok := obj.GetAttr(in.Name)
		if !ok {
			return false, i.Raise(i.rt.NewError("AttributeError", obj.Kind.String()+" has no attribute "+in.Name))
		}
		i.setReg(in.Dst, v)
		return true, nil

	case opcodes.LOAD_GLOBAL:
		v, ok := i.LoadGlobal(in.Name)
		if !ok {
			return false, i.Raise(i.rt.NewError("NameError", "name "+in.Name+" is not defined"))
		}
		i.setReg(in.Dst, v)
		return true, nil

	case opcodes.LOAD_NONLOC:
		v, ok := i.LoadNonLocal(in.Name)
		if !ok {
			return false, i.Raise(i.rt.NewError("NameError", "name "+in.Name+" is not defined"))
		}
		i.setReg(in.Dst, v)
		return true, nil

	case opcodes.STORE:
		i.setReg(in.Dst, i.reg(in.Src1))
		return true, nil

	case opcodes.STORE_NAME:
		i.top().StoreName(in.Dst, in.Name)
		return true, nil

	case opcodes.STORE_CONST:
		i.setReg(in.Dst, i.creg(in.Src1))
		return true, nil

	case opcodes.STORE_ATTR:
		i.reg(in.Src2).SetAttr(in.Name, i.reg(in.Src1))
		return true, nil

	case opcodes.STORE_CONST_ATTR:
		i.reg(in.Src2).SetAttr(in.Name, i.creg(in.Src1))
		return true, nil

	case opcodes.STORE_GLOBAL:
		i.bindGlobal(in.Name, i.reg(in.Src1))
		return true, nil

	case opcodes.STORE_NONLOC:
		if !i.overwriteNonLocal(in.Name, i.reg(in.Src1)) {
			return false, i.Raise(i.rt.NewError("NameError", "name "+in.Name+" is not defined"))
		}
		return true, nil

	case opcodes.STORE_SUBSC:
		return true, i.execStoreSubsc(i.reg(in.Src2), i.reg(in.Src3), i.reg(in.Src1))
	case opcodes.STORE_CONST_SUBSC:
		return true, i.execStoreSubsc(i.reg(in.Src2), i.reg(in.Src3), i.creg(in.Src1))
	case opcodes.STORE_SUBSC_CONST:
		return true, i.execStoreSubsc(i.reg(in.Src2), i.creg(in.Src3), i.reg(in.Src1))
	case opcodes.STORE_C_SUBSC_C:
		return true, i.execStoreSubsc(i.reg(in.Src2), i.creg(in.Src3), i.creg(in.Src1))

	case opcodes.STORE_INT_CONST:
		i.topConst().Store(in.Dst, i.rt.Int(in.IntLit))
		return true, nil
	case opcodes.STORE_FLOAT_CONST:
		i.topConst().Store(in.Dst, i.rt.Float(in.FloatLit))
		return true, nil
	case opcodes.STORE_BOOL_CONST:
		i.topConst().Store(in.Dst, i.rt.Bool(in.BoolLit))
		return true, nil
	case opcodes.STORE_STRING_CONST:
		i.topConst().Store(in.Dst, i.rt.NewString(in.StringLit))
		return true, nil
	case opcodes.STORE_NIL_CONST:
		i.topConst().Store(in.Dst, i.rt.Nil())
		return true, nil

	case opcodes.JMP:
		i.pc = in.Addr
		return false, nil
	case opcodes.JMP_IF_TRUE:
		if i.reg(in.Src1).Truthy() {
			i.pc = in.Addr
			return false, nil
		}
		return true, nil
	case opcodes.JMP_IF_FALSE:
		if !i.reg(in.Src1).Truthy() {
			i.pc = in.Addr
			return false, nil
		}
		return true, nil

	case opcodes.RETURN, opcodes.RETURN_CONST:
		_, err := i.execReturn(in)
		return false, err

	case opcodes.CALL:
		return i.execCall(in)
	case opcodes.CALL_FORMATTER:
		result, err := i.RunFormatter(i.reg(in.Src1), in.Name)
		if err != nil {
			return false, i.Raise(i.rt.NewError("ValueError", err.Error()))
		}
		i.setReg(in.Dst, result)
		return true, nil
	case opcodes.PUSH_FRAME:
		return true, i.pushFrame()
	case opcodes.POP_FRAME:
		i.popFrame()
		return true, nil
	case opcodes.PUSH_CALL_FRAME:
		i.pushCallFrame(&CallFrame{})
		return true, nil
	case opcodes.POP_CALL_FRAME:
		i.popCallFrame()
		return true, nil
	case opcodes.PUSH_ARG:
		i.appendArg(CallFrameArg{Value: i.reg(in.Src1)})
		return true, nil
	case opcodes.PUSH_CONST_ARG:
		i.appendArg(CallFrameArg{Value: i.creg(in.Src1)})
		return true, nil
	case opcodes.PUSH_NAMED_ARG:
		i.appendArg(CallFrameArg{Name: in.Name, Value: i.reg(in.Src1)})
		return true, nil
	case opcodes.PUSH_UNPACKED:
		return true, i.execPushUnpacked(i.reg(in.Src1))

	case opcodes.CREATE_FUN:
		i.execCreateFun(in)
		return true, nil
	case opcodes.FUN_BEGIN:
		i.reg(in.Dst).Data.(*functionData).BodyAddr = in.Addr
		return true, nil
	case opcodes.SET_DEFAULT:
		i.setArgField(in.Dst, in.ArgIndex, func(a *funcArg) { a.Default = i.reg(in.Src1) })
		return true, nil
	case opcodes.SET_DEFAULT_CONST:
		i.setArgField(in.Dst, in.ArgIndex, func(a *funcArg) { a.Default = i.creg(in.Src1) })
		return true, nil
	case opcodes.SET_TYPE:
		i.setArgField(in.Dst, in.ArgIndex, func(a *funcArg) { a.Types = append(a.Types, i.reg(in.Src1)) })
		return true, nil
	case opcodes.SET_VARARG:
		i.setArgField(in.Dst, in.ArgIndex, func(a *funcArg) { a.Vararg = true })
		return true, nil

	case opcodes.IMPORT:
		return true, i.execImport(in)
	case opcodes.IMPORT_ALL:
		i.top().PushSpilledValue(i.reg(in.Src1))
		return true, nil
	case opcodes.PUSH_PARENT:
		i.PushParent(i.reg(in.Src1))
		return true, nil
	case opcodes.BUILD_CLASS:
		i.execBuildClass(in)
		return true, nil

	case opcodes.ANNOTATE:
		i.annotate(i.reg(in.Dst), in.Name, i.reg(in.Src1))
		return true, nil
	case opcodes.ANNOTATE_MOD:
		if i.Module != nil {
			i.annotate(i.Module, in.Name, i.reg(in.Src1))
		}
		return true, nil
	case opcodes.DOCUMENT:
		i.reg(in.Dst).Annotations = withAnnotation(i.reg(in.Dst).Annotations, "__doc__", i.rt.NewString(in.StringLit))
		return true, nil

	case opcodes.OUTPUT:
		src := i.reg(in.Src1)
		if in.Silent {
			return true, nil
		}
		return true, i.Output(src)

	case opcodes.NOT:
		i.setReg(in.Dst, i.rt.Bool(!i.reg(in.Src1).Truthy()))
		return true, nil
	case opcodes.NEG:
		return true, i.execNeg(in)

	case opcodes.ASSERT:
		if !i.reg(in.Src1).Truthy() {
			return false, i.Raise(i.rt.NewError("AssertionError", i.reg(in.Src2).AsString()))
		}
		return true, nil

	case opcodes.RAISE:
		return false, i.Raise(i.reg(in.Src1))
	case opcodes.CATCH:
		i.top().PushCatch(&ExceptionCatch{BindName: in.Name, HandlerAddr: in.Addr, FrameDepth: len(i.frames) - 1, CallDepth: len(i.callFrames)})
		return true, nil
	case opcodes.CATCH_TYPED:
		typ, _ := i.LoadName(in.TypeName)
		i.top().PushCatch(&ExceptionCatch{Type: typ, BindName: in.Name, HandlerAddr: in.Addr, FrameDepth: len(i.frames) - 1, CallDepth: len(i.callFrames)})
		return true, nil
	case opcodes.POP_CATCH:
		i.top().PopCatch(1)
		return true, nil

	case opcodes.PUSH_FINALLY_STACK:
		i.top().PushFinallyStack()
		return true, nil
	case opcodes.PUSH_FINALLY:
		i.top().PushFinally(in.Addr, len(i.callFrames))
		return true, nil
	case opcodes.POP_FINALLY:
		i.top().PopFinally()
		if i.pendingExc != nil {
			exc := i.pendingExc
			i.pendingExc = nil
			return false, i.Raise(exc)
		}
		return true, nil
	case opcodes.POP_FINALLY_STACK:
		i.top().PopFinallyStack()
		return true, nil

	case opcodes.LIST_PUSH:
		ListPush(i.reg(in.Dst), i.reg(in.Src1))
		return true, nil
	case opcodes.LIST_PUSH_CONST:
		ListPush(i.reg(in.Dst), i.creg(in.Src1))
		return true, nil
	case opcodes.BUILD_LIST:
		i.setReg(in.Dst, i.rt.NewList(nil))
		return true, nil
	case opcodes.BUILD_DICT:
		return true, i.execBuildDict(in)
	case opcodes.BUILD_ENUM:
		return true, i.execBuildEnum(in)
	case opcodes.BUILD_SPACE:
		i.setReg(in.Dst, i.rt.NewSpace(in.Name, i.Module))
		return true, nil

	case opcodes.CREATE_RANGE, opcodes.CREATE_RANGE2, opcodes.CREATE_RANGE3,
		opcodes.CREATE_RANGE4, opcodes.CREATE_RANGE5, opcodes.CREATE_RANGE6,
		opcodes.CREATE_RANGE7, opcodes.CREATE_RANGE8:
		i.execCreateRange(in)
		return true, nil

	case opcodes.SWITCH:
		return i.execSwitch(in)
	case opcodes.FOR:
		return i.execFor(in)
	case opcodes.FOR_MULTI:
		return i.execForMulti(in)
	case opcodes.ITER:
		it, err := i.rt.Iter(i.reg(in.Src1))
		if err != nil {
			return false, i.Raise(i.rt.NewError("TypeError", err.Error()))
		}
		i.setReg(in.Dst, it)
		return true, nil

	case opcodes.SUBSCLAST:
		i.setReg(in.Dst, i.rt.NewList(ListTail(i.reg(in.Src1))))
		return true, nil
	case opcodes.SUBSCREST:
		n := int(i.reg(in.Src2).Data.(int64))
		i.setReg(in.Dst, i.rt.NewList(ListRest(i.reg(in.Src1), n)))
		return true, nil
	}

	// Every valid opcode is handled above; reaching here means the decoder
	// produced a tag step doesn't know, which spec.md §7 treats as a fatal
	// invariant violation rather than a recoverable user-level error.
	panic(fmt.Sprintf("vm: step: unhandled opcode %s", in.Op))
}

func withAnnotation(m map[string]*Value, k string, v *Value) map[string]*Value {
	if m == nil {
		m = make(map[string]*Value)
	}
	m[k] = v
	return m
}
