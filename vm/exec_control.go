package vm

import (
	"strings"

	"github.com/moss-lang/moss/opcodes"
)

// bindGlobal implements STORE_GLOBAL: always binds in frame 0, regardless
// of how deeply nested the current frame is.
func (i *Interpreter) bindGlobal(name string, val *Value) {
	pool := i.frames[0]
	reg, ok := pool.GetNameRegister(name)
	if !ok {
		reg = pool.GetFreeReg()
		pool.StoreName(reg, name)
	}
	pool.Store(reg, val)
}

// overwriteNonLocal implements STORE_NONLOC: rebinds an existing name in
// the nearest enclosing frame (strictly between innermost and global)
// without allocating a new register, per spec.md §4.3 "overwrite(name,val)
// ... used by STORE_NONLOC".
func (i *Interpreter) overwriteNonLocal(name string, val *Value) bool {
	for idx := len(i.frames) - 2; idx >= 1; idx-- {
		if i.frames[idx].Overwrite(name, val) {
			return true
		}
	}
	return false
}

// appendArg adds one actual to the call frame awaiting PUSH_FRAME.
func (i *Interpreter) appendArg(arg CallFrameArg) {
	cf := i.topUnmatchedCallFrame()
	cf.Args = append(cf.Args, arg)
}

// execPushUnpacked implements PUSH_UNPACKED: spread a List's elements as
// successive positional actuals (the `f(*args)` call-site form).
func (i *Interpreter) execPushUnpacked(v *Value) error {
	if v.Kind != KindList {
		return i.Raise(i.rt.NewError("TypeError", "spread argument must be a List"))
	}
	cf := i.topUnmatchedCallFrame()
	for _, e := range v.Data.([]*Value) {
		cf.Args = append(cf.Args, CallFrameArg{Value: e})
	}
	return nil
}

// execCreateFun implements CREATE_FUN: allocate a Function value and parse
// its formal-argument descriptor, a comma-separated list of names
// optionally prefixed `*` (positional vararg) or `**` (named vararg).
func (i *Interpreter) execCreateFun(in *opcodes.Instruction) {
	fn := i.rt.NewFunction(in.Name, i)
	fd := fn.Data.(*functionData)
	if in.ArgSpec != "" {
		for _, part := range strings.Split(in.ArgSpec, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			a := &funcArg{}
			switch {
			case strings.HasPrefix(part, "**"):
				a.KwVararg = true
				a.Name = strings.TrimPrefix(part, "**")
			case strings.HasPrefix(part, "*"):
				a.Vararg = true
				a.Name = strings.TrimPrefix(part, "*")
			default:
				a.Name = part
			}
			fd.Args = append(fd.Args, a)
		}
	}
	i.setReg(in.Dst, fn)
}

// setArgField mutates the idx'th formal argument of the Function in
// register dst, growing Args as needed (SET_DEFAULT/SET_DEFAULT_CONST/
// SET_TYPE/SET_VARARG all index an argument codegen already counted, so
// growth here is defensive rather than expected in well-formed bytecode).
func (i *Interpreter) setArgField(dst opcodes.Register, idx int, mutate func(*funcArg)) {
	fd := i.reg(dst).Data.(*functionData)
	for len(fd.Args) <= idx {
		fd.Args = append(fd.Args, &funcArg{})
	}
	mutate(fd.Args[idx])
}

// execImport implements IMPORT: resolve a module by name through the
// externally supplied ModuleLoader (the bytecode-container/compiler
// pipeline is, per spec.md §1, "an external collaborator" outside this
// core) and bind it.
func (i *Interpreter) execImport(in *opcodes.Instruction) error {
	if i.rt.ModuleLoader == nil {
		return i.Raise(i.rt.NewError("ModuleNotFoundError", "no module loader configured"))
	}
	mod, err := i.rt.ModuleLoader(i.rt, in.Name)
	if err != nil {
		return i.Raise(i.rt.NewError("ModuleNotFoundError", err.Error()))
	}
	i.setReg(in.Dst, mod)
	return nil
}

// execBuildClass implements BUILD_CLASS: construct a Class from the
// transient parent list BUILD_CLASS's preceding PUSH_PARENT instructions
// accumulated, per spec.md §4.5.
func (i *Interpreter) execBuildClass(in *opcodes.Instruction) {
	class := i.rt.NewClass(in.Name)
	class.Data.(*classData).Supers = i.PopParents()
	i.setReg(in.Dst, class)
}

// annotate implements ANNOTATE/ANNOTATE_MOD: well-known annotation names
// feed the converter/generator registries and the static-method flag;
// anything else is recorded generically on the target's Annotations map
// (spec.md §4.5 "Converters and generators").
func (i *Interpreter) annotate(target *Value, name string, val *Value) {
	switch name {
	case "converter":
		if val.Kind == KindList {
			elems := val.Data.([]*Value)
			if len(elems) == 2 && elems[0].Kind == KindString && elems[1].Kind == KindString {
				i.rt.AddConverter(elems[0].Data.(string), elems[1].Data.(string), target)
			}
		}
	case "generator":
		if val.Kind == KindString {
			i.rt.AddGenerator(val.Data.(string), target)
		}
	case "static_method":
		if fd, ok := target.Data.(*functionData); ok {
			fd.Static = true
		}
	}
	target.Annotations = withAnnotation(target.Annotations, name, val)
}

// execCall implements CALL dst,src (spec.md §4.5 "Calls"): resolve the
// callee, finalise the staged CallFrame, and either jump locally or drive
// a cross-module call's VM synchronously to completion.
func (i *Interpreter) execCall(in *opcodes.Instruction) (bool, error) {
	calleeVal := i.reg(in.Src1)
	cf := i.topUnmatchedCallFrame()
	cf.ReturnReg = in.Dst
	cf.ReturnPC = i.pc + 1

	target := calleeVal
	switch calleeVal.Kind {
	case KindFunctionList:
		resolved, err := ResolveOverload(calleeVal, cf.Positional(), namedArgsOf(cf))
		if err != nil {
			return false, i.Raise(i.rt.NewError("TypeError", err.Error()))
		}
		target = resolved
	case KindClass:
		obj := i.rt.NewObject(calleeVal)
		cf.ConstructorCall = true
		if init, ok := calleeVal.GetAttr("init"); ok && init.Kind == KindFunction {
			cf.Args = append([]CallFrameArg{{Name: "this", Value: obj}}, cf.Args...)
			target = init
		} else {
			i.removeTopCallFrame(cf)
			i.setReg(in.Dst, obj)
			return true, nil
		}
	case KindFunction:
		// target already calleeVal
	default:
		return false, i.Raise(i.rt.NewError("TypeError", calleeVal.Kind.String()+" is not callable"))
	}
	cf.Target = target

	fd, ok := target.Data.(*functionData)
	if !ok {
		return false, i.Raise(i.rt.NewError("TypeError", "value is not callable"))
	}

	if fd.Native != nil {
		i.removeTopCallFrame(cf)
		result, err := fd.Native(i.rt, cf.Positional(), namedArgsOf(cf))
		if err != nil {
			if le, ok := err.(*LibraryError); ok {
				return false, i.Raise(i.rt.NewError(le.ClassName, le.Message))
			}
			return false, i.Raise(i.rt.NewError("TypeError", err.Error()))
		}
		i.setReg(in.Dst, result)
		return true, nil
	}

	if fd.OwnerVM != nil && fd.OwnerVM != i {
		cf.ExternModuleCall = true
		callee := fd.OwnerVM
		i.removeTopCallFrame(cf)
		targetDepth := len(callee.frames) + 1
		callee.pushCallFrame(cf)
		savedPC := callee.pc
		callee.pc = fd.BodyAddr
		result, err := callee.runUntilFrameDepth(targetDepth)
		callee.pc = savedPC
		if err != nil {
			return false, err
		}
		i.setReg(in.Dst, result)
		return true, nil
	}

	i.pc = fd.BodyAddr
	return false, nil
}
