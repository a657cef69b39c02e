package vm

import "github.com/moss-lang/moss/opcodes"

// execBuildDict implements BUILD_DICT %dst,%keys,%vals: zip two
// already-built Lists (the front end emits BUILD_LIST+LIST_PUSH sequences
// for each side) into a Dict, per spec.md §3's key/value bucket model.
func (i *Interpreter) execBuildDict(in *opcodes.Instruction) error {
	keys := i.reg(in.Src1).Data.([]*Value)
	vals := i.reg(in.Src2).Data.([]*Value)
	d := i.rt.NewDict()
	n := len(keys)
	if len(vals) < n {
		n = len(vals)
	}
	for idx := 0; idx < n; idx++ {
		if err := d.Data.(*dictData).Set(i, keys[idx], vals[idx]); err != nil {
			return i.Raise(i.rt.NewError("TypeError", err.Error()))
		}
	}
	i.setReg(in.Dst, d)
	return nil
}

// execBuildEnum implements BUILD_ENUM %dst,%vals,"name": vals is a List of
// String value names, built the same way BUILD_DICT's sides are.
func (i *Interpreter) execBuildEnum(in *opcodes.Instruction) error {
	list := i.reg(in.Src1).Data.([]*Value)
	names := make([]string, 0, len(list))
	for _, v := range list {
		if v.Kind != KindString {
			return i.Raise(i.rt.NewError("TypeError", "enum value name must be a String"))
		}
		names = append(names, v.Data.(string))
	}
	i.setReg(in.Dst, i.rt.NewEnumType(in.Name, names))
	return nil
}

// execCreateRange implements the eight CREATE_RANGE specialisations
// (opcode.go: %dst, start, step, end with each of the three independently
// const-or-register).
func (i *Interpreter) execCreateRange(in *opcodes.Instruction) {
	asInt := func(v *Value) int64 { return v.Data.(int64) }
	var start, step, end int64
	switch in.Op {
	case opcodes.CREATE_RANGE:
		start, step, end = asInt(i.reg(in.Src1)), asInt(i.reg(in.Src2)), asInt(i.reg(in.Src3))
	case opcodes.CREATE_RANGE2:
		start, step, end = asInt(i.creg(in.Src1)), asInt(i.reg(in.Src2)), asInt(i.reg(in.Src3))
	case opcodes.CREATE_RANGE3:
		start, step, end = asInt(i.reg(in.Src1)), asInt(i.creg(in.Src2)), asInt(i.reg(in.Src3))
	case opcodes.CREATE_RANGE4:
		start, step, end = asInt(i.reg(in.Src1)), asInt(i.reg(in.Src2)), asInt(i.creg(in.Src3))
	case opcodes.CREATE_RANGE5:
		start, step, end = asInt(i.creg(in.Src1)), asInt(i.creg(in.Src2)), asInt(i.reg(in.Src3))
	case opcodes.CREATE_RANGE6:
		start, step, end = asInt(i.creg(in.Src1)), asInt(i.reg(in.Src2)), asInt(i.creg(in.Src3))
	case opcodes.CREATE_RANGE7:
		start, step, end = asInt(i.reg(in.Src1)), asInt(i.creg(in.Src2)), asInt(i.creg(in.Src3))
	case opcodes.CREATE_RANGE8:
		start, step, end = asInt(i.creg(in.Src1)), asInt(i.creg(in.Src2)), asInt(i.creg(in.Src3))
	}
	i.setReg(in.Dst, i.rt.NewRange(start, end, step))
}

// execSwitch implements SWITCH %src,%listvals,%listaddr,addr_default:
// compare src against each case value in turn (by Equal) and jump to the
// matching target, or the default address if none match.
func (i *Interpreter) execSwitch(in *opcodes.Instruction) (bool, error) {
	src := i.reg(in.Src1)
	for idx, caseReg := range in.SwitchVals {
		caseVal := i.reg(caseReg)
		eq, err := Equal(i, src, caseVal)
		if err != nil {
			return false, i.Raise(i.rt.NewError("TypeError", err.Error()))
		}
		if eq {
			i.pc = in.SwitchAddrs[idx]
			return false, nil
		}
	}
	i.pc = in.SwitchDefault
	return false, nil
}

// execFor implements FOR %index,%iterator,addr: advance the Iterator in
// Src1, storing the next element in Dst, or jump to addr on exhaustion
// (spec.md §4.2's StopIteration convention). Object iterators (source ==
// iterObject) delegate to the instance's user-defined __next method, the
// one case iteratorData.Next cannot service without a call.
func (i *Interpreter) execFor(in *opcodes.Instruction) (bool, error) {
	itv := i.reg(in.Src1)
	it, ok := itv.Data.(*iteratorData)
	if !ok {
		return false, i.Raise(i.rt.NewError("TypeError", "FOR target is not an Iterator"))
	}
	if it.source == iterObject {
		next, found := it.src.GetAttr("__next")
		if !found {
			return false, i.Raise(i.rt.NewError("TypeError", "object has no __next method"))
		}
		v, err := i.CallValue(next, nil, nil)
		if err != nil {
			if exc, ok := asRaised(err); ok && isStopIteration(i, exc) {
				i.pc = in.Addr
				return false, nil
			}
			return false, err
		}
		i.setReg(in.Dst, v)
		return true, nil
	}

	v, err := it.Next(i.rt)
	if err == ErrStopIteration {
		i.pc = in.Addr
		return false, nil
	}
	if err != nil {
		return false, i.Raise(i.rt.NewError("ValueError", err.Error()))
	}
	i.setReg(in.Dst, v)
	return true, nil
}

// execForMulti implements FOR_MULTI: like execFor, but the yielded element
// is itself a List unpacked across several destination registers (a `for
// k, v in dict` style loop).
func (i *Interpreter) execForMulti(in *opcodes.Instruction) (bool, error) {
	itv := i.reg(in.Src1)
	it, ok := itv.Data.(*iteratorData)
	if !ok {
		return false, i.Raise(i.rt.NewError("TypeError", "FOR_MULTI target is not an Iterator"))
	}
	v, err := it.Next(i.rt)
	if err == ErrStopIteration {
		i.pc = in.Addr
		return false, nil
	}
	if err != nil {
		return false, i.Raise(i.rt.NewError("ValueError", err.Error()))
	}
	elems, ok := v.Data.([]*Value)
	if !ok {
		return false, i.Raise(i.rt.NewError("ValueError", "iterated value cannot be unpacked"))
	}
	for idx, dst := range in.Vals {
		if idx < len(elems) {
			i.setReg(dst, elems[idx])
		} else {
			i.setReg(dst, i.rt.Nil())
		}
	}
	return true, nil
}

// asRaised unwraps a *raisedError, the internal sentinel RAISE/Raise
// propagate as a Go error.
func asRaised(err error) (*Value, bool) {
	re, ok := err.(*raisedError)
	if !ok {
		return nil, false
	}
	return re.value, true
}

func isStopIteration(i *Interpreter, exc *Value) bool {
	want, ok := i.rt.builtins["StopIteration"]
	if !ok {
		return false
	}
	return exc.Kind == KindObject && exc.Type == want
}
