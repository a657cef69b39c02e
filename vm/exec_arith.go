package vm

import (
	"math"

	"github.com/moss-lang/moss/opcodes"
)

// execArith implements the eighteen canonical binary operators across
// their three operand-source specialisations (spec.md §4.1 "Three-operand
// arithmetic is specialised into ... OP, OP2 (lhs constant), and OP3 (rhs
// constant)"). spec selects which operand, if either, comes from the
// constant pool; the arithmetic itself is identical across all three
// forms.
func (i *Interpreter) execArith(canonical opcodes.Opcode, spec int, in *opcodes.Instruction) (bool, error) {
	var a, b *Value
	switch spec {
	case 0:
		a, b = i.reg(in.Src1), i.reg(in.Src2)
	case 1:
		a, b = i.creg(in.Src1), i.reg(in.Src2)
	case 2:
		a, b = i.reg(in.Src1), i.creg(in.Src2)
	}

	if a.Kind == KindObject || b.Kind == KindObject {
		if result, handled, err := i.tryObjectOperator(canonical, a, b); handled {
			if err != nil {
				return false, i.wrapErr(err)
			}
			i.setReg(in.Dst, result)
			return true, nil
		}
	}

	switch canonical {
	case opcodes.CONCAT:
		return i.execConcat(in.Dst, a, b)
	case opcodes.EXP:
		return i.execNumeric(in.Dst, a, b, func(x, y float64) float64 { return math.Pow(x, y) },
			func(x, y int64) (int64, bool) {
				if y < 0 {
					return 0, false
				}
				return intPow(x, y), true
			})
	case opcodes.ADD:
		return i.execNumeric(in.Dst, a, b, func(x, y float64) float64 { return x + y },
			func(x, y int64) (int64, bool) { return x + y, true })
	case opcodes.SUB:
		return i.execNumeric(in.Dst, a, b, func(x, y float64) float64 { return x - y },
			func(x, y int64) (int64, bool) { return x - y, true })
	case opcodes.MUL:
		return i.execNumeric(in.Dst, a, b, func(x, y float64) float64 { return x * y },
			func(x, y int64) (int64, bool) { return x * y, true })
	case opcodes.DIV:
		return i.execDiv(in.Dst, a, b)
	case opcodes.MOD:
		return i.execMod(in.Dst, a, b)
	case opcodes.EQ:
		eq, err := Equal(i, a, b)
		if err != nil {
			return false, i.wrapErr(err)
		}
		i.setReg(in.Dst, i.rt.Bool(eq))
		return true, nil
	case opcodes.NEQ:
		eq, err := Equal(i, a, b)
		if err != nil {
			return false, i.wrapErr(err)
		}
		i.setReg(in.Dst, i.rt.Bool(!eq))
		return true, nil
	case opcodes.BT:
		return i.execCompare(in.Dst, a, b, func(c int) bool { return c > 0 })
	case opcodes.LT:
		return i.execCompare(in.Dst, a, b, func(c int) bool { return c < 0 })
	case opcodes.BEQ:
		return i.execCompare(in.Dst, a, b, func(c int) bool { return c >= 0 })
	case opcodes.LEQ:
		return i.execCompare(in.Dst, a, b, func(c int) bool { return c <= 0 })
	case opcodes.IN:
		return i.execIn(in.Dst, a, b)
	case opcodes.AND:
		return i.execBitwiseOrLogical(in.Dst, a, b, func(x, y bool) bool { return x && y }, func(x, y int64) int64 { return x & y })
	case opcodes.OR:
		return i.execBitwiseOrLogical(in.Dst, a, b, func(x, y bool) bool { return x || y }, func(x, y int64) int64 { return x | y })
	case opcodes.XOR:
		return i.execBitwiseOrLogical(in.Dst, a, b, func(x, y bool) bool { return x != y }, func(x, y int64) int64 { return x ^ y })
	case opcodes.SUBSC:
		return i.execSubsc(in.Dst, a, b)
	}
	return true, nil
}

// opMethodNames maps a canonical arithmetic/relational/membership opcode
// to the `__op` method name spec.md §4.2 "Polymorphic arithmetic" resolves
// against an Object operand. EQ/NEQ are deliberately absent: those go
// through Equal/objectEqual's own `__eq` lookup instead, so this map only
// ever matches the operators that don't already have a dedicated path.
var opMethodNames = map[opcodes.Opcode]string{
	opcodes.CONCAT: "concat",
	opcodes.EXP:    "exp",
	opcodes.ADD:    "add",
	opcodes.SUB:    "sub",
	opcodes.DIV:    "div",
	opcodes.MUL:    "mul",
	opcodes.MOD:    "mod",
	opcodes.BT:     "bt",
	opcodes.LT:     "lt",
	opcodes.BEQ:    "beq",
	opcodes.LEQ:    "leq",
	opcodes.IN:     "in",
	opcodes.SUBSC:  "subsc",
	opcodes.AND:    "and",
	opcodes.OR:     "or",
	opcodes.XOR:    "xor",
}

// tryObjectOperator implements spec.md §4.2's "for a OP b with at least
// one Object operand, resolve __op on the object ... if b is the Object
// and a is not, __rop is consulted; missing overloads raise TypeError".
// handled is false for an operator this map doesn't cover (letting the
// caller's kind-specific path run unchanged); handled is true whenever at
// least one operand is an Object and the operator is coverable, whether or
// not an overload was actually found (a missing overload is itself the
// TypeError result, not a fallthrough to numeric/string handling).
func (i *Interpreter) tryObjectOperator(canonical opcodes.Opcode, a, b *Value) (result *Value, handled bool, err error) {
	name, ok := opMethodNames[canonical]
	if !ok {
		return nil, false, nil
	}
	if a.Kind == KindObject {
		if m, ok := a.GetAttr("__" + name); ok && m.Kind == KindFunction {
			result, err = i.CallValue(m, []*Value{a, b}, nil)
			return result, true, err
		}
	}
	if b.Kind == KindObject {
		if m, ok := b.GetAttr("__r" + name); ok && m.Kind == KindFunction {
			result, err = i.CallValue(m, []*Value{b, a}, nil)
			return result, true, err
		}
	}
	return nil, true, &TypeMismatchError{Message: "no __" + name + " overload for " + a.Kind.String() + " and " + b.Kind.String()}
}

func (i *Interpreter) wrapErr(err error) error {
	if _, ok := err.(*TypeMismatchError); ok {
		return i.Raise(i.rt.NewError("TypeError", err.Error()))
	}
	return i.Raise(i.rt.NewError("ValueError", err.Error()))
}

func intPow(base, exp int64) int64 {
	var result int64 = 1
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

// execNumeric dispatches Int+Int to intOp (producing an Int result) and
// anything else with a numeric AsFloat conversion to floatOp (producing a
// Float result), matching spec.md §8's worked example where ADD %5,%4,%1
// keeps the Float contagion from an earlier EXP.
func (i *Interpreter) execNumeric(dst opcodes.Register, a, b *Value, floatOp func(x, y float64) float64, intOp func(x, y int64) (int64, bool)) (bool, error) {
	if a.Kind == KindInt && b.Kind == KindInt {
		if r, ok := intOp(a.Data.(int64), b.Data.(int64)); ok {
			i.setReg(dst, i.rt.Int(r))
			return true, nil
		}
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return false, i.Raise(i.rt.NewError("TypeError", "unsupported operand types for arithmetic"))
	}
	i.setReg(dst, i.rt.Float(floatOp(af, bf)))
	return true, nil
}

func (i *Interpreter) execDiv(dst opcodes.Register, a, b *Value) (bool, error) {
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return false, i.Raise(i.rt.NewError("TypeError", "unsupported operand types for /"))
	}
	if bf == 0 {
		return false, i.Raise(i.rt.NewError("DivisionByZeroError", "division by zero"))
	}
	i.setReg(dst, i.rt.Float(af/bf))
	return true, nil
}

func (i *Interpreter) execMod(dst opcodes.Register, a, b *Value) (bool, error) {
	if a.Kind == KindInt && b.Kind == KindInt {
		bv := b.Data.(int64)
		if bv == 0 {
			return false, i.Raise(i.rt.NewError("DivisionByZeroError", "modulo by zero"))
		}
		i.setReg(dst, i.rt.Int(a.Data.(int64)%bv))
		return true, nil
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return false, i.Raise(i.rt.NewError("TypeError", "unsupported operand types for %"))
	}
	if bf == 0 {
		return false, i.Raise(i.rt.NewError("DivisionByZeroError", "modulo by zero"))
	}
	i.setReg(dst, i.rt.Float(math.Mod(af, bf)))
	return true, nil
}

func (i *Interpreter) execConcat(dst opcodes.Register, a, b *Value) (bool, error) {
	switch {
	case a.Kind == KindString && b.Kind == KindString:
		i.setReg(dst, i.rt.NewString(a.Data.(string)+b.Data.(string)))
	case a.Kind == KindBytes && b.Kind == KindBytes:
		out := append(append([]byte{}, a.Data.([]byte)...), b.Data.([]byte)...)
		i.setReg(dst, i.rt.NewBytes(out))
	case a.Kind == KindList && b.Kind == KindList:
		out := append(append([]*Value{}, a.Data.([]*Value)...), b.Data.([]*Value)...)
		i.setReg(dst, i.rt.NewList(out))
	case a.Kind == KindString:
		s, err := i.stringOf(b)
		if err != nil {
			return false, err
		}
		i.setReg(dst, i.rt.NewString(a.Data.(string)+s))
	case b.Kind == KindString:
		s, err := i.stringOf(a)
		if err != nil {
			return false, err
		}
		i.setReg(dst, i.rt.NewString(s+b.Data.(string)))
	default:
		return false, i.Raise(i.rt.NewError("TypeError", "unsupported operand types for concat"))
	}
	return true, nil
}

// compareKey returns -1/0/1 for ordered kinds; ok=false if a,b are not
// comparable to each other.
func compareKey(a, b *Value) (int, bool) {
	if af, aok := a.AsFloat(); aok {
		if bf, bok := b.AsFloat(); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if a.Kind == KindString && b.Kind == KindString {
		as, bs := a.Data.(string), b.Data.(string)
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func (i *Interpreter) execCompare(dst opcodes.Register, a, b *Value, accept func(int) bool) (bool, error) {
	c, ok := compareKey(a, b)
	if !ok {
		return false, i.Raise(i.rt.NewError("TypeError", "values are not comparable"))
	}
	i.setReg(dst, i.rt.Bool(accept(c)))
	return true, nil
}

func (i *Interpreter) execIn(dst opcodes.Register, needle, haystack *Value) (bool, error) {
	switch haystack.Kind {
	case KindList:
		for _, e := range haystack.Data.([]*Value) {
			eq, err := Equal(i, needle, e)
			if err != nil {
				return false, i.wrapErr(err)
			}
			if eq {
				i.setReg(dst, i.rt.Bool(true))
				return true, nil
			}
		}
		i.setReg(dst, i.rt.Bool(false))
		return true, nil
	case KindDict:
		_, found, err := haystack.Data.(*dictData).Get(i, needle)
		if err != nil {
			return false, i.wrapErr(err)
		}
		i.setReg(dst, i.rt.Bool(found))
		return true, nil
	case KindString:
		if needle.Kind != KindString {
			return false, i.Raise(i.rt.NewError("TypeError", "IN on String requires a String"))
		}
		i.setReg(dst, i.rt.Bool(stringContains(haystack.Data.(string), needle.Data.(string))))
		return true, nil
	case KindRange:
		nf, ok := needle.AsFloat()
		if !ok {
			return false, i.Raise(i.rt.NewError("TypeError", "IN on Range requires a number"))
		}
		rd := haystack.Data.(*rangeData)
		i.setReg(dst, i.rt.Bool(rangeContains(rd, int64(nf))))
		return true, nil
	default:
		return false, i.Raise(i.rt.NewError("TypeError", haystack.Kind.String()+" does not support IN"))
	}
}

func stringContains(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func rangeContains(rd *rangeData, v int64) bool {
	if rd.Step > 0 {
		return v >= rd.Start && v < rd.End && (v-rd.Start)%rd.Step == 0
	}
	if rd.Step < 0 {
		return v <= rd.Start && v > rd.End && (rd.Start-v)%(-rd.Step) == 0
	}
	return false
}

func (i *Interpreter) execBitwiseOrLogical(dst opcodes.Register, a, b *Value, boolOp func(x, y bool) bool, intOp func(x, y int64) int64) (bool, error) {
	if a.Kind == KindBool && b.Kind == KindBool {
		i.setReg(dst, i.rt.Bool(boolOp(a.Data.(bool), b.Data.(bool))))
		return true, nil
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		i.setReg(dst, i.rt.Int(intOp(a.Data.(int64), b.Data.(int64))))
		return true, nil
	}
	return false, i.Raise(i.rt.NewError("TypeError", "unsupported operand types for bitwise/logical operator"))
}

func (i *Interpreter) execSubsc(dst opcodes.Register, obj, key *Value) (bool, error) {
	switch obj.Kind {
	case KindList:
		idx, ok := key.AsFloat()
		if !ok {
			return false, i.Raise(i.rt.NewError("TypeError", "list index must be a number"))
		}
		v, err := ListGet(obj, int64(idx))
		if err != nil {
			return false, i.Raise(i.rt.NewError("IndexError", err.Error()))
		}
		i.setReg(dst, v)
		return true, nil
	case KindDict:
		v, found, err := obj.Data.(*dictData).Get(i, key)
		if err != nil {
			return false, i.wrapErr(err)
		}
		if !found {
			return false, i.Raise(i.rt.NewError("KeyError", "key not found"))
		}
		i.setReg(dst, v)
		return true, nil
	case KindString:
		idx, ok := key.AsFloat()
		if !ok {
			return false, i.Raise(i.rt.NewError("TypeError", "string index must be a number"))
		}
		s := []rune(obj.Data.(string))
		pos := int(idx)
		if pos < 0 {
			pos += len(s)
		}
		if pos < 0 || pos >= len(s) {
			return false, i.Raise(i.rt.NewError("IndexError", "string index out of range"))
		}
		i.setReg(dst, i.rt.NewString(string(s[pos])))
		return true, nil
	default:
		return false, i.Raise(i.rt.NewError("TypeError", obj.Kind.String()+" does not support subscript"))
	}
}

func (i *Interpreter) execStoreSubsc(obj, key, val *Value) error {
	switch obj.Kind {
	case KindList:
		idx, ok := key.AsFloat()
		if !ok {
			return i.Raise(i.rt.NewError("TypeError", "list index must be a number"))
		}
		if err := ListSet(obj, int64(idx), val); err != nil {
			return i.Raise(i.rt.NewError("IndexError", err.Error()))
		}
		return nil
	case KindDict:
		if err := obj.Data.(*dictData).Set(i, key, val); err != nil {
			return i.wrapErr(err)
		}
		return nil
	default:
		return i.Raise(i.rt.NewError("TypeError", obj.Kind.String()+" does not support subscript assignment"))
	}
}

func (i *Interpreter) execNeg(in *opcodes.Instruction) error {
	v := i.reg(in.Src1)
	switch v.Kind {
	case KindInt:
		i.setReg(in.Dst, i.rt.Int(-v.Data.(int64)))
		return nil
	case KindFloat:
		i.setReg(in.Dst, i.rt.Float(-v.Data.(float64)))
		return nil
	default:
		return i.Raise(i.rt.NewError("TypeError", v.Kind.String()+" does not support unary -"))
	}
}
