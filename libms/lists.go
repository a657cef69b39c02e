package libms

import (
	"github.com/moss-lang/moss/vm"
)

// buildListSpace mirrors wudi-hey's runtime/array.go table (array_push,
// in_array, array_reverse, array_sum), narrowed to Moss's single List kind
// rather than PHP's combined list/map array.
func buildListSpace(rt *vm.Runtime, mod *vm.Value) *vm.Value {
	fns := map[string]nativeEntry{
		"push":    {arity: 2, fn: listPush},
		"pop":     {arity: 1, fn: listPop},
		"reverse": {arity: 1, fn: listReverse},
		"contains": {arity: 2, fn: listContains},
		"sum":      {arity: 1, fn: listSum},
	}
	return newSpaceWith(rt, mod, "list", fns)
}

func listArg(positional []*vm.Value, named map[string]*vm.Value, name string, idx int) ([]*vm.Value, error) {
	v := arg(positional, named, name, idx)
	if v == nil || v.Kind != vm.KindList {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: name + " must be a List"}
	}
	return v.Data.([]*vm.Value), nil
}

func listPush(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	l := arg(positional, named, "list", 0)
	if l == nil || l.Kind != vm.KindList {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: "list must be a List"}
	}
	val := arg(positional, named, "value", 1)
	if val == nil {
		val = rt.Nil()
	}
	vm.ListPush(l, val)
	return l, nil
}

func listPop(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	elems, err := listArg(positional, named, "list", 0)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &vm.LibraryError{ClassName: "IndexError", Message: "pop from empty list"}
	}
	return elems[len(elems)-1], nil
}

func listReverse(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	elems, err := listArg(positional, named, "list", 0)
	if err != nil {
		return nil, err
	}
	out := make([]*vm.Value, len(elems))
	for i, e := range elems {
		out[len(elems)-1-i] = e
	}
	return rt.NewList(out), nil
}

func listContains(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	elems, err := listArg(positional, named, "list", 0)
	if err != nil {
		return nil, err
	}
	needle := arg(positional, named, "needle", 1)
	if needle == nil {
		needle = rt.Nil()
	}
	for _, e := range elems {
		if valuesEqualSimple(e, needle) {
			return rt.Bool(true), nil
		}
	}
	return rt.Bool(false), nil
}

// valuesEqualSimple is a native-function-safe substitute for vm.Equal:
// native functions are handed a Runtime, not an Interpreter (libms.go's
// nativeEntry signature), so they cannot drive the __eq dispatch
// vm.Equal performs for Object operands. Everything but Object compares
// the same either way; Object falls back to identity, matching
// objectEqual's own no-__eq-defined fallback (vm/class.go).
func valuesEqualSimple(a, b *vm.Value) bool {
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		return aok && bok && af == bf
	}
	switch a.Kind {
	case vm.KindString:
		return a.Data.(string) == b.Data.(string)
	case vm.KindBool:
		return a.Data.(bool) == b.Data.(bool)
	case vm.KindInt:
		return a.Data.(int64) == b.Data.(int64)
	case vm.KindFloat:
		return a.Data.(float64) == b.Data.(float64)
	case vm.KindNil:
		return true
	default:
		return false
	}
}

func listSum(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	elems, err := listArg(positional, named, "list", 0)
	if err != nil {
		return nil, err
	}
	var total float64
	allInt := true
	var intTotal int64
	for _, e := range elems {
		if e.Kind == vm.KindInt && allInt {
			intTotal += e.Data.(int64)
			continue
		}
		allInt = false
		f, ok := e.AsFloat()
		if !ok {
			return nil, &vm.LibraryError{ClassName: "TypeError", Message: "sum() elements must be numeric"}
		}
		total += f
	}
	if allInt {
		return rt.Int(intTotal), nil
	}
	return rt.Float(total + float64(intTotal)), nil
}
