package libms

import (
	"math"

	"github.com/moss-lang/moss/vm"
)

// buildMathSpace mirrors wudi-hey's runtime/math.go GetMathFunctions()
// table of builtins, narrowed to numeric arguments: each function raises
// TypeError on anything non-numeric, rather than wudi-hey's PHP-style
// string-coercion fallback (spec.md has no implicit string-to-number
// conversion). Most take one argument; pow, min and max take two, and abs
// keeps an Int argument an Int.
func buildMathSpace(rt *vm.Runtime, mod *vm.Value) *vm.Value {
	unary := func(f func(float64) float64) nativeEntry {
		return nativeEntry{arity: 1, fn: func(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
			x, err := floatArg(positional, named, "x", 0)
			if err != nil {
				return nil, err
			}
			return rt.Float(f(x)), nil
		}}
	}

	fns := map[string]nativeEntry{
		"sqrt":  unary(math.Sqrt),
		"floor": unary(math.Floor),
		"ceil":  unary(math.Ceil),
		"sin":   unary(math.Sin),
		"cos":   unary(math.Cos),
		"tan":   unary(math.Tan),
		"log":   unary(math.Log),
		"exp":   unary(math.Exp),
		"abs": {arity: 1, fn: mathAbs},
		"pow": {arity: 2, fn: mathPow},
		"min": {arity: 2, fn: mathMin},
		"max": {arity: 2, fn: mathMax},
	}

	space := newSpaceWith(rt, mod, "math", fns)
	space.SetAttr("pi", rt.Float(math.Pi))
	space.SetAttr("e", rt.Float(math.E))
	return space
}

func floatArg(positional []*vm.Value, named map[string]*vm.Value, name string, idx int) (float64, error) {
	v := arg(positional, named, name, idx)
	if v == nil {
		return 0, &vm.LibraryError{ClassName: "TypeError", Message: name + " is required"}
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, &vm.LibraryError{ClassName: "TypeError", Message: name + " must be numeric"}
	}
	return f, nil
}

// mathAbs preserves Int-ness the way spec.md's numeric tower expects
// abs(Int) to stay an Int rather than widen to Float.
func mathAbs(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	v := arg(positional, named, "x", 0)
	if v == nil {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: "x is required"}
	}
	if v.Kind == vm.KindInt {
		n := v.Data.(int64)
		if n < 0 {
			n = -n
		}
		return rt.Int(n), nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: "x must be numeric"}
	}
	return rt.Float(math.Abs(f)), nil
}

func mathPow(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	base, err := floatArg(positional, named, "base", 0)
	if err != nil {
		return nil, err
	}
	exp, err := floatArg(positional, named, "exp", 1)
	if err != nil {
		return nil, err
	}
	return rt.Float(math.Pow(base, exp)), nil
}

func mathMin(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	a, err := floatArg(positional, named, "a", 0)
	if err != nil {
		return nil, err
	}
	b, err := floatArg(positional, named, "b", 1)
	if err != nil {
		return nil, err
	}
	return rt.Float(math.Min(a, b)), nil
}

func mathMax(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	a, err := floatArg(positional, named, "a", 0)
	if err != nil {
		return nil, err
	}
	b, err := floatArg(positional, named, "b", 1)
	if err != nil {
		return nil, err
	}
	return rt.Float(math.Max(a, b)), nil
}
