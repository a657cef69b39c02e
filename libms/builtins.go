package libms

import (
	"fmt"
	"os"

	"github.com/moss-lang/moss/vm"
)

// outputFn is the library-function form of the OUTPUT opcode (spec.md
// §4.5): writes its argument's display string directly to process
// stdout. Distinct from Interpreter.Output (vm/interpreter.go), which
// additionally buffers Note values for generator dispatch — output() here
// is the plain "print this" builtin every libms caller gets regardless of
// whether a generator is registered.
func outputFn(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	v := arg(positional, named, "value", 0)
	if v == nil {
		v = rt.Nil()
	}
	fmt.Fprint(os.Stdout, v.AsString())
	return rt.Nil(), nil
}

// assertFn is libms's callable assert(cond, message), complementing the
// ASSERT opcode (spec.md §4.1) for code that wants to assert as an
// ordinary call rather than a dedicated instruction (e.g. inside a
// converter chain, where only CALL protocol is available).
func assertFn(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	cond := arg(positional, named, "cond", 0)
	if cond == nil || !cond.Truthy() {
		msg := arg(positional, named, "message", 1)
		text := "assertion failed"
		if msg != nil {
			text = msg.AsString()
		}
		return nil, &vm.LibraryError{ClassName: "AssertionError", Message: text}
	}
	return rt.Nil(), nil
}

// typeFn returns the Value modelling v's type (spec.md §3 invariant:
// "Every value carries a pointer to its type").
func typeFn(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	v := arg(positional, named, "value", 0)
	if v == nil || v.Type == nil {
		return rt.Nil(), nil
	}
	return v.Type, nil
}

// lenFn reports the length of a String/Bytes/List/Dict/Range value,
// raising TypeError for anything else.
func lenFn(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	v := arg(positional, named, "value", 0)
	if v == nil {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: "len() needs an argument"}
	}
	n, err := v.Len()
	if err != nil {
		return nil, &vm.LibraryError{ClassName: "TypeError", Message: err.Error()}
	}
	return rt.Int(n), nil
}

// dumpFn is the library-function form of the `dump()` builtin spec.md
// §4.2 names among every value's common operations: the literal-delimited
// string form (quoted strings, etc.), returned as a Moss String rather
// than printed.
func dumpFn(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error) {
	v := arg(positional, named, "value", 0)
	if v == nil {
		return rt.NewString("nil"), nil
	}
	return rt.NewString(v.Dump()), nil
}
