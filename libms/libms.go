// Package libms builds the Moss standard library module (spec.md §6
// "Standard library contract"): the vm core treats libms as an external
// collaborator whose contents are out of scope, so this package supplies
// just enough of it — a "math" and "string" and "list" Space, an
// output()/assert() pair, and the type-reflection builtins — to exercise
// the loading contract §6 describes and the library-function call path
// §4.5 "Callbacks to external collaborators" names. Implementing the rest
// of libms's surface (file I/O, subprocess, FFI) is explicitly out of
// scope per spec.md §1 Non-goals.
package libms

import (
	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/vm"
)

func init() {
	vm.StdlibLoader = Load
}

// Load builds the libms Module: a Module value (so it owns an attribute
// pool the same way any other Module does) populated with native
// functions and namespace Spaces, grounded on wudi-hey's
// runtime/{math,string,array}.go "table of builtin functions" shape
// (GetMathFunctions et al.), here registered directly with
// vm.NewNativeFunction instead of a registry.Function/Builtin closure
// pair, since Moss's call ABI is CallFrame.GetArg-based rather than a flat
// []*values.Value slice.
func Load(rt *vm.Runtime) *vm.Value {
	mod := rt.NewModule("libms", bytecode.New("libms", 0))

	mod.SetAttr("output", rt.NewNativeFunction("output", 1, outputFn))
	mod.SetAttr("assert", rt.NewNativeFunction("assert", 1, assertFn))
	mod.SetAttr("type", rt.NewNativeFunction("type", 1, typeFn))
	mod.SetAttr("len", rt.NewNativeFunction("len", 1, lenFn))
	mod.SetAttr("dump", rt.NewNativeFunction("dump", 1, dumpFn))

	mod.SetAttr("math", buildMathSpace(rt, mod))
	mod.SetAttr("string", buildStringSpace(rt, mod))
	mod.SetAttr("list", buildListSpace(rt, mod))

	return mod
}

// newSpaceWith allocates a Space owned by mod and fills it from fns, the
// small "name -> native function" table each builtins file in this
// package contributes.
func newSpaceWith(rt *vm.Runtime, mod *vm.Value, name string, fns map[string]nativeEntry) *vm.Value {
	space := rt.NewSpace(name, mod)
	for fnName, entry := range fns {
		space.SetAttr(fnName, rt.NewNativeFunction(fnName, entry.arity, entry.fn))
	}
	return space
}

type nativeEntry struct {
	arity int
	fn    func(rt *vm.Runtime, positional []*vm.Value, named map[string]*vm.Value) (*vm.Value, error)
}

func arg(positional []*vm.Value, named map[string]*vm.Value, name string, idx int) *vm.Value {
	if v, ok := named[name]; ok {
		return v
	}
	if idx < len(positional) {
		return positional[idx]
	}
	return nil
}
