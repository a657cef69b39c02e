package vm

import (
	"os"

	"github.com/moss-lang/moss/bytecode"
)

// moduleData is a Module value's payload: a whole compiled unit, its own
// global attribute pool, and (for imported modules) the Interpreter that
// runs its top-level code. Attrs mirrors Value.Attrs so that both
// Value.GetAttr's generic first check and the Module-specific fallback in
// GetAttr see the same pool (spec.md §4.4 "Modules own a single global
// MemoryPool").
type moduleData struct {
	Bytecode *bytecode.Bytecode
	Attrs    *MemoryPool
	VM       *Interpreter
}

// NewModule allocates a Module value and wires its attribute pool to both
// Value.Attrs and moduleData.Attrs.
func (r *Runtime) NewModule(name string, bc *bytecode.Bytecode) *Value {
	v := r.alloc(KindModule)
	v.Name = name
	pool := NewMemoryPool(true, false)
	v.Attrs = pool
	v.Data = &moduleData{Bytecode: bc, Attrs: pool}
	return v
}

// LoadModule constructs a Module for bc and runs its top-level code to
// completion in a fresh Interpreter that uses the Module's own attribute
// pool as its global frame (so STORE_GLOBAL inside the module's top level
// lands directly in the bindings other modules will later see via
// LOAD_ATTR on the Module value). Used by a front end's ModuleLoader
// implementation to service the IMPORT opcode (spec.md §4.5 "Calls" —
// cross-module dispatch assumes the callee module has already run its
// top level by the time a Function's OwnerVM is consulted).
func (r *Runtime) LoadModule(name string, bc *bytecode.Bytecode) (*Value, error) {
	mod := r.NewModule(name, bc)
	md := mod.Data.(*moduleData)

	in := &Interpreter{rt: r, bc: bc, Stdout: os.Stdout, Module: mod}
	in.frames = append(in.frames, md.Attrs)
	in.constPools = append(in.constPools, NewMemoryPool(false, true))
	r.Heap.pushVM(in)
	if r.libms != nil {
		spillLibms(in, r.libms)
	}
	md.VM = in

	r.PushImportingModule(mod)
	err := in.Run()
	r.PopImportingModule()
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// spaceData is a Space value's payload: a lighter-weight namespace (spec.md
// §4.4 "Spaces group related names without owning a separate bytecode
// unit") that shares the owning module's Interpreter rather than running
// its own.
type spaceData struct {
	Attrs *MemoryPool
	Owner *Value // owning Module
}

// NewSpace allocates a Space value nested inside owner.
func (r *Runtime) NewSpace(name string, owner *Value) *Value {
	v := r.alloc(KindSpace)
	v.Name = name
	pool := NewMemoryPool(false, false)
	v.Attrs = pool
	v.Data = &spaceData{Attrs: pool, Owner: owner}
	return v
}
