package vm

import (
	"sort"

	"github.com/moss-lang/moss/opcodes"
)

// finallyEntry is one active try block's finally address, plus the
// call-frame stack depth to restore if an unmatched raise jumps into it
// (mirroring ExceptionCatch's CallDepth).
type finallyEntry struct {
	Addr      opcodes.Address
	CallDepth int
}

// ExceptionCatch is one registered handler range (spec.md §4.3): the type
// it matches (nil catches anything), the name the caught value binds to,
// the handler address, and the frame/call-frame stack depths to restore
// when it fires.
type ExceptionCatch struct {
	Type        *Value
	BindName    string
	HandlerAddr opcodes.Address
	FrameDepth  int
	CallDepth   int
}

// MemoryPool is the register file plus name table spec.md §4.3 describes:
// it backs global frames, call frames, constant pools, and object/class/
// module attribute stores alike, distinguished only by the isGlobal/
// isConst flags.
type MemoryPool struct {
	isGlobal bool
	isConst  bool

	regs map[opcodes.Register]*Value
	syms map[string]opcodes.Register

	nextHighReg opcodes.Register // get_free_reg() counter, counts downward
	nextLowReg  opcodes.Register // ordinary forward allocation for codegen-less stores

	spilled []*Value // modules/spaces exposed via IMPORT_ALL

	finallyStack [][]finallyEntry // stack of finally-block stacks (push/pop_finally_stack)
	catches      []*ExceptionCatch
}

const highRegStart = ^opcodes.Register(0) // all-ones: 0xFFFFFFFF, counts down

// NewMemoryPool constructs an empty pool. isGlobal marks a VM's frame 0 or
// a Module/Space's namespace pool; isConst marks an immutable constant
// pool built once by codegen.
func NewMemoryPool(isGlobal, isConst bool) *MemoryPool {
	return &MemoryPool{
		isGlobal:     isGlobal,
		isConst:      isConst,
		regs:         make(map[opcodes.Register]*Value),
		syms:         make(map[string]opcodes.Register),
		nextHighReg:  highRegStart,
		finallyStack: [][]finallyEntry{nil},
	}
}

// IsGlobal reports whether this pool is a VM's frame-0 global frame or a
// Module/Space namespace.
func (p *MemoryPool) IsGlobal() bool { return p.isGlobal }

// IsConst reports whether this pool is an immutable constant pool.
func (p *MemoryPool) IsConst() bool { return p.isConst }

// Store never fails: an absent register reads back as Nil until written.
func (p *MemoryPool) Store(reg opcodes.Register, v *Value) {
	p.regs[reg] = v
}

// Load returns the value in reg, or nil if nothing was ever stored there.
// Callers that need spec.md's "absent slot yields Nil" must substitute the
// runtime's Nil() singleton themselves, since MemoryPool has no Runtime
// reference of its own.
func (p *MemoryPool) Load(reg opcodes.Register) *Value {
	return p.regs[reg]
}

// StoreName binds name to reg in the symbol table, without touching the
// register's value.
func (p *MemoryPool) StoreName(reg opcodes.Register, name string) {
	p.syms[name] = reg
}

// GetNameRegister looks up name's register, if bound in this pool.
func (p *MemoryPool) GetNameRegister(name string) (opcodes.Register, bool) {
	reg, ok := p.syms[name]
	return reg, ok
}

// LoadName resolves name directly to its Value in this pool, if bound.
func (p *MemoryPool) LoadName(name string) (*Value, bool) {
	reg, ok := p.syms[name]
	if !ok {
		return nil, false
	}
	return p.regs[reg], true
}

// Overwrite rebinds an already-bound name's value without allocating a new
// register slot (used by STORE_NONLOC). It is a no-op if name is unbound.
func (p *MemoryPool) Overwrite(name string, val *Value) bool {
	reg, ok := p.syms[name]
	if !ok {
		return false
	}
	p.regs[reg] = val
	return true
}

// RemoveName unbinds name from the symbol table; the register's value, if
// any, is left in place (other names or raw register operands may still
// reference it).
func (p *MemoryPool) RemoveName(name string) {
	delete(p.syms, name)
}

// SymbolNames returns every bound name, sorted, for hashObject's
// structural fallback and for debug dumps.
func (p *MemoryPool) SymbolNames() []string {
	names := make([]string, 0, len(p.syms))
	for n := range p.syms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetFreeReg returns a monotonically decreasing "high" register so
// codegen's forward-assigned registers never collide with dynamically
// allocated ones (spec.md §4.3).
func (p *MemoryPool) GetFreeReg() opcodes.Register {
	reg := p.nextHighReg
	p.nextHighReg--
	return reg
}

// PushSpilledValue records a Module/Space exposed into this pool by
// IMPORT_ALL.
func (p *MemoryPool) PushSpilledValue(v *Value) {
	p.spilled = append(p.spilled, v)
}

// SpilledValues returns the modules/spaces IMPORT_ALL has exposed here.
func (p *MemoryPool) SpilledValues() []*Value {
	return p.spilled
}

// PushFinally records the address of an active finally block (and the
// call-frame depth to restore if a raise later jumps into it) in the
// current (innermost) finally-block stack.
func (p *MemoryPool) PushFinally(addr opcodes.Address, callDepth int) {
	top := len(p.finallyStack) - 1
	p.finallyStack[top] = append(p.finallyStack[top], finallyEntry{Addr: addr, CallDepth: callDepth})
}

// PopFinally removes the most recently pushed finally entry.
func (p *MemoryPool) PopFinally() {
	top := len(p.finallyStack) - 1
	if n := len(p.finallyStack[top]); n > 0 {
		p.finallyStack[top] = p.finallyStack[top][:n-1]
	}
}

// ActiveFinally reports the innermost active finally entry, if any.
func (p *MemoryPool) ActiveFinally() (finallyEntry, bool) {
	top := len(p.finallyStack) - 1
	entries := p.finallyStack[top]
	if len(entries) == 0 {
		return finallyEntry{}, false
	}
	return entries[len(entries)-1], true
}

// PushFinallyStack opens a new nested scope of finally blocks (entering a
// try statement).
func (p *MemoryPool) PushFinallyStack() {
	p.finallyStack = append(p.finallyStack, nil)
}

// PopFinallyStack closes the innermost scope of finally blocks (leaving a
// try statement).
func (p *MemoryPool) PopFinallyStack() {
	if len(p.finallyStack) > 1 {
		p.finallyStack = p.finallyStack[:len(p.finallyStack)-1]
	}
}

// PushCatch registers a handler range.
func (p *MemoryPool) PushCatch(ec *ExceptionCatch) {
	p.catches = append(p.catches, ec)
}

// PopCatch removes the last n registered handler ranges (CATCH's range
// closes when its POP_CATCH executes).
func (p *MemoryPool) PopCatch(n int) {
	if n > len(p.catches) {
		n = len(p.catches)
	}
	p.catches = p.catches[:len(p.catches)-n]
}

// Catches returns the currently registered handler ranges, innermost last.
func (p *MemoryPool) Catches() []*ExceptionCatch {
	return p.catches
}

// Clone deep-copies the pool's register file (recursively cloning each
// Value) and symbol table, for Object instance-attribute duplication.
// Finally/catch state is never cloned: only attribute pools are ever
// cloned, and attribute pools never carry that state.
func (p *MemoryPool) Clone() *MemoryPool {
	out := NewMemoryPool(p.isGlobal, p.isConst)
	for reg, v := range p.regs {
		out.regs[reg] = v.Clone()
	}
	for n, reg := range p.syms {
		out.syms[n] = reg
	}
	out.nextHighReg = p.nextHighReg
	return out
}
