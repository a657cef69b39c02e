package vm

import "github.com/moss-lang/moss/opcodes"

// CallFrameArg is one actual argument bound into a CallFrame: its source
// name (empty for a purely positional actual), its Value, and the register
// in the callee's fresh MemoryPool it will land in once PUSH_FRAME runs.
type CallFrameArg struct {
	Name    string
	Value   *Value
	DestReg opcodes.Register
}

// CallFrame is the bundle PUSH_CALL_FRAME/CALL establishes before a call is
// taken (spec.md §4.4).
type CallFrame struct {
	Target    *Value // the Function (or FunctionList/Class) being invoked
	Args      []CallFrameArg
	ReturnReg opcodes.Register // register in the CALLER's frame to receive the result
	ReturnPC  opcodes.Address

	ConstructorCall   bool
	ExternModuleCall  bool
	RuntimeCall       bool
	MatchedToFrame    bool
}

// GetArg resolves a named argument, the interface native standard-library
// functions use to read their actuals (spec.md §4.5 "Callbacks to external
// collaborators").
func (cf *CallFrame) GetArg(name string) (*Value, bool) {
	for _, a := range cf.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Positional returns the actuals with no explicit name, in call order.
func (cf *CallFrame) Positional() []*Value {
	var out []*Value
	for _, a := range cf.Args {
		if a.Name == "" {
			out = append(out, a.Value)
		}
	}
	return out
}
