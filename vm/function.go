package vm

import (
	"fmt"

	"github.com/moss-lang/moss/opcodes"
)

// funcArg describes one formal parameter: name, optional default, optional
// type constraints (for FunctionList overload dispatch), and vararg/kwarg
// collection flags (spec.md §4.5 "Frame management").
type funcArg struct {
	Name     string
	Default  *Value
	Types    []*Value // allowed type Values; empty means untyped
	Vararg   bool      // collects remaining positionals into a List
	KwVararg bool      // collects remaining named args into a Dict
}

// catchRange describes one exception-handler registration: the exception
// type it matches (nil = catch-all), the bound name, and the handler
// address. It records no address span, and functionData holds no catch
// table; nothing in the package constructs a catchRange.
type catchRange struct {
	Type    *Value
	Name    string
	Handler opcodes.Address
}

// functionData is a Function value's payload.
type functionData struct {
	Name        string
	Args        []*funcArg
	BodyAddr    opcodes.Address
	OwnerVM     *Interpreter  // the VM whose global frame defined this function
	Closures    []*MemoryPool // captured outer frames, borrowed references
	ParentClass *Value        // set for methods
	Static      bool          // callable as Class.method without an instance

	// Native, when non-nil, makes this a host-implemented function (a
	// libms builtin): calling it runs the Go closure directly instead of
	// driving PUSH_FRAME/RETURN bytecode, per SPEC_FULL.md's libms supplement.
	Native func(rt *Runtime, positional []*Value, named map[string]*Value) (*Value, error)
}

// NewFunction allocates a Function value. owner is the Interpreter whose
// module defined it; it becomes the function's FunValue::vm equivalent for
// cross-module call dispatch (spec.md §4.5 "Calls").
func (r *Runtime) NewFunction(name string, owner *Interpreter) *Value {
	v := r.alloc(KindFunction)
	v.Name = name
	v.Owner = owner
	v.Data = &functionData{Name: name, OwnerVM: owner}
	return v
}

// NewNativeFunction allocates a host-implemented Function: a libms builtin
// whose body is a Go closure rather than bytecode.
func (r *Runtime) NewNativeFunction(name string, arity int, fn func(rt *Runtime, positional []*Value, named map[string]*Value) (*Value, error)) *Value {
	v := r.alloc(KindFunction)
	v.Name = name
	fd := &functionData{Name: name, Native: fn}
	for idx := 0; idx < arity; idx++ {
		fd.Args = append(fd.Args, &funcArg{Name: fmt.Sprintf("arg%d", idx)})
	}
	v.Data = fd
	return v
}

// NewFunctionList wraps an overload set sharing a name (spec.md §4.2
// "FunctionList").
func (r *Runtime) NewFunctionList(name string, fns []*Value) *Value {
	v := r.alloc(KindFunctionList)
	v.Name = name
	v.Data = fns
	return v
}

// AppendOverload adds fn to a FunctionList, used when a second `fun` with
// the same name is defined in the same scope.
func AppendOverload(list *Value, fn *Value) {
	list.Data = append(list.Data.([]*Value), fn)
}

// ResolveOverload picks the first Function in a FunctionList whose formal
// arity and typed-argument types match the actual arguments, evaluated
// left-to-right with keywords resolved before the arity check (spec.md
// §4.2 "FunctionList"). It returns an error wrapping TypeMismatchError if
// no overload matches.
func ResolveOverload(list *Value, positional []*Value, named map[string]*Value) (*Value, error) {
	for _, fn := range list.Data.([]*Value) {
		fd := fn.Data.(*functionData)
		if overloadMatches(fd, positional, named) {
			return fn, nil
		}
	}
	return nil, &TypeMismatchError{Message: fmt.Sprintf("no overload of %q matches the given arguments", list.Name)}
}

func overloadMatches(fd *functionData, positional []*Value, named map[string]*Value) bool {
	required := 0
	hasVararg := false
	for _, a := range fd.Args {
		if a.Vararg || a.KwVararg {
			hasVararg = true
			continue
		}
		if a.Default == nil {
			required++
		}
	}
	total := len(positional) + len(named)
	if !hasVararg && total > len(fd.Args) {
		return false
	}
	if total < required {
		return false
	}
	for idx, actual := range positional {
		if idx >= len(fd.Args) {
			break
		}
		a := fd.Args[idx]
		if a.Vararg {
			break
		}
		if len(a.Types) > 0 && !typeMatchesAny(actual, a.Types) {
			return false
		}
	}
	for name, actual := range named {
		var found *funcArg
		for _, a := range fd.Args {
			if a.Name == name {
				found = a
				break
			}
		}
		if found == nil {
			continue // goes to **kwargs if present, else caller already checked arity
		}
		if len(found.Types) > 0 && !typeMatchesAny(actual, found.Types) {
			return false
		}
	}
	return true
}

func typeMatchesAny(v *Value, types []*Value) bool {
	for _, t := range types {
		if isTypeEqOrSubtype(v.Type, t) {
			return true
		}
	}
	return false
}

// isTypeEqOrSubtype reports whether t1 matches t2: identical, or t2
// appears anywhere in t1's breadth-first super chain.
func isTypeEqOrSubtype(t1, t2 *Value) bool {
	if t1 == t2 {
		return true
	}
	if t1 == nil || t1.Kind != KindClass {
		return false
	}
	queue := []*Value{t1}
	seen := map[*Value]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		if cur == t2 {
			return true
		}
		if cur.Kind == KindClass {
			queue = append(queue, cur.Data.(*classData).Supers...)
		}
	}
	return false
}
