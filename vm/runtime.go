package vm

// Runtime bundles every piece of process-wide mutable state a Moss program
// run needs: the shared heap, the GC, the converter/generator registries,
// the currently-importing-modules list, and the interned singletons.
// spec.md's design notes (§9 "Global mutable state") ask that these live as
// fields on one context struct rather than as package-level globals, so
// that independent test harnesses running concurrently don't share state;
// exactly one Runtime is created per top-level program run, and every
// nested Interpreter created by a module import shares it.
type Runtime struct {
	Heap *Heap
	GC   *TracingGC

	converters map[converterKey][]*Value // (from,to) -> candidate converter Functions
	generators map[string]*Value         // format -> generator Function

	generatorNotes []*Value // Notes buffered for end-of-program generator dispatch

	importingModules []*Value // Modules mid-IMPORT, kept live for the GC

	unwoundFuns []*Value // stack-trace scratch, accumulated while a RAISE propagates

	libms *Value // loaded standard library module, or nil if disabled

	// Interned singletons (spec.md §3 invariant: Nil, True, False, and
	// small Ints are shared and never copied by clone).
	nilValue   *Value
	trueValue  *Value
	falseValue *Value
	smallInts  [internInt2 - internInt1 + 1]*Value

	typeClass *Value // the self-typed built-in "Type" class
	builtins  map[string]*Value // built-in classes/exceptions installed at construction

	// kindClasses maps each Kind to the built-in Class that every value of
	// that Kind carries as its .Type (spec.md §3: "every value carries a
	// pointer to its type"). Object and EnumValue set their own .Type
	// explicitly (NewObject, NewEnumType) and have no entry here; Class
	// itself maps to typeClass so NewClass's allocations are self-installing
	// once installBuiltinClasses has registered it.
	kindClasses map[Kind]*Value

	// ModuleLoader resolves a module name to a loaded Module value for the
	// IMPORT opcode. It is nil in a bare Runtime (e.g. unit tests exercising
	// single-module bytecode directly) and wired by cmd/moss before running
	// a program that imports other files.
	ModuleLoader func(rt *Runtime, name string) (*Value, error)
}

const (
	internInt1 = -5
	internInt2 = 256
)

type converterKey struct{ from, to string }

// StdlibLoader builds the libms Module value. It is nil until the libms
// package is imported (by cmd/moss's main, typically blank-imported for
// its side effect), at which point libms's init() sets it — this indirection
// is what keeps vm from importing libms directly (libms imports vm to build
// Function/Module values, so the reverse import would cycle).
var StdlibLoader func(rt *Runtime) *Value

// NewRuntime constructs a fresh process-wide context: heap, GC, empty
// registries, and the interned singletons. stressGC forces a collection
// after every single instruction (SPEC_FULL.md's `--stress-test-gc` flag).
func NewRuntime(stressGC bool) *Runtime {
	r := &Runtime{
		converters:  make(map[converterKey][]*Value),
		generators:  make(map[string]*Value),
		builtins:    make(map[string]*Value),
		kindClasses: make(map[Kind]*Value),
	}
	r.Heap = newHeap()
	r.Heap.stressTest = stressGC
	r.GC = newTracingGC(r)
	r.installBuiltinClasses()
	r.initSingletons()
	if StdlibLoader != nil {
		r.libms = StdlibLoader(r)
	}
	return r
}

// DisableLibms drops a just-constructed Runtime's loaded standard library,
// implementing the `--no-load-libms` debug flag (SPEC_FULL.md §A).
func (r *Runtime) DisableLibms() {
	r.libms = nil
}

func (r *Runtime) alloc(k Kind) *Value {
	v := &Value{Kind: k, Type: r.kindClasses[k]}
	r.Heap.track(v)
	return v
}

func (r *Runtime) initSingletons() {
	r.nilValue = r.alloc(KindNil)
	r.nilValue.Name = "nil"
	r.trueValue = r.alloc(KindBool)
	r.trueValue.Name = "true"
	r.trueValue.Data = true
	r.falseValue = r.alloc(KindBool)
	r.falseValue.Name = "false"
	r.falseValue.Data = false
	for i := internInt1; i <= internInt2; i++ {
		v := r.alloc(KindInt)
		v.Data = int64(i)
		r.smallInts[i-internInt1] = v
	}
}

// Nil returns the shared Nil singleton.
func (r *Runtime) Nil() *Value { return r.nilValue }

// Bool returns the shared True/False singleton for b.
func (r *Runtime) Bool(b bool) *Value {
	if b {
		return r.trueValue
	}
	return r.falseValue
}

// Int returns an Int value, reusing the interned singleton for -5..256
// (spec.md §3 invariant) and allocating fresh otherwise.
func (r *Runtime) Int(i int64) *Value {
	if i >= internInt1 && i <= internInt2 {
		return r.smallInts[i-internInt1]
	}
	v := r.alloc(KindInt)
	v.Data = i
	return v
}

// Float allocates a new Float value.
func (r *Runtime) Float(f float64) *Value {
	v := r.alloc(KindFloat)
	v.Data = f
	return v
}

// AddConverter registers fun as a converter from format `from` to `to`
// (spec.md §4.5 "Converters and generators").
func (r *Runtime) AddConverter(from, to string, fun *Value) {
	key := converterKey{from, to}
	r.converters[key] = append(r.converters[key], fun)
}

// AddGenerator registers fun as the generator for output format `format`.
func (r *Runtime) AddGenerator(format string, fun *Value) {
	r.generators[format] = fun
}

// IsGenerator reports whether a generator is registered for format.
func (r *Runtime) IsGenerator(format string) bool {
	_, ok := r.generators[format]
	return ok
}

// AddGeneratorNote buffers note for end-of-program generator dispatch.
func (r *Runtime) AddGeneratorNote(note *Value) {
	r.generatorNotes = append(r.generatorNotes, note)
}

// PushImportingModule marks m as mid-import so the GC keeps it live even
// though it is not yet reachable from any frame.
func (r *Runtime) PushImportingModule(m *Value) {
	r.importingModules = append(r.importingModules, m)
}

// PopImportingModule removes the most recently pushed importing module.
func (r *Runtime) PopImportingModule() {
	if n := len(r.importingModules); n > 0 {
		r.importingModules = r.importingModules[:n-1]
	}
}
