package vm

// installBuiltinClasses constructs the built-in Exception hierarchy, the
// self-typed Type class, and a Class for every primitive Kind, registering
// all of them into r.builtins so LOAD finds them as a last resort (spec.md
// §4.5 "the global frame resolves against built-ins last") and into
// r.kindClasses so alloc can satisfy spec.md §3's "every value carries a
// pointer to its type" invariant for Kinds that don't set .Type themselves.
func (r *Runtime) installBuiltinClasses() {
	r.typeClass = r.NewClass("Type")
	r.typeClass.Type = r.typeClass
	r.builtins["Type"] = r.typeClass
	r.kindClasses[KindClass] = r.typeClass
	// An enum declaration introduces a new type the same way a class
	// declaration does (spec.md §4.2 "Enums"), so EnumType shares Class's
	// metaclass rather than getting its own shared built-in Class; each
	// EnumValue's .Type is its own EnumType (enum.go), never this entry.
	r.kindClasses[KindEnumType] = r.typeClass

	exception := r.NewClass("Exception")
	r.builtins["Exception"] = exception

	for _, name := range []string{
		"TypeError", "NameError", "ValueError",
		"AssertionError", "AttributeError",
		"StopIteration", "SystemExit", "NotImplementedError",
		"ParserError", "SyntaxError", "EOFError", "OutputError",
	} {
		cls := r.NewClass(name)
		cls.Data.(*classData).Supers = []*Value{exception}
		cls.Data.(*classData).Exception = true
		r.builtins[name] = cls
	}

	// LookupError and MathError are intermediate classes spec.md §7 inserts
	// between Exception and the built-ins that can be caught either
	// specifically or by their shared category (e.g. "catch (e: LookupError)"
	// must match both a missing dict key and an out-of-range index).
	lookupError := r.NewClass("LookupError")
	lookupError.Data.(*classData).Supers = []*Value{exception}
	lookupError.Data.(*classData).Exception = true
	r.builtins["LookupError"] = lookupError

	mathError := r.NewClass("MathError")
	mathError.Data.(*classData).Supers = []*Value{exception}
	mathError.Data.(*classData).Exception = true
	r.builtins["MathError"] = mathError

	osError := r.NewClass("OSError")
	osError.Data.(*classData).Supers = []*Value{exception}
	osError.Data.(*classData).Exception = true
	r.builtins["OSError"] = osError

	for _, sub := range []struct {
		name  string
		super *Value
	}{
		{"KeyError", lookupError},
		{"IndexError", lookupError},
		{"DivisionByZeroError", mathError},
		{"ModuleNotFoundError", exception},
		{"FileNotFoundError", osError},
	} {
		cls := r.NewClass(sub.name)
		cls.Data.(*classData).Supers = []*Value{sub.super}
		cls.Data.(*classData).Exception = true
		r.builtins[sub.name] = cls
	}

	// Every other Kind that isn't itself class-like gets one shared
	// built-in Class as its .Type, so FunctionList overload resolution
	// (function.go's ResolveOverload) has a real Value to compare a
	// declared parameter type against (spec.md §8 scenario 5). Object and
	// EnumValue are excluded: they set .Type explicitly to their own class
	// or enum type (NewObject, NewEnumType) rather than sharing one.
	for _, name := range []string{
		"Int", "Float", "Bool", "Nil", "String", "Bytes", "Note",
		"List", "Dict", "Range", "Function", "FunctionList",
		"Module", "Space", "Super", "Iterator", "Foreign",
	} {
		cls := r.NewClass(name)
		r.builtins[name] = cls
		r.kindClasses[kindByName[name]] = cls
	}
}

// kindByName maps each primitive built-in Class name above back to its
// Kind, so installBuiltinClasses can populate r.kindClasses without a
// second parallel literal that could drift out of sync with kind.go.
var kindByName = map[string]Kind{
	"Int": KindInt, "Float": KindFloat, "Bool": KindBool, "Nil": KindNil,
	"String": KindString, "Bytes": KindBytes, "Note": KindNote,
	"List": KindList, "Dict": KindDict, "Range": KindRange,
	"Function": KindFunction, "FunctionList": KindFunctionList,
	"Module": KindModule, "Space": KindSpace, "Super": KindSuper,
	"Iterator": KindIterator, "Foreign": KindForeign,
}

// NewError constructs an instance of the named built-in exception class
// (or of plain Exception if className is unregistered) with a "message"
// attribute, the shape every built-in raise site in exec_*.go uses.
func (r *Runtime) NewError(className, message string) *Value {
	cls, ok := r.builtins[className]
	if !ok {
		cls = r.builtins["Exception"]
	}
	obj := r.NewObject(cls)
	obj.SetAttr("message", r.NewString(message))
	return obj
}
