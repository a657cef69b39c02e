package vm

// Kind is the closed set of runtime value tags (spec.md §3). Every Value
// carries exactly one Kind for its lifetime; dispatch throughout the core
// (attribute resolution, arithmetic, GC blackening) switches on Kind rather
// than relying on a Go interface hierarchy, per spec.md §9's design note
// that method resolution should be "a data structure traversal, not a
// trait-object hierarchy".
type Kind byte

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindNil
	KindString
	KindBytes
	KindNote
	KindList
	KindDict
	KindRange
	KindFunction
	KindFunctionList
	KindClass
	KindObject
	KindModule
	KindSpace
	KindEnumType
	KindEnumValue
	KindSuper
	KindIterator
	KindForeign
)

var kindNames = [...]string{
	KindInt: "Int", KindFloat: "Float", KindBool: "Bool", KindNil: "Nil",
	KindString: "String", KindBytes: "Bytes", KindNote: "Note", KindList: "List",
	KindDict: "Dict", KindRange: "Range", KindFunction: "Function",
	KindFunctionList: "FunctionList", KindClass: "Class", KindObject: "Object",
	KindModule: "Module", KindSpace: "Space", KindEnumType: "EnumType",
	KindEnumValue: "EnumValue", KindSuper: "Super", KindIterator: "Iterator",
	KindForeign: "Foreign",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Hashable reports whether values of this kind support hash()/equality
// bucketing in a Dict (spec.md §3 table).
func (k Kind) Hashable() bool {
	switch k {
	case KindInt, KindFloat, KindBool, KindNil, KindString, KindBytes, KindNote,
		KindRange, KindFunction, KindFunctionList, KindClass, KindObject,
		KindModule, KindSpace, KindEnumType, KindEnumValue, KindSuper:
		return true
	case KindDict:
		return false
	default:
		return false
	}
}

// Iterable reports whether the kind supports iter()/next() (spec.md §3 table).
func (k Kind) Iterable() bool {
	switch k {
	case KindString, KindBytes, KindNote, KindList, KindDict, KindRange,
		KindFunctionList, KindObject, KindIterator:
		return true
	default:
		return false
	}
}

// Modifiable reports whether user-written attributes may be attached
// (spec.md §3: "A value is modifiable ... iff its kind is Class, Object,
// Module, Space, Range, or Function").
func (k Kind) Modifiable() bool {
	switch k {
	case KindClass, KindObject, KindModule, KindSpace, KindRange, KindFunction:
		return true
	default:
		return false
	}
}

// Immutable reports whether clone() returns the receiver unchanged
// (spec.md §3 invariant).
func (k Kind) Immutable() bool {
	switch k {
	case KindInt, KindFloat, KindBool, KindNil, KindString, KindBytes, KindNote,
		KindClass, KindFunction, KindModule, KindSpace, KindEnumType, KindEnumValue:
		return true
	default:
		return false
	}
}
