package vm

import "fmt"

// Value is the single tagged runtime representation every Moss value uses
// (spec.md §3). Following the teacher's values/value.go ({Type ValueType;
// Data interface{}}), a single struct plus a Kind tag and a Data payload
// stands in for the closed Kind hierarchy, instead of one Go struct per
// kind implementing a shared interface: GC blackening, attribute
// resolution, and arithmetic dispatch all switch on Kind, so a flat
// representation keeps every core algorithm a single, exhaustive switch
// rather than a type-switch plus an interface method set.
type Value struct {
	Kind Kind

	// Type points at the Value that models this value's type (a Class,
	// EnumType, Module, or built-in class Value). Type is self-referential
	// only for the built-in Type class (spec.md §3 invariant).
	Type *Value

	// Owner is set for Function values by NewFunction: the Interpreter whose
	// global frame defined them.
	Owner *Interpreter

	// Attrs is the value's own attribute pool. Only Kind.Modifiable() kinds
	// have one; it stays nil until a constructor or the first SetAttr
	// allocates it.
	Attrs *MemoryPool

	// Annotations holds front-end annotations attached via ANNOTATE
	// (converter, generator, formatter, static_method, internal, ...).
	Annotations map[string]*Value

	// Name is used for debug output and, for Class/Module/Space/EnumType,
	// the value's declared name.
	Name string

	// Data is the kind-specific payload; see numeric.go, text.go, list.go,
	// dict.go, range.go, function.go, class.go, module.go, enum.go,
	// iterator.go, foreign.go for the concrete payload types.
	Data interface{}

	marked bool
	heap   *Heap // which heap this value is tracked on, for sweep bookkeeping
	id     int64 // allocation-order identity, used for hash() on reference kinds
}

func (v *Value) String() string {
	return v.dumpDefault()
}

func (v *Value) dumpDefault() string {
	return fmt.Sprintf("<%s %s>", v.Kind, v.Name)
}

func (v *Value) isMarked() bool    { return v.marked }
func (v *Value) setMarked(m bool)  { v.marked = m }

// GetAttr resolves a named attribute (spec.md §4.2 "Attribute resolution").
// It first inspects the value's own attribute pool; for Object it then
// walks the class chain (class, then each parent in declaration order,
// then each parent's parents breadth-first, left-to-right tie-break); for
// Class it walks the super chain the same way. found is false to
// distinguish "no such attribute" from an attribute explicitly bound to
// Nil.
func (v *Value) GetAttr(name string) (val *Value, found bool) {
	if v.Attrs != nil {
		if reg, ok := v.Attrs.GetNameRegister(name); ok {
			return v.Attrs.Load(reg), true
		}
	}
	switch v.Kind {
	case KindObject:
		obj := v.Data.(*objectData)
		if val, ok := breadthFirstAttr(obj.Class, name); ok {
			return val, true
		}
	case KindClass:
		if val, ok := breadthFirstAttr(v, name); ok {
			return val, true
		}
	case KindModule:
		mod := v.Data.(*moduleData)
		if mod.Attrs != nil {
			if reg, ok := mod.Attrs.GetNameRegister(name); ok {
				return mod.Attrs.Load(reg), true
			}
		}
	case KindSpace:
		spc := v.Data.(*spaceData)
		if spc.Attrs != nil {
			if reg, ok := spc.Attrs.GetNameRegister(name); ok {
				return spc.Attrs.Load(reg), true
			}
		}
	case KindSuper:
		if val, ok := v.superGetAttr(name); ok {
			return val, true
		}
	}
	return nil, false
}

// breadthFirstAttr walks a Class's own attrs, then its supers' own attrs in
// declaration order, then each super's supers, level by level, left to
// right, which is the tie-break spec.md §4.2 requires.
func breadthFirstAttr(class *Value, name string) (*Value, bool) {
	if class == nil {
		return nil, false
	}
	queue := []*Value{class}
	seen := map[*Value]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		if cur.Attrs != nil {
			if reg, ok := cur.Attrs.GetNameRegister(name); ok {
				return cur.Attrs.Load(reg), true
			}
		}
		if cur.Kind == KindClass {
			queue = append(queue, cur.Data.(*classData).Supers...)
		}
	}
	return nil, false
}

// SetAttr writes a named attribute into the value's own attribute pool.
// Callers must check Kind.Modifiable() first; this panics otherwise, the
// same "internal invariant" fatality spec.md §7 describes for a corrupted
// program.
func (v *Value) SetAttr(name string, val *Value) {
	if v.Attrs == nil {
		if !v.Kind.Modifiable() {
			panic(fmt.Sprintf("vm: SetAttr on non-modifiable kind %s", v.Kind))
		}
		v.Attrs = NewMemoryPool(false, false)
	}
	reg, ok := v.Attrs.GetNameRegister(name)
	if !ok {
		reg = v.Attrs.GetFreeReg()
		v.Attrs.StoreName(reg, name)
	}
	v.Attrs.Store(reg, val)
}

// DelAttr removes a named attribute from the value's own pool, if present.
func (v *Value) DelAttr(name string) {
	if v.Attrs != nil {
		v.Attrs.RemoveName(name)
	}
}

// Clone implements spec.md §3's clone invariant: immutable kinds and
// interned singletons return themselves; Object/List/Dict/Super deep-copy
// their attributes/elements.
func (v *Value) Clone() *Value {
	if v.Kind.Immutable() {
		return v
	}
	switch v.Kind {
	case KindObject:
		return cloneObject(v)
	case KindList:
		return cloneList(v)
	case KindDict:
		return cloneDict(v)
	case KindSuper:
		return cloneSuper(v)
	default:
		return v
	}
}
