package vm

// classData is a Class value's payload. A class's own methods and fields
// live in the Value's generic Attrs pool (Value.SetAttr/GetAttr), so
// classData only needs the super chain and the mutability policy spec.md
// §4.2 describes for "abstract" classes.
type classData struct {
	Supers     []*Value
	Abstract   bool
	Exception  bool // true for the built-in Exception hierarchy (classes.go)
}

// NewClass allocates a Class value with no supers; callers append to
// Supers directly (a class header can declare several parents).
func (r *Runtime) NewClass(name string) *Value {
	v := r.alloc(KindClass)
	v.Name = name
	v.Data = &classData{}
	return v
}

// objectData is an Object value's payload: the class it was constructed
// from. Instance fields live in Value.Attrs, same as every other
// Modifiable kind, so GetAttr's "own pool first" rule covers instance
// field shadowing of class attributes for free.
type objectData struct {
	Class *Value
}

// NewObject allocates an Object of the given class with an empty instance
// attribute pool.
func (r *Runtime) NewObject(class *Value) *Value {
	v := r.alloc(KindObject)
	v.Name = class.Name
	v.Type = class
	v.Attrs = NewMemoryPool(false, false)
	v.Data = &objectData{Class: class}
	return v
}

// superData is a Super value's payload: a bound instance plus the class to
// resume attribute search from (spec.md §4.2 "super(...) rebinds the
// starting class of the breadth-first search to the caller's immediate
// parent").
type superData struct {
	Instance   *Value
	FromClass  *Value
}

// NewSuper allocates a Super view over instance, searching from fromClass's
// supers onward.
func (r *Runtime) NewSuper(instance, fromClass *Value) *Value {
	v := r.alloc(KindSuper)
	v.Data = &superData{Instance: instance, FromClass: fromClass}
	return v
}

// cloneObject deep-copies an Object's instance attribute pool; the class
// pointer is shared (spec.md §3: clone() "duplicates...attribute pools",
// classes themselves are immutable so duplicating the pointer is correct).
func cloneObject(v *Value) *Value {
	out := &Value{Kind: KindObject, Type: v.Type, Name: v.Name}
	if v.Attrs != nil {
		out.Attrs = v.Attrs.Clone()
	}
	out.Data = &objectData{Class: v.Data.(*objectData).Class}
	if v.heap != nil {
		v.heap.track(out)
	}
	return out
}

// cloneSuper copies a Super's view unchanged; the bound instance is not
// itself re-cloned since Super is a redirect for attribute lookup, not an
// owner of the instance.
func cloneSuper(v *Value) *Value {
	sd := v.Data.(*superData)
	out := &Value{Kind: KindSuper, Name: v.Name}
	out.Data = &superData{Instance: sd.Instance, FromClass: sd.FromClass}
	if v.heap != nil {
		v.heap.track(out)
	}
	return out
}

// objectEqual implements the equality fallback spec.md §4.2 describes for
// Object: prefer a user-defined __eq method if the class chain provides
// one, else fall back to identity.
func objectEqual(i *Interpreter, a, b *Value) (bool, error) {
	if eq, ok := a.GetAttr("__eq"); ok && eq.Kind == KindFunction {
		result, err := i.CallValue(eq, []*Value{a, b}, nil)
		if err != nil {
			return false, err
		}
		return result.Truthy(), nil
	}
	return a == b, nil
}

// GetAttr for Super redirects the breadth-first search to start past
// FromClass, skipping the instance's own class and any attrs on the
// instance itself (spec.md §4.2: "super bypasses the instance's own
// pool").
func (v *Value) superGetAttr(name string) (*Value, bool) {
	sd := v.Data.(*superData)
	for _, sup := range sd.FromClass.Data.(*classData).Supers {
		if val, ok := breadthFirstAttr(sup, name); ok {
			return val, true
		}
	}
	return nil, false
}
