package vm

// enumTypeData is an EnumType value's payload: the ordered set of values it
// defines (spec.md §4.2 "Enums").
type enumTypeData struct {
	Values []*Value // each a KindEnumValue back-pointing at this type
}

// enumValueData is an EnumValue value's payload: which EnumType it belongs
// to and its ordinal (used for comparisons and for `dump()`). The declared
// name lives on the value itself, in Value.Name.
type enumValueData struct {
	Type    *Value
	Ordinal int
}

// NewEnumType allocates an EnumType and constructs one EnumValue per name,
// in declaration order, so Ordinal matches source order (spec.md §4.2:
// "ordinal matches declaration order").
func (r *Runtime) NewEnumType(name string, valueNames []string) *Value {
	et := r.alloc(KindEnumType)
	et.Name = name
	td := &enumTypeData{}
	et.Data = td
	for idx, vn := range valueNames {
		ev := r.alloc(KindEnumValue)
		ev.Name = vn
		ev.Type = et
		ev.Data = &enumValueData{Type: et, Ordinal: idx}
		td.Values = append(td.Values, ev)
	}
	return et
}

// Value looks up one of the type's members by declared name.
func (td *enumTypeData) Value(name string) (*Value, bool) {
	for _, v := range td.Values {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}
