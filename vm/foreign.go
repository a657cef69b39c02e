package vm

// foreignTag names the concrete host resource a Foreign value wraps
// (SPEC_FULL.md §C "Foreign value subtypes" supplement, following the
// original reference's CSize/CPointer/FileStream family rather than
// reducing everything to one `interface{}` escape hatch).
type foreignTag byte

const (
	ForeignCVoid foreignTag = iota
	ForeignCLong
	ForeignCDouble
	ForeignCString
	ForeignFileStream
	ForeignRegex
	ForeignOpaque // anything libms wants to round-trip without inspection
)

// foreignData is a Foreign value's payload: an opaque host resource plus an
// optional finalizer the GC runs when the value is swept (spec.md §4.2
// "Foreign values carry host resources the collector does not trace into
// but must still release").
type foreignData struct {
	Tag     foreignTag
	Payload interface{}
	Close   func() error
}

// NewForeign wraps a host resource as a Foreign value.
func (r *Runtime) NewForeign(tag foreignTag, payload interface{}, closeFn func() error) *Value {
	v := r.alloc(KindForeign)
	v.Data = &foreignData{Tag: tag, Payload: payload, Close: closeFn}
	return v
}

// Payload type-asserts a Foreign value's wrapped resource.
func (v *Value) Payload() interface{} {
	return v.Data.(*foreignData).Payload
}
