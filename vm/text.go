package vm

import "unicode/utf8"

// noteData is a Note value's payload: a format tag plus a String body
// (spec.md §3 table). Notes are buffered output destined for a registered
// generator (spec.md §4.5) unless the user overrides output directly.
type noteData struct {
	Format string
	Body   string
}

// NewString allocates a String value.
func (r *Runtime) NewString(s string) *Value {
	v := r.alloc(KindString)
	v.Data = s
	return v
}

// NewBytes allocates a Bytes value.
func (r *Runtime) NewBytes(b []byte) *Value {
	v := r.alloc(KindBytes)
	cp := make([]byte, len(b))
	copy(cp, b)
	v.Data = cp
	return v
}

// NewNote allocates a Note value with the given format tag and body.
func (r *Runtime) NewNote(format, body string) *Value {
	v := r.alloc(KindNote)
	v.Data = &noteData{Format: format, Body: body}
	return v
}

// RuneLen returns the number of Unicode code points in a String value,
// used by LEN-style builtins (list.go). The String iterator walks byte
// offsets and does not use it.
func (v *Value) RuneLen() int {
	return utf8.RuneCountInString(v.Data.(string))
}
