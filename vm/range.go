package vm

import "errors"

// rangeData is a Range value's payload: start/step/end triple (spec.md §3
// table). Ranges are Modifiable (carry a user-attribute pool via
// Value.Attrs) but the triple itself is fixed at construction.
type rangeData struct {
	Start, Step, End int64
}

// ErrZeroStep is raised (wrapped as ValueError) when an iterated Range has
// a zero step (spec.md §4.2 "Ranges").
var ErrZeroStep = errors.New("range step cannot be zero")

// NewRange allocates a Range(start, end, step) value. Any triple is
// accepted at construction, including a zero step; a zero step only raises
// ErrZeroStep at iteration time, per spec.md: "zero step raises ValueError
// when iterated" (construction itself never raises).
func (r *Runtime) NewRange(start, end, step int64) *Value {
	v := r.alloc(KindRange)
	v.Data = &rangeData{Start: start, Step: step, End: end}
	return v
}

// Len returns the number of values a Range yields when iterated: 0 for an
// empty range, and -1 for a zero step, which never yields a value.
func (rd *rangeData) Len() int64 {
	if rd.Step > 0 {
		if rd.Start >= rd.End {
			return 0
		}
		return (rd.End - rd.Start + rd.Step - 1) / rd.Step
	}
	if rd.Step < 0 {
		if rd.Start <= rd.End {
			return 0
		}
		return (rd.Start - rd.End - rd.Step - 1) / (-rd.Step)
	}
	return -1
}
