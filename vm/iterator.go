package vm

import (
	"errors"
	"unicode/utf8"
)

// ErrStopIteration signals exhaustion; the ITER/FOR machinery translates
// it into the StopIteration exception class (spec.md §7).
var ErrStopIteration = errors.New("stop iteration")

// iteratorSource tags which kind of source an iteratorData wraps.
type iteratorSource byte

const (
	iterString iteratorSource = iota
	iterBytes
	iterList
	iterDict
	iterRange
	iterFunctionList
	iterObject
)

// iteratorData is an Iterator value's payload: it borrows its source
// (spec.md §3 "Ownership and lifetime": "Iterators borrow from their
// source") and tracks a cursor.
type iteratorData struct {
	source iteratorSource
	src    *Value
	pos    int   // byte offset for strings, index otherwise
	cursor int64 // current Range value, when source==iterRange
	bucket []dictEntry
}

func (r *Runtime) newIterator(source iteratorSource, src *Value) *Value {
	v := r.alloc(KindIterator)
	it := &iteratorData{source: source, src: src}
	if source == iterDict {
		it.bucket = src.Data.(*dictData).Entries()
	}
	if source == iterRange {
		it.cursor = src.Data.(*rangeData).Start
	}
	v.Data = it
	return v
}

// Iter implements spec.md §4.2's `iter(vm)`: construct a fresh Iterator
// bound to v. Iterating an Iterator returns the iterator itself (spec.md
// §8 round-trip property).
func (r *Runtime) Iter(v *Value) (*Value, error) {
	switch v.Kind {
	case KindString:
		return r.newIterator(iterString, v), nil
	case KindBytes:
		return r.newIterator(iterBytes, v), nil
	case KindNote:
		return r.newIterator(iterString, r.NewString(v.Data.(*noteData).Body)), nil
	case KindList:
		return r.newIterator(iterList, v), nil
	case KindDict:
		return r.newIterator(iterDict, v), nil
	case KindRange:
		return r.newIterator(iterRange, v), nil
	case KindFunctionList:
		return r.newIterator(iterFunctionList, v), nil
	case KindIterator:
		return v, nil
	case KindObject:
		return r.newIterator(iterObject, v), nil
	default:
		return nil, errNotIterable(v)
	}
}

func errNotIterable(v *Value) error {
	return &TypeMismatchError{Message: v.Kind.String() + " is not iterable"}
}

// TypeMismatchError models a host-side failure to satisfy a Moss operation
// contract; the interpreter wraps it into a raised TypeError Object before
// it reaches user code (spec.md §7).
type TypeMismatchError struct{ Message string }

func (e *TypeMismatchError) Error() string { return e.Message }

// LibraryError lets a native Function (libms's builtins, or any other host
// callback wired in through NewNativeFunction) raise a specific exception
// class instead of being collapsed into a generic TypeError: execCall and
// CallValue both check for it before falling back to the TypeMismatchError
// treatment (spec.md §6 "Callbacks to external collaborators" gives library
// functions the same ability to raise as bytecode's own RAISE opcode).
type LibraryError struct {
	ClassName string
	Message   string
}

func (e *LibraryError) Error() string { return e.Message }

// Next implements spec.md §4.2's `next(vm)`: advance the iterator and
// return the next element, or ErrStopIteration when exhausted. Object
// iterators delegate to the instance's user-defined __next method and are
// handled by the interpreter (they need a call, not a pure data walk), so
// Next here covers every built-in source kind.
func (it *iteratorData) Next(rt *Runtime) (*Value, error) {
	switch it.source {
	case iterString:
		s := it.src.Data.(string)
		if it.pos >= len(s) {
			return nil, ErrStopIteration
		}
		r, size := utf8.DecodeRuneInString(s[it.pos:])
		it.pos += size
		return rt.NewString(string(r)), nil
	case iterBytes:
		b := it.src.Data.([]byte)
		if it.pos >= len(b) {
			return nil, ErrStopIteration
		}
		v := rt.Int(int64(b[it.pos]))
		it.pos++
		return v, nil
	case iterList:
		elems := it.src.Data.([]*Value)
		if it.pos >= len(elems) {
			return nil, ErrStopIteration
		}
		v := elems[it.pos]
		it.pos++
		return v, nil
	case iterDict:
		if it.pos >= len(it.bucket) {
			return nil, ErrStopIteration
		}
		e := it.bucket[it.pos]
		it.pos++
		return rt.NewList([]*Value{e.Key, e.Val}), nil
	case iterRange:
		rd := it.src.Data.(*rangeData)
		if rd.Step == 0 {
			return nil, ErrZeroStep
		}
		if rd.Step > 0 && it.cursor >= rd.End {
			return nil, ErrStopIteration
		}
		if rd.Step < 0 && it.cursor <= rd.End {
			return nil, ErrStopIteration
		}
		v := rt.Int(it.cursor)
		it.cursor += rd.Step
		return v, nil
	case iterFunctionList:
		fns := it.src.Data.([]*Value)
		if it.pos >= len(fns) {
			return nil, ErrStopIteration
		}
		v := fns[it.pos]
		it.pos++
		return v, nil
	default:
		return nil, ErrStopIteration
	}
}
