package vm

import (
	"errors"
	"fmt"
)

// NewList allocates a List value from elems (copied, so later LIST_PUSH
// mutation of the source slice never aliases).
func (r *Runtime) NewList(elems []*Value) *Value {
	v := r.alloc(KindList)
	cp := make([]*Value, len(elems))
	copy(cp, elems)
	v.Data = cp
	return v
}

func cloneList(v *Value) *Value {
	src := v.Data.([]*Value)
	cp := make([]*Value, len(src))
	for i, e := range src {
		cp[i] = e.Clone()
	}
	out := &Value{Kind: KindList, Type: v.Type, Data: cp}
	if v.heap != nil {
		v.heap.track(out)
	}
	return out
}

// ErrIndexOutOfRange is returned by list/subscript indexing past the ends
// (spec.md §8 "List[len] raises IndexError").
var ErrIndexOutOfRange = errors.New("index out of range")

// ListGet resolves a (possibly negative) index into a List, matching
// spec.md §8's "List[-1] returns the last element".
func ListGet(v *Value, idx int64) (*Value, error) {
	elems := v.Data.([]*Value)
	n := int64(len(elems))
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, n)
	}
	return elems[idx], nil
}

// ListSet writes val at a (possibly negative) index, used by SUBSC
// assignment opcodes' set_subsc(vm,key,val) contract (spec.md §4.2).
func ListSet(v *Value, idx int64, val *Value) error {
	elems := v.Data.([]*Value)
	n := int64(len(elems))
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, n)
	}
	elems[idx] = val
	return nil
}

// ListPush appends val, used by the LIST_PUSH/LIST_PUSH_CONST opcodes that
// precede a BUILD_LIST.
func ListPush(v *Value, val *Value) {
	v.Data = append(v.Data.([]*Value), val)
}

// ListTail returns src[-1:], the SUBSCLAST spread form (DESIGN.md Open
// Question decision).
func ListTail(v *Value) []*Value {
	elems := v.Data.([]*Value)
	if len(elems) == 0 {
		return nil
	}
	return elems[len(elems)-1:]
}

// ListRest returns src[n:], the SUBSCREST spread form.
func ListRest(v *Value, n int) []*Value {
	elems := v.Data.([]*Value)
	if n < 0 {
		n = 0
	}
	if n > len(elems) {
		n = len(elems)
	}
	return elems[n:]
}

// Len reports the length of any Kind spec.md §4.2 calls sizeable
// (String, Bytes, List, Dict, Range), for use by a len()-style library
// builtin outside package vm, which cannot type-assert into dictData or
// rangeData itself.
func (v *Value) Len() (int64, error) {
	switch v.Kind {
	case KindString:
		return int64(v.RuneLen()), nil
	case KindBytes:
		return int64(len(v.Data.([]byte))), nil
	case KindList:
		return int64(len(v.Data.([]*Value))), nil
	case KindDict:
		return int64(v.Data.(*dictData).Len()), nil
	case KindRange:
		return v.Data.(*rangeData).Len(), nil
	default:
		return 0, &TypeMismatchError{Message: v.Kind.String() + " has no length"}
	}
}
