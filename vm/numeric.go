package vm

import (
	"fmt"
	"math"
	"strconv"
)

// Hash returns the 64-bit hash spec.md §3 requires to agree with equality
// for every Hashable kind.
func (v *Value) Hash() int64 {
	switch v.Kind {
	case KindInt:
		return v.Data.(int64)
	case KindFloat:
		f := v.Data.(float64)
		if f == math.Trunc(f) && f >= -(1<<53) && f <= 1<<53 {
			return int64(f) // integral Floats hash like the Int they equal
		}
		return int64(math.Float64bits(f))
	case KindBool:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case KindNil:
		return 0
	case KindString:
		return fnv1a(v.Data.(string))
	case KindBytes:
		return fnv1aBytes(v.Data.([]byte))
	case KindNote:
		return fnv1a(v.Data.(*noteData).Body)
	case KindRange:
		rd := v.Data.(*rangeData)
		return rd.Start ^ rd.Step<<21 ^ rd.End<<42
	case KindFunction, KindFunctionList, KindClass, KindModule, KindSpace,
		KindEnumType, KindEnumValue, KindSuper:
		return v.id
	case KindObject:
		return hashObject(v)
	default:
		panic(fmt.Sprintf("vm: Hash called on non-hashable kind %s", v.Kind))
	}
}

// hashObject implements SPEC_FULL.md's `hash_obj` supplement structurally:
// it hashes the sorted attribute names only, since attribute values may
// themselves be unhashable (e.g. a List field), and falls back to identity
// for an Object with no attributes. No user __hash method is consulted.
func hashObject(v *Value) int64 {
	if v.Attrs == nil {
		return v.id
	}
	names := v.Attrs.SymbolNames()
	if len(names) == 0 {
		return v.id
	}
	var h uint64 = 14695981039346656037
	for _, n := range names {
		for i := 0; i < len(n); i++ {
			h ^= uint64(n[i])
			h *= 1099511628211
		}
	}
	return int64(h)
}

func fnv1a(s string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return int64(h)
}

func fnv1aBytes(b []byte) int64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return int64(h)
}

// AsFloat converts a numeric value to float64 (spec.md §4.2 "common to
// every value": as_float()).
func (v *Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Data.(int64)), true
	case KindFloat:
		return v.Data.(float64), true
	default:
		return 0, false
	}
}

// AsString returns the display form used by OUTPUT and string conversion,
// not the delimited literal form dump() uses.
func (v *Value) AsString() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case KindFloat:
		return formatFloat(v.Data.(float64))
	case KindBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case KindNil:
		return "nil"
	case KindString:
		return v.Data.(string)
	case KindBytes:
		return string(v.Data.([]byte))
	case KindNote:
		return v.Data.(*noteData).Body
	default:
		return v.dumpDefault()
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Ensure a numeric-looking float always carries a decimal point or
	// exponent so it is visibly distinct from an Int's display form.
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' || s[i] == 'E' {
			return s
		}
	}
	return s + ".0"
}

// Dump returns the literal-delimited form (quoted strings, etc.) used by
// the `dump()` builtin.
func (v *Value) Dump() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Data.(string))
	case KindBytes:
		return fmt.Sprintf("b%q", string(v.Data.([]byte)))
	default:
		return v.AsString()
	}
}

// Truthy implements the boolean-conversion rule used by JMP_IF_TRUE/
// JMP_IF_FALSE and logical operators: Bool is itself, Nil is false, Int/
// Float are false only at zero, String/Bytes/List/Dict are false only when
// empty, everything else is true.
func (v *Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Data.(bool)
	case KindNil:
		return false
	case KindInt:
		return v.Data.(int64) != 0
	case KindFloat:
		return v.Data.(float64) != 0
	case KindString:
		return v.Data.(string) != ""
	case KindBytes:
		return len(v.Data.([]byte)) != 0
	case KindList:
		return len(v.Data.([]*Value)) != 0
	case KindDict:
		return v.Data.(*dictData).Len() != 0
	default:
		return true
	}
}
