package vm

// Equal implements spec.md §4.2 "Equality": hash must agree with equality;
// comparing across numeric kinds promotes to Float; comparing disparate
// kinds returns false rather than raising. Object equality first consults
// a user-defined __eq overload (spec.md §4.2 "Polymorphic arithmetic").
func Equal(i *Interpreter, a, b *Value) (bool, error) {
	if a == b {
		return true, nil
	}
	if a.Kind == KindObject || b.Kind == KindObject {
		return objectEqual(i, a, b)
	}
	if a.Kind != b.Kind {
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if aok && bok {
			return af == bf, nil
		}
		return false, nil
	}
	switch a.Kind {
	case KindInt:
		return a.Data.(int64) == b.Data.(int64), nil
	case KindFloat:
		return a.Data.(float64) == b.Data.(float64), nil
	case KindBool:
		return a.Data.(bool) == b.Data.(bool), nil
	case KindNil:
		return true, nil
	case KindString:
		return a.Data.(string) == b.Data.(string), nil
	case KindBytes:
		return string(a.Data.([]byte)) == string(b.Data.([]byte)), nil
	case KindNote:
		an, bn := a.Data.(*noteData), b.Data.(*noteData)
		return an.Format == bn.Format && an.Body == bn.Body, nil
	case KindRange:
		ar, br := a.Data.(*rangeData), b.Data.(*rangeData)
		return *ar == *br, nil
	case KindList:
		al, bl := a.Data.([]*Value), b.Data.([]*Value)
		if len(al) != len(bl) {
			return false, nil
		}
		for idx := range al {
			eq, err := Equal(i, al[idx], bl[idx])
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case KindDict:
		return dictEqual(i, a.Data.(*dictData), b.Data.(*dictData))
	case KindEnumValue:
		av, bv := a.Data.(*enumValueData), b.Data.(*enumValueData)
		return av.Type == bv.Type && a.Name == b.Name, nil
	default:
		return a == b, nil
	}
}
