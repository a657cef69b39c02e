package vm

import "fmt"

// dictEntry is one (key, value) pair inside a hash bucket.
type dictEntry struct {
	Key *Value
	Val *Value
}

// dictData is a Dict value's payload: an IntHash→[(key,value)] bucket map
// (spec.md §3 table), preserving insertion order per bucket only - Dict
// itself makes no ordering guarantee across buckets, matching a hash map.
type dictData struct {
	buckets map[int64][]dictEntry
	size    int
}

func newDictData() *dictData {
	return &dictData{buckets: make(map[int64][]dictEntry)}
}

func (d *dictData) Len() int { return d.size }

func (d *dictData) Get(i *Interpreter, key *Value) (*Value, bool, error) {
	h := key.Hash()
	for _, e := range d.buckets[h] {
		eq, err := Equal(i, e.Key, key)
		if err != nil {
			return nil, false, err
		}
		if eq {
			return e.Val, true, nil
		}
	}
	return nil, false, nil
}

func (d *dictData) Set(i *Interpreter, key, val *Value) error {
	h := key.Hash()
	bucket := d.buckets[h]
	for idx, e := range bucket {
		eq, err := Equal(i, e.Key, key)
		if err != nil {
			return err
		}
		if eq {
			bucket[idx].Val = val
			return nil
		}
	}
	d.buckets[h] = append(bucket, dictEntry{Key: key, Val: val})
	d.size++
	return nil
}

func (d *dictData) Delete(i *Interpreter, key *Value) (bool, error) {
	h := key.Hash()
	bucket := d.buckets[h]
	for idx, e := range bucket {
		eq, err := Equal(i, e.Key, key)
		if err != nil {
			return false, err
		}
		if eq {
			d.buckets[h] = append(bucket[:idx], bucket[idx+1:]...)
			d.size--
			return true, nil
		}
	}
	return false, nil
}

// Entries returns every (key, value) pair in an unspecified but stable
// (per-call) order, used by the Dict iterator and by dictEqual.
func (d *dictData) Entries() []dictEntry {
	out := make([]dictEntry, 0, d.size)
	for _, bucket := range d.buckets {
		out = append(out, bucket...)
	}
	return out
}

// NewDict allocates an empty Dict value.
func (r *Runtime) NewDict() *Value {
	v := r.alloc(KindDict)
	v.Data = newDictData()
	return v
}

func cloneDict(v *Value) *Value {
	src := v.Data.(*dictData)
	dst := newDictData()
	for h, bucket := range src.buckets {
		cp := make([]dictEntry, len(bucket))
		for i, e := range bucket {
			cp[i] = dictEntry{Key: e.Key, Val: e.Val.Clone()}
		}
		dst.buckets[h] = cp
	}
	dst.size = src.size
	out := &Value{Kind: KindDict, Type: v.Type, Data: dst}
	if v.heap != nil {
		v.heap.track(out)
	}
	return out
}

func dictEqual(i *Interpreter, a, b *dictData) (bool, error) {
	if a.size != b.size {
		return false, nil
	}
	for _, e := range a.Entries() {
		bv, ok, err := b.Get(i, e.Key)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		eq, err := Equal(i, e.Val, bv)
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

// ErrKeyNotFound names a missing Dict lookup. Nothing in the package
// returns it; SUBSC on a missing key raises a KeyError Object directly.
var ErrKeyNotFound = fmt.Errorf("key not found")
