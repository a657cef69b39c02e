package vm

// TracingGC is the mark-and-sweep collector spec.md §4.6 describes,
// grounded directly on original_source/vm/gc.cpp: no Go teacher carries a
// custom collector (the teacher relies on the Go runtime's own GC for its
// object graph), so this file translates the reference algorithm rather
// than adapting teacher code.
type TracingGC struct {
	worklist []*Value
	liveVMs  map[*Interpreter]bool
}

func newTracingGC(_ *Runtime) *TracingGC {
	return &TracingGC{}
}

// Collect runs one full mark-and-sweep pass over rt's heap. Roots are the
// set spec.md §4.6 enumerates: every live Interpreter's frame/
// const-pool/call-frame/parent stacks, the importing-modules list, libms,
// the unwound-funs traceback list, and the generator-note buffers; the
// runtime's interned singletons, small Ints and built-in classes are
// marked as well. Popped frames are not roots.
func (gc *TracingGC) Collect(rt *Runtime) {
	rt.Heap.mu.Lock()
	defer rt.Heap.mu.Unlock()

	for _, v := range rt.Heap.values {
		v.setMarked(false)
	}

	gc.worklist = gc.worklist[:0]
	gc.liveVMs = make(map[*Interpreter]bool)
	mark := func(v *Value) {
		if v == nil || v.isMarked() {
			return
		}
		v.setMarked(true)
		gc.worklist = append(gc.worklist, v)
	}

	// Only the main VM(s) are roots on their own account (spec.md §4.6
	// "every live Interpreter"); a module's Interpreter is live only while
	// some reachable Module value still points at it, which gc.rootVM
	// discovers while blackening KindModule below.
	for _, vmi := range rt.Heap.vms {
		if vmi.isMain {
			gc.rootVM(vmi, mark)
		}
	}
	for _, m := range rt.importingModules {
		mark(m)
	}
	if rt.libms != nil {
		mark(rt.libms)
	}
	for _, f := range rt.unwoundFuns {
		mark(f)
	}
	for _, n := range rt.generatorNotes {
		mark(n)
	}
	mark(rt.nilValue)
	mark(rt.trueValue)
	mark(rt.falseValue)
	for _, si := range rt.smallInts {
		mark(si)
	}
	mark(rt.typeClass)
	for _, b := range rt.builtins {
		mark(b)
	}

	for len(gc.worklist) > 0 {
		v := gc.worklist[len(gc.worklist)-1]
		gc.worklist = gc.worklist[:len(gc.worklist)-1]
		gc.blacken(v, mark)
	}

	kept := rt.Heap.values[:0]
	var freed int64
	for _, v := range rt.Heap.values {
		if v.isMarked() {
			kept = append(kept, v)
		} else {
			freed += approxSize(v.Kind)
		}
	}
	rt.Heap.values = kept

	keptVMs := rt.Heap.vms[:0]
	for _, vmi := range rt.Heap.vms {
		if gc.liveVMs[vmi] {
			keptVMs = append(keptVMs, vmi)
		}
	}
	rt.Heap.vms = keptVMs

	rt.Heap.pools = nil
	rt.Heap.allocatedBytes -= freed
	if rt.Heap.allocatedBytes < 0 {
		rt.Heap.allocatedBytes = 0
	}
	rt.Heap.nextGC = rt.Heap.allocatedBytes*rt.Heap.growFactor + defaultNextGC
}

// rootVM marks vmi's frame/const-pool/call-frame/parent stacks and records
// vmi as live so the sweep in Collect keeps it in rt.Heap.vms.
func (gc *TracingGC) rootVM(vmi *Interpreter, mark func(*Value)) {
	if vmi == nil || gc.liveVMs[vmi] {
		return
	}
	gc.liveVMs[vmi] = true
	for _, pool := range vmi.Frames() {
		gc.markPool(pool, mark)
	}
	for _, pool := range vmi.ConstPools() {
		gc.markPool(pool, mark)
	}
	for _, cf := range vmi.CallFrames() {
		mark(cf.Target)
		for _, a := range cf.Args {
			mark(a.Value)
		}
	}
	for _, p := range vmi.Parents() {
		mark(p)
	}
}

func (gc *TracingGC) markPool(p *MemoryPool, mark func(*Value)) {
	if p == nil {
		return
	}
	for _, v := range p.regs {
		mark(v)
	}
	for _, v := range p.spilled {
		mark(v)
	}
	for _, ec := range p.catches {
		if ec.Type != nil {
			mark(ec.Type)
		}
	}
}

// blacken marks v's type, owner attribute pool, annotations, and every
// kind-specific child (spec.md §4.6 "From each root, recursively mark...").
func (gc *TracingGC) blacken(v *Value, mark func(*Value)) {
	mark(v.Type)
	gc.markPool(v.Attrs, mark)
	for _, a := range v.Annotations {
		mark(a)
	}
	switch v.Kind {
	case KindList:
		for _, e := range v.Data.([]*Value) {
			mark(e)
		}
	case KindDict:
		dd := v.Data.(*dictData)
		for _, bucket := range dd.buckets {
			for _, e := range bucket {
				mark(e.Key)
				mark(e.Val)
			}
		}
	case KindClass:
		cd := v.Data.(*classData)
		for _, s := range cd.Supers {
			mark(s)
		}
	case KindObject:
		od := v.Data.(*objectData)
		mark(od.Class)
	case KindFunction:
		fd := v.Data.(*functionData)
		for _, a := range fd.Args {
			mark(a.Default)
			for _, t := range a.Types {
				mark(t)
			}
		}
		for _, cl := range fd.Closures {
			gc.markPool(cl, mark)
		}
		mark(fd.ParentClass)
		gc.rootVM(fd.OwnerVM, mark)
	case KindFunctionList:
		for _, f := range v.Data.([]*Value) {
			mark(f)
		}
	case KindModule:
		md := v.Data.(*moduleData)
		gc.markPool(md.Attrs, mark)
		gc.rootVM(md.VM, mark)
	case KindSpace:
		sd := v.Data.(*spaceData)
		gc.markPool(sd.Attrs, mark)
		mark(sd.Owner)
	case KindEnumType:
		td := v.Data.(*enumTypeData)
		for _, ev := range td.Values {
			mark(ev)
		}
	case KindEnumValue:
		ed := v.Data.(*enumValueData)
		mark(ed.Type)
	case KindSuper:
		sd := v.Data.(*superData)
		mark(sd.Instance)
		mark(sd.FromClass)
	case KindIterator:
		id := v.Data.(*iteratorData)
		mark(id.src)
	}
}
