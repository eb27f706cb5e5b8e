package noct

// This file implements the three collection modes spec §4.2 describes:
// FastGC (nursery-only), FullGC (every generation, stop-the-world
// mark-sweep, no compaction), and CompactGC (FullGC plus sliding
// compaction). Roots are every frame's tmpvar slots across every Env,
// the VM's global pin list, every frame's local pin list, and the global
// symbol table (spec §4.2's root enumeration).

// FastGC collects the nursery only, promoting survivors that have aged
// past the configured threshold into the graduate generation (spec §4.2
// mode 1).
func (vm *VM) FastGC() {
	vm.markRoots(false)
	vm.sweepGeneration(GenNursery, vm.heap.cfg.PromotionThreshold, GenGraduate)
	vm.heap.bytesSinceFastGC = 0
	vm.heap.totalCollections++
	vm.heap.totalFastCollections++
}

// FullGC runs a complete stop-the-world mark-sweep across every
// generation (spec §4.2 mode 2), promoting survivors one generation at a
// time exactly like FastGC's nursery pass.
func (vm *VM) FullGC() {
	vm.markRoots(true)
	vm.sweepGeneration(GenNursery, vm.heap.cfg.PromotionThreshold, GenGraduate)
	vm.sweepGeneration(GenGraduate, vm.heap.cfg.PromotionThreshold, GenTenure)
	vm.sweepGeneration(GenTenure, -1, GenTenure)
	vm.sweepGeneration(GenLarge, -1, GenLarge)
	vm.heap.bytesSinceFastGC = 0
	vm.heap.totalCollections++
	vm.heap.totalFullCollections++
}

// CompactGC runs FullGC and then collapses every Array/Dict forwarding
// chain left behind by copy-on-resize, rewriting every surviving root's
// Value to point directly at the latest incarnation (spec §4.2 mode 3,
// §8.2 "object identity may change; content-equality does not" — this is
// the Go-honest reading of "sliding compaction": pointers aren't
// relocatable bytes here, so compaction instead walks every reachable
// Value and rewires forwarding instead of moving memory; see DESIGN.md).
func (vm *VM) CompactGC() {
	vm.FullGC()
	vm.forEachRootValue(func(v *Value) {
		switch v.kind {
		case KindArray:
			if a, ok := v.obj.(*ArrayObj); ok {
				if latest := a.latest(); latest != a {
					v.obj = latest
				}
			}
		case KindDict:
			if d, ok := v.obj.(*DictObj); ok {
				if latest := d.latest(); latest != d {
					v.obj = latest
				}
			}
		}
	})
	vm.heap.totalCompactions++
}

// markRoots walks every root and marks the transitive closure reachable
// from it. full selects whether to traverse Values pointing into every
// generation (true) or restrict the walk to what FastGC needs to decide
// nursery liveness (in practice the closure is identical either way,
// since an object anywhere can reference a nursery object; full exists
// for clarity/symmetry with spec §4.2's two-mode description, not a
// behavioral difference).
func (vm *VM) markRoots(full bool) {
	_ = full
	vm.forEachRootValue(func(v *Value) {
		markValue(*v)
	})
}

// forEachRootValue invokes f once per root Value slot: every frame's
// tmpvar table across every Env up to its current depth, every global
// and local pin, and the VM's global symbol table.
func (vm *VM) forEachRootValue(f func(*Value)) {
	vm.allEnvs(func(e *Env) {
		for i := 0; i <= e.frameIdx; i++ {
			fr := &e.frames[i]
			for j := 0; j < fr.tmpvarSize; j++ {
				f(&fr.tmpvar[j])
			}
			for j := 0; j < fr.pinnedCount; j++ {
				f(fr.pinned[j])
			}
		}
	})
	for i := 0; i < vm.globalPinCount; i++ {
		f(vm.globalPins[i])
	}
	for k, v := range vm.globals {
		cp := v
		f(&cp)
		vm.globals[k] = cp
	}
}

// markValue marks v's object (if any) and recurses into its children,
// matching the reference type-by-type: String has none, Array/Dict hold
// further Values, Func's only reachable child state is native-side
// (opaque to the collector, spec §4.2 "native closures are outside the
// GC's reach; pin them").
func markValue(v Value) {
	obj := v.object()
	if obj == nil {
		return
	}
	h := obj.gcHeader()
	if h.marked {
		return
	}
	h.marked = true

	switch o := obj.(type) {
	case *ArrayObj:
		o = o.latest()
		if o.head.marked && o.head != h {
			return
		}
		o.head.marked = true
		for _, elem := range o.table {
			markValue(elem)
		}
	case *DictObj:
		o = o.latest()
		if o.head.marked && o.head != h {
			return
		}
		o.head.marked = true
		for i := range o.slots {
			if o.slots[i].state == slotUsed {
				markValue(o.slots[i].key)
				markValue(o.slots[i].val)
			}
		}
	}
}

// sweepGeneration reclaims every unmarked header in gen, resets mark
// bits on survivors, ages and promotes survivors past threshold into
// dest (threshold < 0 disables promotion, used for tenure/large which
// have nowhere further to go).
func (vm *VM) sweepGeneration(gen Generation, threshold int, dest Generation) {
	h := vm.heap
	var survivors *objHeader
	var survivorCount int
	var survivorBytes uint64
	var promoteList []*objHeader

	for node := h.buckets[gen]; node != nil; {
		next := node.next
		if !node.marked {
			node.next = nil
		} else {
			node.age++
			if threshold >= 0 && node.age >= threshold && dest != gen {
				node.age = 0
				// Leave marked true: dest's own sweep may run later in this
				// same collection (FullGC sweeps generations oldest-after-
				// youngest in one pass) and must not treat an object
				// promoted moments ago as unreached garbage.
				promoteList = append(promoteList, node)
			} else {
				node.marked = false
				node.next = survivors
				survivors = node
				survivorCount++
				survivorBytes += uint64(node.size)
			}
		}
		node = next
	}
	h.buckets[gen] = survivors
	h.counts[gen] = survivorCount
	h.bytes[gen] = survivorBytes

	for _, node := range promoteList {
		h.link(node, dest)
	}
}
