package noct

// DictObj is an open-addressed hash table from Value keys to Value values,
// preserving insertion order for by-index enumeration (spec §3.2 "Dict:
// an associative table ... iteration by index visits entries in insertion
// order"). Growth and the copy-on-resize/forwarding protocol mirror
// ArrayObj exactly (spec §4.2's forwarding-pointer requirement applies to
// both container kinds).
type DictObj struct {
	head *objHeader

	slots []dictSlot
	order []int // slot indices, in insertion order; entries removed leave a -1 gap-filler skip
	count int   // live entries (excludes tombstones)
	newer *DictObj
}

type dictSlot struct {
	state dictSlotState
	key   Value
	val   Value
	hash  uint32
	// orderPos indexes into DictObj.order so Remove can blank the slot's
	// entry there without a linear scan.
	orderPos int
}

type dictSlotState uint8

const (
	slotEmpty dictSlotState = iota
	slotUsed
	slotTombstone
)

func (d *DictObj) gcHeader() *objHeader { return d.head }
func (d *DictObj) objKind() Kind        { return KindDict }

func (d *DictObj) latest() *DictObj {
	for d.newer != nil {
		d = d.newer
	}
	return d
}

// Size returns the number of live key/value pairs.
func (d *DictObj) Size() int { return d.count }

func dictObjSize(slotCount int) uint32 {
	return uint32(slotCount)*40 + 32
}

const dictInitialSlots = 8
const dictMaxLoadNum, dictMaxLoadDen = 7, 10 // load factor 0.7 before growth

// NewEmptyDict constructs an empty Dict value.
func (env *Env) NewEmptyDict() Value {
	d := &DictObj{slots: make([]dictSlot, dictInitialSlots)}
	d.head = env.vm.heap.alloc(KindDict, dictObjSize(dictInitialSlots), d)
	env.vm.maybeFastGC()
	return newObjValue(KindDict, d)
}

// hashKey computes the lookup hash for a key, dispatching on its kind
// (spec §4.4 LOADSYMBOL/LOADDOT rule "hash then compare" is generalized
// here to any value-keyed Dict lookup, per §3.2's "keys compare by the
// same total-equality rule used elsewhere").
func hashKey(key Value) uint32 {
	switch key.kind {
	case KindInt:
		return uint32(key.num)*2654435761 + 1
	case KindFloat:
		return uint32(key.num)*2654435761 + 2
	case KindString:
		return key.StringObj().Hash()
	default:
		// Array/Dict/Func keys hash by identity; rare in practice but must
		// still resolve deterministically within a single VM run.
		return identityHash(key.obj)
	}
}

func identityHash(o gcObject) uint32 {
	h := o.gcHeader()
	return uint32(uintptrOf(h))*2654435761 + 3
}

// valuesEqual implements the total-equality rule used for both Dict key
// comparison and the EQ bytecode family (spec §4.4): equal kind and equal
// content, except Int/Float never compare equal to each other or to
// anything else cross-kind.
func valuesEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt:
		return a.num == b.num
	case KindFloat:
		return a.Float() == b.Float()
	case KindString:
		as, bs := a.StringObj(), b.StringObj()
		return as == bs || as.Data == bs.Data
	default:
		return a.obj == b.obj
	}
}

// find locates key's slot, returning (index, found). On miss it returns
// the index of the first empty-or-tombstone slot suitable for insertion.
func (d *DictObj) find(key Value, hash uint32) (int, bool) {
	mask := len(d.slots) - 1
	i := int(hash) & mask
	firstFree := -1
	for probes := 0; probes < len(d.slots); probes++ {
		s := &d.slots[i]
		switch s.state {
		case slotEmpty:
			if firstFree < 0 {
				firstFree = i
			}
			return firstFree, false
		case slotTombstone:
			if firstFree < 0 {
				firstFree = i
			}
		case slotUsed:
			if s.hash == hash && valuesEqual(s.key, key) {
				return i, true
			}
		}
		i = (i + 1) & mask
	}
	return firstFree, false
}

// Get looks up key, returning (value, true) on a hit.
func (d *DictObj) Get(key Value) (Value, bool) {
	d = d.latest()
	idx, found := d.find(key, hashKey(key))
	if !found {
		return Value{}, false
	}
	return d.slots[idx].val, true
}

// Set inserts or updates key -> val, growing (copy-on-resize) when the
// table's load factor would exceed the threshold. Returns the DictObj
// actually written to, which may differ from the receiver's latest() if a
// resize occurred.
func (d *DictObj) set(env *Env, key, val Value) *DictObj {
	d = d.latest()
	if (d.count+1)*dictMaxLoadDen >= len(d.slots)*dictMaxLoadNum {
		d = d.grow(env)
	}
	hash := hashKey(key)
	idx, found := d.find(key, hash)
	s := &d.slots[idx]
	if found {
		s.val = val
		return d
	}
	s.state = slotUsed
	s.key = key
	s.val = val
	s.hash = hash
	s.orderPos = len(d.order)
	d.order = append(d.order, idx)
	d.count++
	return d
}

// Remove deletes key if present, leaving a tombstone so later probes still
// find entries that collided with it. There is no parallel-GC build and
// no guard here: removal always proceeds (DESIGN.md Open Question 2).
func (d *DictObj) Remove(key Value) bool {
	d = d.latest()
	idx, found := d.find(key, hashKey(key))
	if !found {
		return false
	}
	s := &d.slots[idx]
	d.order[s.orderPos] = -1
	s.state = slotTombstone
	s.key = Value{}
	s.val = Value{}
	d.count--
	return true
}

// grow reallocates into a fresh DictObj at double capacity (ignoring
// tombstones), rehashing every live entry in insertion order so the new
// table's order slice is contiguous again, then installs the forwarding
// pointer.
func (d *DictObj) grow(env *Env) *DictObj {
	newSlots := len(d.slots) * 2
	repl := &DictObj{slots: make([]dictSlot, newSlots)}
	repl.head = env.vm.heap.alloc(KindDict, dictObjSize(newSlots), repl)
	for _, idx := range d.order {
		if idx < 0 {
			continue
		}
		s := &d.slots[idx]
		if s.state != slotUsed {
			continue
		}
		repl.set(env, s.key, s.val)
	}
	d.newer = repl
	env.vm.maybeFastGC()
	return repl
}

// KeyAt and ValAt support GETDICTKEYBYINDEX/GETDICTVALBYINDEX (spec §4.4),
// enumerating in insertion order and skipping removed entries' gaps.
func (d *DictObj) KeyAt(index int) (Value, bool) {
	d = d.latest()
	pos := d.liveIndexToOrderPos(index)
	if pos < 0 {
		return Value{}, false
	}
	return d.slots[d.order[pos]].key, true
}

func (d *DictObj) ValAt(index int) (Value, bool) {
	d = d.latest()
	pos := d.liveIndexToOrderPos(index)
	if pos < 0 {
		return Value{}, false
	}
	return d.slots[d.order[pos]].val, true
}

func (d *DictObj) liveIndexToOrderPos(liveIndex int) int {
	seen := 0
	for i, idx := range d.order {
		if idx < 0 {
			continue
		}
		if seen == liveIndex {
			return i
		}
		seen++
	}
	return -1
}

// Copy returns a shallow copy: a new DictObj with the same key/value pairs
// in the same insertion order (spec §4.8 Dict API "shallow copy").
func (d *DictObj) Copy(env *Env) *DictObj {
	d = d.latest()
	repl := &DictObj{slots: make([]dictSlot, len(d.slots))}
	repl.head = env.vm.heap.alloc(KindDict, dictObjSize(len(d.slots)), repl)
	for _, idx := range d.order {
		if idx < 0 {
			continue
		}
		s := &d.slots[idx]
		if s.state != slotUsed {
			continue
		}
		repl.set(env, s.key, s.val)
	}
	env.vm.maybeFastGC()
	return repl
}
