package noct

// StringObj is an immutable, NUL-terminated-in-spirit UTF-8 byte buffer
// with a lazily computed 32-bit hash (spec §3.2). Go's native string type
// already gives us an immutable byte buffer, so Data simply stores the
// decoded string; its byte length is len(Data) (there is no Len method),
// and LEN on a string counts characters instead, through runeCount in
// helpers.go, per the LOADDOT/LEN rule in spec §4.4.
type StringObj struct {
	head *objHeader

	Data       string
	hash       uint32
	hashCached bool
}

func (s *StringObj) gcHeader() *objHeader { return s.head }
func (s *StringObj) objKind() Kind        { return KindString }

// Hash returns the cached canonical hash of the string's bytes, computing
// and caching it on first use (spec §3.2: "hash, once cached, matches
// content"; §9 resolves the canonical function as FNV-1a 32-bit — see
// DESIGN.md Open Question 1).
func (s *StringObj) Hash() uint32 {
	if !s.hashCached {
		s.hash = fnv1a32(s.Data)
		s.hashCached = true
	}
	return s.hash
}

// cacheHash primes the hash from a value already known to be canonical,
// e.g. one decoded from a bytecode image's SCONST operand (spec §4.3: "the
// hash value present in the image must match the canonical hash of the
// bytes; the runtime trusts it for lookups").
func (s *StringObj) cacheHash(h uint32) {
	s.hash = h
	s.hashCached = true
}

func fnv1a32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

func stringObjSize(data string) uint32 {
	return uint32(len(data)) + 16
}

// NewString constructs a String value, copying data into a fresh heap
// object (spec §4.1 "String construction either copies or adopts a
// caller-provided byte buffer; identical buffers may but are not required
// to be interned" — this runtime always copies and never interns, which is
// a legal point in that contract).
func (env *Env) NewString(data string) (Value, error) {
	s := &StringObj{Data: data}
	s.head = env.vm.heap.alloc(KindString, stringObjSize(data), s)
	env.vm.maybeFastGC()
	return newObjValue(KindString, s), nil
}

// newStringWithHash constructs a String value whose hash is already known
// (the SCONST bytecode operand carries one), avoiding recomputation and
// matching rt_make_string_with_hash.
func (env *Env) newStringWithHash(data string, hash uint32) Value {
	s := &StringObj{Data: data}
	s.head = env.vm.heap.alloc(KindString, stringObjSize(data), s)
	s.cacheHash(hash)
	env.vm.maybeFastGC()
	return newObjValue(KindString, s)
}
