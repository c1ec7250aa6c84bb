package dsv

// SequenceSpec describes one candidate byte sequence a caller wants
// recognized as a member of an EquivalenceSet, and whether it may repeat
// immediately back-to-back (e.g. a doubled escape character).
type SequenceSpec struct {
	Bytes  []byte
	Repeat bool
}

// EquivalenceSet groups the byte sequences that all count as a match for a
// single syntactic role: a field delimiter, a record delimiter, or one side
// of an escape pair (spec §3, §4.1).
type EquivalenceSet struct {
	descs  []*byteSequenceDesc
	chunks []DispatchChunk

	// repeat marks the whole set as eligible for the Matcher's outer
	// "keep matching any member again immediately" loop (spec §4.3),
	// distinct from a single descriptor's own internal repeat flag.
	repeat bool

	// exclusive disables the single-sequence literal shortcut even for a
	// one-member set, forcing every match through the compiled dispatch
	// table. Built-in multi-member delimiter sets set this so a shorter
	// member can never accept once a longer overlapping member already
	// matched further ahead (spec Open Question #2).
	exclusive bool

	// single holds the literal bytes to shortcut-match when this set has
	// exactly one member and exclusive is false.
	single []byte
}

// NewEquivalenceSet compiles specs into a dispatch table. repeatOuter marks
// the whole set as eligible for the Matcher's outer repeat loop; exclusive
// disables the one-member literal shortcut.
func NewEquivalenceSet(specs []SequenceSpec, repeatOuter, exclusive bool) (*EquivalenceSet, error) {
	es := &EquivalenceSet{repeat: repeatOuter, exclusive: exclusive}
	if len(specs) == 0 {
		return es, nil
	}

	descs := make([]*byteSequenceDesc, 0, len(specs))
	for _, spec := range specs {
		d, err := newByteSequenceDesc(spec.Bytes, spec.Repeat)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}

	chunks, err := compileSequences(descs)
	if err != nil {
		return nil, err
	}

	es.descs = descs
	es.chunks = chunks
	if len(descs) == 1 && !exclusive {
		es.single = descs[0].base
		// The literal shortcut repeats only through the set-level loop, so
		// a repeatable sole member turns that loop on.
		if descs[0].repeat {
			es.repeat = true
		}
	}
	return es, nil
}

// empty reports whether this set has no members at all (a caller may
// legitimately configure, say, no escape pairs).
func (e *EquivalenceSet) empty() bool { return e == nil || len(e.descs) == 0 }

// longestNormalized returns the length of the longest normalized member,
// used by Parser to size the Scanner's buffer floor.
func (e *EquivalenceSet) longestNormalized() int {
	longest := 0
	for _, d := range e.descs {
		if len(d.normalized) > longest {
			longest = len(d.normalized)
		}
	}
	return longest
}
