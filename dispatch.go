package dsv

// DispatchChunk is one entry of a compiled EquivalenceSet's dispatch table.
// A byte sequence is matched by walking chunks from index 0, comparing the
// next input byte against Byte and following PassSkip on a match or
// FailSkip on a mismatch.
type DispatchChunk struct {
	// Byte is the value this chunk expects at its position in the trie.
	Byte byte

	// Accept marks the end of one complete member sequence. A match
	// reaching an Accept chunk contributes its accumulated length to the
	// Matcher's running total.
	Accept bool

	// PassSkip is added to the chunk index on a match. Zero means "this is
	// the end of the chain, stop" (only valid on an Accept chunk).
	// Negative values implement immediate repetition: they jump back to
	// the first chunk of the sequence's base stub.
	PassSkip int

	// FailSkip is added to the chunk index on a mismatch, without
	// consuming another input byte. Zero means "no alternative here,
	// the match fails".
	FailSkip int
}
