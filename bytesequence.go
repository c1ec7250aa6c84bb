package dsv

import "github.com/pkg/errors"

// byteSequenceDesc is one candidate member of an EquivalenceSet before
// compilation: its literal base form, its normalized (possibly
// self-extended) form, and whether it may repeat immediately back-to-back.
//
// Grounded on bytesequence_compiler.h's bytesequence_desc.
type byteSequenceDesc struct {
	base       []byte
	normalized []byte
	repeat     bool
}

func newByteSequenceDesc(base []byte, repeat bool) (*byteSequenceDesc, error) {
	if len(base) == 0 {
		return nil, errors.WithStack(newConfigError(ErrEmptySequence,
			"byte sequence must not be empty"))
	}
	normalized := make([]byte, len(base))
	copy(normalized, base)
	return &byteSequenceDesc{base: base, normalized: normalized, repeat: repeat}, nil
}

// isRepetitive reports whether b consists entirely of whole repetitions of
// a. a must be non-empty.
func isRepetitive(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 || len(b)%len(a) != 0 {
		return false
	}
	for off := 0; off < len(b); off += len(a) {
		for i := 0; i < len(a); i++ {
			if a[i] != b[off+i] {
				return false
			}
		}
	}
	return true
}

// commonPrefixLen returns the length of the longest common prefix of a and
// b, bounded by the shorter of the two.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// normalizeSequences runs the normalize_seq fixpoint: every repeatable
// descriptor's normalized form is extended with additional copies of its
// base until its trailing stub shares no bytes with any sibling's
// normalized form. A sibling whose normalized form is a whole-multiple
// repetition of a repeatable descriptor's normalized form is rejected as
// AmbiguousRepetition, since the compiler could never tell which one a run
// of input bytes belongs to.
func normalizeSequences(descs []*byteSequenceDesc) error {
	for {
		changed := false
		for _, cur := range descs {
			if !cur.repeat {
				continue
			}
			for _, insp := range descs {
				if insp == cur {
					continue
				}
				if isRepetitive(cur.normalized, insp.normalized) {
					return errors.WithStack(newConfigError(ErrAmbiguousRepetition,
						"one byte sequence is a whole-multiple repetition of another"))
				}
				shared := commonPrefixLen(cur.normalized, insp.normalized)
				if shared > len(cur.normalized)-len(cur.base) {
					extended := make([]byte, len(cur.normalized), len(cur.normalized)+len(cur.base))
					copy(extended, cur.normalized)
					cur.normalized = append(extended, cur.base...)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
		if !changed {
			return nil
		}
	}
}

// assignBytes builds the straight chunk chain for the first descriptor in
// an equivalence set. Every baseLen-th chunk is marked Accept, and if
// repeat is set the final chunk's PassSkip loops back to the start of the
// last base stub instead of terminating. For a one-byte base that jump is
// 0, which the matcher reads as the end of the chain, so a one-byte member
// does not repeat through the dispatch table.
func assignBytes(normalized []byte, baseLen int, repeat bool) []DispatchChunk {
	chunks := make([]DispatchChunk, len(normalized))
	for i, b := range normalized {
		chunks[i] = DispatchChunk{Byte: b, PassSkip: 1}
		if (i+1)%baseLen == 0 {
			chunks[i].Accept = true
		}
	}
	last := len(chunks) - 1
	if repeat {
		chunks[last].PassSkip = -(baseLen - 1)
	} else {
		chunks[last].PassSkip = 0
	}
	return chunks
}

// compileBytes merges one additional normalized sequence into an existing
// dispatch chain, sharing whatever prefix already exists and appending new
// chunks (patching the predecessor's pass/fail skip) wherever the walk
// falls off the existing trie.
//
// Grounded on bytesequence_compiler.h's compile_bytes, recast from its
// iterator/byte_off/last_off/test_result state machine into index
// arithmetic over a Go slice.
func compileBytes(chunks []DispatchChunk, normalized []byte, baseLen int, repeat bool) []DispatchChunk {
	const (
		testNone = iota
		testPass
		testFail
	)

	byteOff := 0
	lastOff := -1
	testResult := testNone

	i := 0
	for i < len(normalized) {
		b := normalized[i]

		if lastOff == byteOff {
			newOff := len(chunks)
			accept := (i+1)%baseLen == 0
			chunks = append(chunks, DispatchChunk{Byte: b, Accept: accept})
			switch testResult {
			case testPass:
				chunks[lastOff].PassSkip = newOff - lastOff
			case testFail:
				chunks[lastOff].FailSkip = newOff - lastOff
			}
			byteOff = newOff
			lastOff = newOff
			testResult = testPass
			i++
			continue
		}

		if chunks[byteOff].Byte == b {
			i++
			lastOff = byteOff
			if i%baseLen == 0 {
				chunks[byteOff].Accept = true
			}
			byteOff += chunks[byteOff].PassSkip
			testResult = testPass
		} else {
			lastOff = byteOff
			byteOff += chunks[byteOff].FailSkip
			testResult = testFail
		}
	}

	if repeat {
		chunks[lastOff].PassSkip = -(baseLen - 1)
	}
	return chunks
}

// compileSequences orchestrates normalize+assign+compile over every
// descriptor, producing the final dispatch table for an EquivalenceSet.
func compileSequences(descs []*byteSequenceDesc) ([]DispatchChunk, error) {
	if len(descs) == 0 {
		return nil, nil
	}
	if err := normalizeSequences(descs); err != nil {
		return nil, err
	}

	chunks := assignBytes(descs[0].normalized, len(descs[0].base), descs[0].repeat)
	for _, d := range descs[1:] {
		chunks = compileBytes(chunks, d.normalized, len(d.base), d.repeat)
	}
	return chunks, nil
}
