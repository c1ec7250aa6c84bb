package dsv

// matchEquivalenceSet attempts the longest match of es against the bytes
// available from s's current read cursor, returning the total number of
// bytes matched (0 if none). On any non-match, s's read cursor is restored
// exactly via putback (spec §4.3).
func matchEquivalenceSet(s *Scanner, es *EquivalenceSet) (int, error) {
	if es.empty() {
		return 0, nil
	}
	if es.single != nil {
		return matchLiteral(s, es.single, es.repeat)
	}
	return matchChunks(s, es.chunks, es.repeat)
}

// matchLiteral is the single-sequence shortcut: a flat byte-for-byte
// comparison with no dispatch table, optionally repeated back-to-back.
func matchLiteral(s *Scanner, lit []byte, repeatOuter bool) (int, error) {
	total := 0
	for {
		matched, err := matchLiteralOnce(s, lit)
		if err != nil {
			return 0, err
		}
		if matched < len(lit) {
			return total, nil
		}
		total += len(lit)
		if !repeatOuter || s.eof() {
			return total, nil
		}
	}
}

// matchLiteralOnce attempts a single occurrence of lit, returning how many
// bytes of it matched before EOF or a mismatch and restoring the read
// cursor on anything short of a full match.
func matchLiteralOnce(s *Scanner, lit []byte) (int, error) {
	if len(lit) == 1 {
		return matchSingleByte(s, lit[0])
	}

	matched := 0
	for matched < len(lit) {
		b, ok, err := s.getc()
		if err != nil {
			return 0, err
		}
		if !ok {
			s.putback(matched)
			return matched, nil
		}
		if b != lit[matched] {
			s.putback(matched + 1)
			return matched, nil
		}
		matched++
	}
	return matched, nil
}

// matchSingleByte is matchLiteralOnce specialized to one-byte literals,
// using fastIndexByte against whatever is already buffered before falling
// back to a plain getc when the buffer needs a refill.
func matchSingleByte(s *Scanner, want byte) (int, error) {
	if s.readOff < s.endOff {
		if fastIndexByte(s.buf[s.readOff:s.readOff+1], want) == 0 {
			s.readOff++
			return 1, nil
		}
		return 0, nil
	}
	b, ok, err := s.getc()
	if err != nil {
		return 0, err
	}
	if !ok || b != want {
		if ok {
			s.putback(1)
		}
		return 0, nil
	}
	return 1, nil
}

// matchChunks walks a compiled dispatch table, the Go recasting of
// read_bytes.h's labeled-goto loop into a single for loop with an explicit
// inner retry for fail-skip chains that don't consume a new input byte.
func matchChunks(s *Scanner, chunks []DispatchChunk, repeatOuter bool) (int, error) {
	total := 0
	chunkIx := 0
	accumulated := 0

	for {
		b, ok, err := s.getc()
		if err != nil {
			return 0, err
		}
		if !ok {
			s.putback(accumulated)
			return total, nil
		}
		accumulated++

		for {
			c := chunks[chunkIx]
			if b != c.Byte {
				if c.FailSkip == 0 {
					s.putback(accumulated)
					return total, nil
				}
				chunkIx += c.FailSkip
				continue
			}

			if c.Accept {
				total += accumulated
				accumulated = 0
			}
			if c.PassSkip != 0 {
				chunkIx += c.PassSkip
				break
			}
			if repeatOuter {
				chunkIx = 0
				break
			}
			return total, nil
		}
	}
}
