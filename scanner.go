package dsv

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// DefaultMinBufferSize is used by callers with no tighter bound on the
// longest sequence their equivalence sets might match.
const DefaultMinBufferSize = 4096

// MinScannerBufferSize is the smallest buffer NewScanner will honor.
// Buffers this small only make sense for tests exercising
// compaction/growth directly.
const MinScannerBufferSize = 16

// Scanner is the buffered stream cursor from spec.md §4.2: a forward byte
// cursor over an io.Reader with a bounded rewind window and zero-copy
// access to accepted tokens, maintaining the invariant
//
//	tokenOff <= lookaheadOff <= putbackOff <= readOff <= endOff <= len(buf)
//
// Grounded on
// _examples/original_source/libdsv/src/scanner_state.h's
// basic_scanner_state.
type Scanner struct {
	r    *bufio.Reader
	path string

	buf []byte

	tokenOff     int
	lookaheadOff int
	putbackOff   int
	readOff      int
	endOff       int

	minBufSize  int
	readaheadID int

	atEOF bool

	// pinned disables compaction in refill while the caller (the Parser,
	// while a row's worth of zero-copy field slices are still
	// outstanding) needs every previously-handed-out offset to stay
	// valid. Growth still proceeds normally -- it allocates a fresh
	// array rather than mutating the existing one in place, so slices
	// into the old array remain correct.
	pinned bool
}

// NewScanner returns a Scanner reading from r, buffering at least
// minBufSize bytes at a time. minBufSize must exceed twice the longest
// single match the caller will ever attempt against this Scanner (spec §3
// ScannerBuffer invariant) to avoid an infinite refill loop; values below
// MinScannerBufferSize are raised to it.
func NewScanner(r io.Reader, path string, minBufSize int) *Scanner {
	if minBufSize < MinScannerBufferSize {
		minBufSize = MinScannerBufferSize
	}
	return &Scanner{
		r:          bufio.NewReader(r),
		path:       path,
		buf:        make([]byte, minBufSize),
		minBufSize: minBufSize,
	}
}

// Pin prevents refill from compacting the buffer until Unpin is called.
func (s *Scanner) Pin() { s.pinned = true }

// Unpin re-enables compaction.
func (s *Scanner) Unpin() { s.pinned = false }

// pos returns the current read offset, usable as a stable start/end marker
// for a zero-copy slice as long as the Scanner stays pinned for the
// duration.
func (s *Scanner) pos() int { return s.readOff }

// bufferSlice returns buf[from:to]. Valid only until the next refill that
// is allowed to compact (see Pin) or grow into a replacement array the
// caller hasn't re-sliced from.
func (s *Scanner) bufferSlice(from, to int) []byte { return s.buf[from:to] }

// getc returns the next byte and true, or (0, false) if the stream is
// exhausted.
func (s *Scanner) getc() (byte, bool, error) {
	if s.readOff == s.endOff {
		more, err := s.refill()
		if err != nil {
			return 0, false, err
		}
		if !more {
			return 0, false, nil
		}
	}
	b := s.buf[s.readOff]
	s.readOff++
	return b, true, nil
}

// setLookahead marks the current read position as the new putback
// boundary and records identifier to be returned by the next accept.
func (s *Scanner) setLookahead(identifier int) {
	s.putbackOff = s.readOff
	s.readaheadID = identifier
}

// putback rewinds the read cursor by nbytes. nbytes must not exceed the
// number of bytes read since the last setLookahead.
func (s *Scanner) putback(nbytes int) {
	if nbytes == 0 {
		return
	}
	if s.readOff-s.putbackOff < nbytes {
		panic("dsv: putback exceeds bytes read since the last setLookahead")
	}
	s.readOff -= nbytes
}

// accept slides the token window forward: the bytes most recently bounded
// by setLookahead become the next call's token(), and returns the
// identifier passed to that setLookahead call.
func (s *Scanner) accept() int {
	s.tokenOff = s.lookaheadOff
	s.lookaheadOff = s.putbackOff
	return s.readaheadID
}

// token returns the bytes of the most recently accepted lookahead window.
// Valid only until the next getc, refill, or accept.
func (s *Scanner) token() []byte {
	return s.buf[s.tokenOff:s.lookaheadOff]
}

// eof reports whether the stream is exhausted and the read cursor has
// caught up to it. Like C's feof, this is only observable after a read
// attempt has returned nothing (spec §4.2).
func (s *Scanner) eof() bool {
	return s.readOff == s.endOff && s.atEOF
}

// refill compacts (when allowed) or grows the buffer and reads more bytes
// from the underlying stream. It returns false once the stream is
// exhausted.
func (s *Scanner) refill() (bool, error) {
	if s.tokenOff != 0 && !s.pinned {
		copy(s.buf, s.buf[s.tokenOff:s.readOff])
		s.lookaheadOff -= s.tokenOff
		s.putbackOff -= s.tokenOff
		s.readOff -= s.tokenOff
		s.endOff -= s.tokenOff
		s.tokenOff = 0
	}

	if avail := len(s.buf) - s.readOff; avail < s.minBufSize {
		grown := make([]byte, s.readOff+s.minBufSize)
		copy(grown, s.buf[:s.readOff])
		s.buf = grown
	}

	for {
		n, err := s.r.Read(s.buf[s.readOff:])
		if n > 0 {
			s.endOff = s.readOff + n
			if err == io.EOF {
				s.atEOF = true
			}
			return true, nil
		}
		if err == io.EOF {
			s.atEOF = true
			s.endOff = s.readOff
			return false, nil
		}
		if err != nil {
			return false, errors.WithStack(&IoError{Path: s.path, Err: err})
		}
		// n == 0, err == nil: a spurious read; retry.
	}
}
