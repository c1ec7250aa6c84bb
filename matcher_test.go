package dsv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchLiteralExactMatch(t *testing.T) {
	s := NewScanner(strings.NewReader("abc,rest"), "", MinScannerBufferSize)
	n, err := matchLiteral(s, []byte("abc"), false)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	b, _, _ := s.getc()
	require.Equal(t, byte(','), b)
}

func TestMatchLiteralPartialMismatchRestoresCursor(t *testing.T) {
	s := NewScanner(strings.NewReader("abd"), "", MinScannerBufferSize)
	s.setLookahead(0)
	n, err := matchLiteral(s, []byte("abc"), false)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	for _, want := range []byte("abd") {
		b, ok, err := s.getc()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, b)
	}
}

func TestMatchLiteralEOFMidMatch(t *testing.T) {
	s := NewScanner(strings.NewReader("ab"), "", MinScannerBufferSize)
	s.setLookahead(0)
	n, err := matchLiteral(s, []byte("abc"), false)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	for _, want := range []byte("ab") {
		b, ok, err := s.getc()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, b)
	}
	_, ok, err := s.getc()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMatchLiteralRepeatOuterGreedy(t *testing.T) {
	s := NewScanner(strings.NewReader("abababx"), "", MinScannerBufferSize)
	n, err := matchLiteral(s, []byte("ab"), true)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	b, _, _ := s.getc()
	require.Equal(t, byte('x'), b)
}

func TestMatchSingleByteUsesBufferedFastIndexByte(t *testing.T) {
	s := NewScanner(strings.NewReader(",rest"), "", MinScannerBufferSize)
	// Prime the buffer so matchSingleByte takes the buffered branch (the
	// one that calls fastIndexByte) instead of falling back to getc.
	_, _, err := s.getc()
	require.NoError(t, err)
	s.putback(1)
	require.True(t, s.readOff < s.endOff)

	n, err := matchLiteralOnce(s, []byte(","))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMatchSingleByteMismatchDoesNotConsume(t *testing.T) {
	s := NewScanner(strings.NewReader("xrest"), "", MinScannerBufferSize)
	s.setLookahead(0)
	n, err := matchLiteralOnce(s, []byte(","))
	require.NoError(t, err)
	require.Equal(t, 0, n)
	b, _, _ := s.getc()
	require.Equal(t, byte('x'), b)
}

func TestMatchChunksSharedPrefixDisambiguation(t *testing.T) {
	crlf, err := newByteSequenceDesc([]byte("\r\n"), false)
	require.NoError(t, err)
	cr, err := newByteSequenceDesc([]byte("\r"), false)
	require.NoError(t, err)
	lf, err := newByteSequenceDesc([]byte("\n"), false)
	require.NoError(t, err)
	chunks, err := compileSequences([]*byteSequenceDesc{crlf, cr, lf})
	require.NoError(t, err)

	s := NewScanner(strings.NewReader("\r\nX"), "", MinScannerBufferSize)
	n, err := matchChunks(s, chunks, false)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	s2 := NewScanner(strings.NewReader("\rX"), "", MinScannerBufferSize)
	n2, err := matchChunks(s2, chunks, false)
	require.NoError(t, err)
	require.Equal(t, 1, n2)

	s3 := NewScanner(strings.NewReader("\nX"), "", MinScannerBufferSize)
	n3, err := matchChunks(s3, chunks, false)
	require.NoError(t, err)
	require.Equal(t, 1, n3)
}

func TestMatchChunksNoMatchRestoresCursor(t *testing.T) {
	d, err := newByteSequenceDesc([]byte(","), false)
	require.NoError(t, err)
	chunks, err := compileSequences([]*byteSequenceDesc{d})
	require.NoError(t, err)

	s := NewScanner(strings.NewReader("xy"), "", MinScannerBufferSize)
	s.setLookahead(0)
	n, err := matchChunks(s, chunks, false)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	b, _, _ := s.getc()
	require.Equal(t, byte('x'), b)
}
