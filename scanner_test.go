package dsv

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScannerGetcAndEOF(t *testing.T) {
	s := NewScanner(strings.NewReader("ab"), "", MinScannerBufferSize)
	require.False(t, s.eof())

	b, ok, err := s.getc()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte('a'), b)

	b, ok, err = s.getc()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte('b'), b)

	_, ok, err = s.getc()
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, s.eof())
}

func TestScannerPutbackRestoresExactBytes(t *testing.T) {
	s := NewScanner(strings.NewReader("hello"), "", MinScannerBufferSize)
	s.setLookahead(7)

	a, _, err := s.getc()
	require.NoError(t, err)
	s.putback(1)
	b, _, err := s.getc()
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestScannerAcceptReturnsIdentifierAndToken(t *testing.T) {
	s := NewScanner(strings.NewReader("abcdef"), "", MinScannerBufferSize)

	_, _, _ = s.getc()
	_, _, _ = s.getc()
	s.setLookahead(42)
	_, _, _ = s.getc()
	_, _, _ = s.getc()

	id := s.accept()
	require.Equal(t, 42, id)
	require.Equal(t, []byte("ab"), s.token())
}

func TestScannerPutbackPastBoundaryPanics(t *testing.T) {
	s := NewScanner(strings.NewReader("abc"), "", MinScannerBufferSize)
	s.setLookahead(0)
	_, _, _ = s.getc()
	require.Panics(t, func() { s.putback(2) })
}

func TestScannerRefillGrowsPastSmallBuffer(t *testing.T) {
	payload := strings.Repeat("x", 100)
	s := NewScanner(strings.NewReader(payload), "", MinScannerBufferSize)
	s.Pin()

	for i := 0; i < len(payload); i++ {
		b, ok, err := s.getc()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, byte('x'), b)
	}
	_, ok, err := s.getc()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScannerRefillCompactsWhenUnpinned(t *testing.T) {
	payload := strings.Repeat("y", 64)
	s := NewScanner(strings.NewReader(payload), "", MinScannerBufferSize)

	for i := 0; i < 10; i++ {
		_, ok, err := s.getc()
		require.NoError(t, err)
		require.True(t, ok)
	}
	// accept() lags one round behind (it finalizes the *previous*
	// lookahead window): the first call only primes lookaheadOff, the
	// second actually advances tokenOff past the 10 bytes read so far.
	s.setLookahead(0)
	s.accept()
	require.Equal(t, 0, s.tokenOff)
	s.setLookahead(0)
	s.accept()
	require.Equal(t, 10, s.tokenOff)

	for i := 10; i < len(payload); i++ {
		_, ok, err := s.getc()
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 0, s.tokenOff, "refill must have compacted the retired bytes away")
	require.Equal(t, 0, s.readOff-s.tokenOff-(len(payload)-10))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestScannerWrapsIoErrors(t *testing.T) {
	boom := io.ErrUnexpectedEOF
	s := NewScanner(errReader{boom}, "input.csv", MinScannerBufferSize)
	_, _, err := s.getc()
	require.Error(t, err)
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "input.csv", ioErr.Path)
}

func TestScannerBufferSlice(t *testing.T) {
	s := NewScanner(bytes.NewReader([]byte("abcdef")), "", MinScannerBufferSize)
	start := s.pos()
	for i := 0; i < 3; i++ {
		_, _, _ = s.getc()
	}
	require.Equal(t, []byte("abc"), s.bufferSlice(start, s.pos()))
}
