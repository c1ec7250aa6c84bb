package dsv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByteSequenceDescRejectsEmpty(t *testing.T) {
	_, err := newByteSequenceDesc(nil, false)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, ErrEmptySequence, cfgErr.Code)
}

func TestIsRepetitive(t *testing.T) {
	require.True(t, isRepetitive([]byte("ab"), []byte("abab")))
	require.True(t, isRepetitive([]byte("ab"), []byte("ababab")))
	require.False(t, isRepetitive([]byte("ab"), []byte("aba")))
	require.False(t, isRepetitive([]byte("ab"), []byte("abac")))
	require.False(t, isRepetitive(nil, []byte("ab")))
}

func TestNormalizeSequencesRejectsAmbiguousRepetition(t *testing.T) {
	foo, err := newByteSequenceDesc([]byte("foo"), true)
	require.NoError(t, err)
	foofoo, err := newByteSequenceDesc([]byte("foofoo"), false)
	require.NoError(t, err)

	err = normalizeSequences([]*byteSequenceDesc{foo, foofoo})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, ErrAmbiguousRepetition, cfgErr.Code)
}

func TestNormalizeSequencesExtendsOnSharedStub(t *testing.T) {
	// "a" repeats; "aab" shares a 2-byte prefix with "aa" (two copies of
	// the base "a"), so "a"'s normalized form must grow until its
	// trailing stub no longer collides with "aab".
	a, err := newByteSequenceDesc([]byte("a"), true)
	require.NoError(t, err)
	aab, err := newByteSequenceDesc([]byte("aab"), false)
	require.NoError(t, err)

	require.NoError(t, normalizeSequences([]*byteSequenceDesc{a, aab}))
	require.Equal(t, []byte("aaa"), a.normalized)
}

func TestCompileSequencesSingleNonRepeat(t *testing.T) {
	d, err := newByteSequenceDesc([]byte(","), false)
	require.NoError(t, err)
	chunks, err := compileSequences([]*byteSequenceDesc{d})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, byte(','), chunks[0].Byte)
	require.True(t, chunks[0].Accept)
	require.Equal(t, 0, chunks[0].PassSkip)
}

func TestCompileSequencesRepeatLoopsBack(t *testing.T) {
	d, err := newByteSequenceDesc([]byte("ab"), true)
	require.NoError(t, err)
	chunks, err := compileSequences([]*byteSequenceDesc{d})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, -1, chunks[1].PassSkip)
}

func TestCompileSequencesSharedPrefix(t *testing.T) {
	crlf, err := newByteSequenceDesc([]byte("\r\n"), false)
	require.NoError(t, err)
	cr, err := newByteSequenceDesc([]byte("\r"), false)
	require.NoError(t, err)
	lf, err := newByteSequenceDesc([]byte("\n"), false)
	require.NoError(t, err)

	chunks, err := compileSequences([]*byteSequenceDesc{crlf, cr, lf})
	require.NoError(t, err)

	require.True(t, len(chunks) >= 2)
	require.Equal(t, byte('\r'), chunks[0].Byte)
	require.True(t, chunks[0].Accept, "a lone \\r must accept on its own")
}
