package encode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64(t *testing.T) {
	require.Equal(t, make([]byte, 8), Uint64(0))
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, Uint64(1))
	require.Equal(t, bytes.Repeat([]byte{0xff}, 8), Uint64(^uint64(0)))

	v, err := ReadUint64([]byte{0, 0, 0, 0, 0, 0, 1, 0})
	require.NoError(t, err)
	require.Equal(t, uint64(256), v)

	_, err = ReadUint64([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortInput)
}

func TestIdentity(t *testing.T) {
	b, err := Identity(1, "l")
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 'l'}, b)

	id, tag, n, err := ReadIdentity(append(b, 0xaa))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, "l", tag)
	require.Equal(t, len(b), n)

	empty, err := Identity(7, "")
	require.NoError(t, err)
	require.Len(t, empty, IDLen+TagLenPrefix)
}

func TestIdentityUnambiguous(t *testing.T) {
	// Without the length prefix these two would collide.
	a, err := Identity(1, "ab")
	require.NoError(t, err)
	b, err := Identity(1, "a")
	require.NoError(t, err)
	require.False(t, bytes.HasPrefix(a, b))
}

func TestTagTooLong(t *testing.T) {
	_, err := Tag(strings.Repeat("x", MaxTagLen+1))
	require.ErrorIs(t, err, ErrTagTooLong)
	require.EqualError(t, err, "标签超过 65535 字节")

	_, _, err = ReadTag([]byte{0, 5, 'a'})
	require.ErrorIs(t, err, ErrShortInput)
}

func TestLabeled(t *testing.T) {
	require.Equal(t, []byte{0x02, 9, 9}, Labeled(0x02, []byte{9, 9}))
}
