package blake3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasherMatchesSumAcrossWriteGranularities(t *testing.T) {
	input := fillPattern(65539)
	want := Sum(input)

	splits := []int{1, 63, 64, 65, 1023, 1024, 1025, 2048, 4096}

	h := New()
	pos := 0
	for _, n := range splits {
		if pos+n > len(input) {
			break
		}
		h.Write(input[pos : pos+n])
		pos += n
	}
	h.Write(input[pos:])

	require.Equal(t, want, h.Finalize(), "split-write digest must match Sum's one-shot digest")
}

func TestHasherUpdateParallelMatchesUpdate(t *testing.T) {
	input := fillPattern(200000)

	serial := New().Update(input).Finalize()
	parallel := New().UpdateParallel(input).Finalize()

	require.Equal(t, serial, parallel, "UpdateParallel must produce the same digest as Update")
}

func TestHasherFinalizeIsIdempotent(t *testing.T) {
	h := New()
	h.Write([]byte("hello "))
	h.Write([]byte("world"))

	first := h.Finalize()
	second := h.Finalize()
	require.Equal(t, first, second)

	h.Write([]byte(" more"))
	third := h.Finalize()
	require.NotEqual(t, first, third, "further writes after Finalize must change the digest")
}

func TestHasherReset(t *testing.T) {
	h := New()
	h.Write(fillPattern(5000))
	h.Reset()

	require.Equal(t, uint64(0), h.Count())
	require.Equal(t, Sum(nil), h.Finalize(), "Reset must restore the Hasher to its initial empty state")
}

func TestHasherCount(t *testing.T) {
	h := New()
	require.Equal(t, uint64(0), h.Count())
	h.Write(make([]byte, 100))
	require.Equal(t, uint64(100), h.Count())
	h.Write(make([]byte, 2000))
	require.Equal(t, uint64(2100), h.Count())
}

func TestNewKeyedMatchesSumKeyed(t *testing.T) {
	var key [KeyLen]byte
	copy(key[:], []byte("whats the Elvish word for friend"))
	input := fillPattern(3000)

	want := SumKeyed(key, input)
	h := NewKeyed(key)
	h.Write(input)
	require.Equal(t, want, h.Finalize())
}

func TestNewDeriveKeyMatchesDeriveKey(t *testing.T) {
	ctx := "BLAKE3 2019-12-27 16:29:52 test vectors context"
	material := fillPattern(3000)

	want := DeriveKey(ctx, material)
	h := NewDeriveKey(ctx)
	h.Write(material)
	got := h.Finalize()
	require.Equal(t, want[:], got[:])
}

func TestHasherImplementsHashHash(t *testing.T) {
	h := New()
	require.Equal(t, OutLen, h.Size())
	require.Equal(t, BlockLen, h.BlockSize())

	n, err := h.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	sum := h.Sum(nil)
	require.Len(t, sum, OutLen)
	require.True(t, bytes.Equal(sum, Sum([]byte("abc")).Bytes()))

	prefix := []byte("prefix:")
	sumAppended := h.Sum(prefix)
	require.True(t, bytes.HasPrefix(sumAppended, prefix))
}

func TestHasherEmptyUpdateIsANoOp(t *testing.T) {
	h := New()
	h.Write([]byte("abc"))
	before := h.Finalize()
	h.Write(nil)
	after := h.Finalize()
	require.Equal(t, before, after)
}
