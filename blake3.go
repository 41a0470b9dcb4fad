package blake3

import (
	"crypto/subtle"
	"encoding/hex"
)

// Sizes and limits fixed by the BLAKE3 specification.
const (
	BlockLen = 64
	ChunkLen = 1024
	OutLen   = 32
	KeyLen   = 32
	MaxDepth = 54
)

// Domain-separation flag bits, one-hot in the low byte of the compression
// state.
const (
	flagChunkStart        byte = 1 << 0
	flagChunkEnd          byte = 1 << 1
	flagParent            byte = 1 << 2
	flagRoot              byte = 1 << 3
	flagKeyedHash         byte = 1 << 4
	flagDeriveKeyContext  byte = 1 << 5
	flagDeriveKeyMaterial byte = 1 << 6
)

// IV holds the eight 32-bit BLAKE3 initialization words. These are the same
// constants SHA-256 uses.
var IV = CVWords{
	0x6A09E667, 0xBB67AE85, 0x3C6EF372, 0xA54FF53A,
	0x510E527F, 0x9B05688C, 0x1F83D9AB, 0x5BE0CD19,
}

// CVWords is the internal, word-oriented chaining-value representation.
type CVWords [8]uint32

// CVBytes is the wire-oriented chaining-value representation: 32
// little-endian bytes.
type CVBytes [OutLen]byte

// Hash is a 32-byte BLAKE3 digest.
type Hash [OutLen]byte

// String renders the digest as lowercase hex, the way callers expect to
// print it.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the digest bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, OutLen)
	copy(out, h[:])
	return out
}

// Equal reports whether two digests are byte-identical. It is not
// constant-time; callers comparing digests supplied by an adversary (e.g.
// MAC verification) must use ConstantTimeEqual instead.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// ConstantTimeEqual reports whether two digests are byte-identical, in time
// independent of where they first differ. The core BLAKE3 algorithm
// provides no comparison primitive of its own; this wraps crypto/subtle for
// callers that need one, per the spec's explicit requirement that
// constant-time comparison is the caller's responsibility.
func (h Hash) ConstantTimeEqual(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

// output is a snapshot of the state just before the final compression of a
// tree node. Two observers derive a chaining value or a root hash from it
// without mutating the snapshot, so a single output may be queried either
// way, or both, any number of times.
type output struct {
	inputCV  CVWords
	block    [BlockLen]byte
	blockLen byte
	counter  uint64
	flags    byte
}

// chainingValue compresses this output with its own flags (no ROOT bit) and
// returns the resulting 32-byte chaining value.
func (o output) chainingValue() CVBytes {
	cv := compress(o.inputCV, o.block, o.blockLen, o.counter, o.flags)
	return bytesFromWords(cv)
}

// rootHash compresses this output with the ROOT flag set, producing the
// final digest. The counter must be zero at the root; this is enforced by
// every caller constructing a root-eligible output.
func (o output) rootHash() Hash {
	debugAssert(o.counter == 0, "output.rootHash: counter must be 0 at the root, got %d", o.counter)
	cv := compress(o.inputCV, o.block, o.blockLen, o.counter, o.flags|flagRoot)
	return Hash(bytesFromWords(cv))
}

// parentNodeOutput builds the output for an internal tree node whose
// 64-byte message is the concatenation of its two children's chaining
// values. Left always occupies the low 32 bytes: parent combination is not
// commutative.
func parentNodeOutput(left, right CVBytes, key CVWords, flags byte) output {
	var block [BlockLen]byte
	copy(block[:OutLen], left[:])
	copy(block[OutLen:], right[:])
	return output{
		inputCV:  key,
		block:    block,
		blockLen: BlockLen,
		counter:  0,
		flags:    flags | flagParent,
	}
}

// Sum returns the BLAKE3 digest of input.
func Sum(input []byte) Hash {
	out := hashAllAtOnce(SerialJoin{}, input, IV, 0)
	return out.rootHash()
}

// SumKeyed returns the keyed-MAC BLAKE3 digest of input under the given
// 32-byte key.
func SumKeyed(key [KeyLen]byte, input []byte) Hash {
	keyWords := wordsFromLE(key[:])
	out := hashAllAtOnce(SerialJoin{}, input, keyWords, flagKeyedHash)
	return out.rootHash()
}

// DeriveKey derives a subkey of keyMaterial under the given context string,
// following BLAKE3's two-pass key-derivation construction: the context
// string is hashed first (with IV and DERIVE_KEY_CONTEXT) to produce a
// context key, which then keys a second hash over keyMaterial (with
// DERIVE_KEY_MATERIAL). The two flags are never mixed in a single pass.
func DeriveKey(context string, keyMaterial []byte) [KeyLen]byte {
	contextOut := hashAllAtOnce(SerialJoin{}, []byte(context), IV, flagDeriveKeyContext)
	contextKey := contextOut.rootHash()
	contextKeyWords := wordsFromLE(contextKey[:])

	materialOut := hashAllAtOnce(SerialJoin{}, keyMaterial, contextKeyWords, flagDeriveKeyMaterial)
	rootOut := materialOut.rootHash()

	var subkey [KeyLen]byte
	copy(subkey[:], rootOut[:])
	return subkey
}
