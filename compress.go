package blake3

import "math/bits"

// messageSchedule[r] gives, for round r (0-indexed), the permutation of the
// 16 original message words fed to that round's eight G-function
// applications. Round 0 is the identity permutation (the block's words in
// their original order); rounds 1..6 are generated by repeatedly
// applying BLAKE3's fixed MSG_PERMUTATION to the previous round's schedule.
var messageSchedule = [7][16]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8},
	{3, 4, 10, 12, 13, 2, 7, 14, 6, 5, 9, 0, 11, 15, 8, 1},
	{10, 7, 12, 9, 14, 3, 13, 15, 4, 0, 11, 2, 5, 8, 1, 6},
	{12, 13, 9, 11, 15, 10, 14, 8, 7, 2, 5, 3, 0, 1, 6, 4},
	{9, 14, 11, 5, 8, 12, 15, 1, 13, 3, 0, 10, 2, 6, 4, 7},
	{11, 15, 5, 0, 1, 9, 8, 6, 14, 10, 2, 12, 3, 4, 7, 13},
}

// g is the quarter-round mixing function shared by every column and
// diagonal application. mx feeds the first addition (pre-12-bit rotation),
// my the second (pre-7-bit rotation).
func g(v *[16]uint32, a, b, c, d int, mx, my uint32) {
	v[a] = v[a] + v[b] + mx
	v[d] = bits.RotateLeft32(v[d]^v[a], -16)
	v[c] = v[c] + v[d]
	v[b] = bits.RotateLeft32(v[b]^v[c], -12)
	v[a] = v[a] + v[b] + my
	v[d] = bits.RotateLeft32(v[d]^v[a], -8)
	v[c] = v[c] + v[d]
	v[b] = bits.RotateLeft32(v[b]^v[c], -7)
}

// round applies one of BLAKE3's 7 rounds to the 16-word state: four column
// mixes over (0,4,8,12) (1,5,9,13) (2,6,10,14) (3,7,11,15), then four
// diagonal mixes over (0,5,10,15) (1,6,11,12) (2,7,8,13) (3,4,9,14). m holds
// the 16 message words in the block's original order; sched picks out this
// round's permutation of them.
func round(v *[16]uint32, m *[16]uint32, sched *[16]int) {
	g(v, 0, 4, 8, 12, m[sched[0]], m[sched[1]])
	g(v, 1, 5, 9, 13, m[sched[2]], m[sched[3]])
	g(v, 2, 6, 10, 14, m[sched[4]], m[sched[5]])
	g(v, 3, 7, 11, 15, m[sched[6]], m[sched[7]])

	g(v, 0, 5, 10, 15, m[sched[8]], m[sched[9]])
	g(v, 1, 6, 11, 12, m[sched[10]], m[sched[11]])
	g(v, 2, 7, 8, 13, m[sched[12]], m[sched[13]])
	g(v, 3, 4, 9, 14, m[sched[14]], m[sched[15]])
}

// compressPre runs all 7 rounds and returns the full 16-word state, before
// the final pairwise XOR fold. Chunk and parent compression only need the
// folded 8-word chaining value (see compress); the unfolded state exists so
// an extendable-output reader could take the length-extension-resistant
// upper half too.
func compressPre(cv CVWords, block [BlockLen]byte, blockLen byte, counter uint64, flags byte) [16]uint32 {
	var v [16]uint32
	v[0], v[1], v[2], v[3] = cv[0], cv[1], cv[2], cv[3]
	v[4], v[5], v[6], v[7] = cv[4], cv[5], cv[6], cv[7]
	v[8], v[9], v[10], v[11] = IV[0], IV[1], IV[2], IV[3]
	v[12] = uint32(counter)
	v[13] = uint32(counter >> 32)
	v[14] = uint32(blockLen)
	v[15] = uint32(flags)

	var m [16]uint32
	for i := 0; i < 16; i++ {
		m[i] = u32LE(block[i*4:])
	}

	for r := range messageSchedule {
		round(&v, &m, &messageSchedule[r])
	}

	return v
}

// compress folds the 16-word post-round state into the new 8-word chaining
// value: state[i] ^ state[i+8] for i in 0..8.
func compress(cv CVWords, block [BlockLen]byte, blockLen byte, counter uint64, flags byte) CVWords {
	v := compressPre(cv, block, blockLen, counter, flags)
	var out CVWords
	for i := 0; i < 8; i++ {
		out[i] = v[i] ^ v[i+8]
	}
	return out
}

// hashOneChunk compresses a whole number of 64-byte blocks under a single
// key and counter, applying flagsStart to the first block's flags and
// flagsEnd to the last. It mirrors compress_pre/hash_many's hash1 in the
// BLAKE3 reference: a loop over blocks rather than buffering, since the
// caller already guarantees the input is block-aligned.
func hashOneChunk(input []byte, key CVWords, counter uint64, flags, flagsStart, flagsEnd byte) CVBytes {
	debugAssert(len(input)%BlockLen == 0, "hashOneChunk: input length %d not a multiple of BlockLen", len(input))
	cv := key
	blockFlags := flags | flagsStart
	for len(input) >= BlockLen {
		if len(input) == BlockLen {
			blockFlags |= flagsEnd
		}
		var block [BlockLen]byte
		copy(block[:], input[:BlockLen])
		cv = compress(cv, block, BlockLen, counter, blockFlags)
		blockFlags = flags
		input = input[BlockLen:]
	}
	return bytesFromWords(cv)
}

// hashMany compresses each of inputs (equal-length, block-aligned byte
// slices sharing one key) independently, writing each result's 32-byte
// chaining value consecutively into out. incrementCounter mirrors the
// reference's hash_many: chunk compression advances the counter once per
// input (each chunk has its own index in the stream); parent compression
// always passes counter 0 for every input, so incrementCounter is false
// there. A SIMD-specialized build could dispatch this loop to kernels
// operating on several inputs per call; this is the portable path, used
// unconditionally here.
func hashMany(inputs [][]byte, key CVWords, counter uint64, incrementCounter bool, flags, flagsStart, flagsEnd byte, out []byte) {
	debugAssert(len(out) >= len(inputs)*OutLen, "hashMany: out buffer too short for %d inputs", len(inputs))
	for i, input := range inputs {
		c := counter
		if incrementCounter {
			c = counter + uint64(i)
		}
		cv := hashOneChunk(input, key, c, flags, flagsStart, flagsEnd)
		copy(out[i*OutLen:], cv[:])
	}
}
