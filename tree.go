package blake3

import "math/bits"

// maxSIMDDegree bounds how many independent chunks or parent blocks a
// single hashMany call processes together. The portable compressor in this
// package never batches beyond one block at a time, so this only sizes
// scratch buffers and recursion fan-out width; it deliberately does not
// vary by host CPU (see simd.go), because the digest must be identical on
// every machine.
const maxSIMDDegree = 16

// largestPowerOfTwoLeq returns the largest power of two that is <= n, for
// n >= 1.
func largestPowerOfTwoLeq(n int) int {
	return 1 << uint(bits.Len(uint(n))-1)
}

// leftSubtreeLen computes, for a subtree covering contentLen bytes (more
// than one chunk), the byte length of its left half: the largest
// power-of-two chunk count strictly less than the total chunk count
// (counting a trailing partial chunk), reserving at least one byte of
// content for the right side.
func leftSubtreeLen(contentLen int) int {
	fullChunks := (contentLen - 1) / ChunkLen
	return largestPowerOfTwoLeq(fullChunks) * ChunkLen
}

// compressChunksParallel hashes input (non-empty, at most
// maxSIMDDegree*ChunkLen bytes, guaranteed not to contain the root) as a
// sequence of whole chunks plus at most one trailing partial chunk,
// writing each chunk's 32-byte chaining value consecutively into out. It
// returns the number of chaining values written.
func compressChunksParallel(input []byte, key CVWords, chunkCounter uint64, flags byte, out []byte) int {
	debugAssert(len(input) > 0, "compressChunksParallel: empty input")
	debugAssert(len(input) <= maxSIMDDegree*ChunkLen, "compressChunksParallel: input too long, got %d bytes", len(input))

	var wholeChunks [][]byte
	for len(input) >= ChunkLen {
		wholeChunks = append(wholeChunks, input[:ChunkLen])
		input = input[ChunkLen:]
	}

	n := 0
	if len(wholeChunks) > 0 {
		hashMany(wholeChunks, key, chunkCounter, true, flags, flagChunkStart, flagChunkEnd, out)
		n = len(wholeChunks)
	}

	if len(input) > 0 {
		cs := newChunkState(key, chunkCounter+uint64(n), flags)
		cs.update(input)
		cv := cs.output().chainingValue()
		copy(out[n*OutLen:], cv[:])
		n++
	}

	return n
}

// compressParentsParallel consumes children (concatenated 32-byte chaining
// values, 2 to 2*maxSIMDDegree of them) in pairs, forming 64-byte parent
// blocks and hashing each with the PARENT flag and counter 0. An odd child
// out is copied through unchanged rather than paired. Returns the number
// of 32-byte values written to out (which may alias neither the backing
// array of children's slice headers, nor overlap children's bytes).
func compressParentsParallel(children []byte, key CVWords, flags byte, out []byte) int {
	numChildren := len(children) / OutLen
	debugAssert(numChildren >= 2, "compressParentsParallel: need at least 2 children, got %d", numChildren)
	debugAssert(numChildren <= 2*maxSIMDDegree, "compressParentsParallel: too many children, got %d", numChildren)

	numParents := numChildren / 2
	parentBlocks := make([][]byte, numParents)
	for i := 0; i < numParents; i++ {
		parentBlocks[i] = children[2*i*OutLen : (2*i+2)*OutLen]
	}
	hashMany(parentBlocks, key, 0, false, flags|flagParent, 0, 0, out)

	if numChildren%2 == 1 {
		copy(out[numParents*OutLen:], children[numParents*2*OutLen:])
		numParents++
	}

	return numParents
}

// compressSubtreeWide recursively divides input into left and right
// halves, following leftSubtreeLen, and folds each half's wide chaining
// values down by one parent level. Below maxSIMDDegree*ChunkLen bytes it
// bottoms out at compressChunksParallel. The special case at
// maxSIMDDegree == 1 returns both children unfolded, so the caller (never
// this function) decides whether the combined pair may become the root.
func compressSubtreeWide(input []byte, key CVWords, chunkCounter uint64, flags byte, j Join, out []byte) int {
	if len(input) <= maxSIMDDegree*ChunkLen {
		return compressChunksParallel(input, key, chunkCounter, flags, out)
	}

	leftLen := leftSubtreeLen(len(input))
	left := input[:leftLen]
	right := input[leftLen:]
	rightChunkCounter := chunkCounter + uint64(leftLen/ChunkLen)

	var leftOut, rightOut [maxSIMDDegree * OutLen]byte
	var leftN, rightN int

	j.join(
		func() { leftN = compressSubtreeWide(left, key, chunkCounter, flags, j, leftOut[:]) },
		func() { rightN = compressSubtreeWide(right, key, rightChunkCounter, flags, j, rightOut[:]) },
	)

	if leftN == 1 && maxSIMDDegree == 1 {
		copy(out, leftOut[:OutLen])
		copy(out[OutLen:], rightOut[:OutLen])
		return 2
	}

	var children [2 * maxSIMDDegree * OutLen]byte
	numChildren := leftN + rightN
	copy(children[:], leftOut[:leftN*OutLen])
	copy(children[leftN*OutLen:], rightOut[:rightN*OutLen])

	return compressParentsParallel(children[:numChildren*OutLen], key, flags, out)
}

// compressSubtreeToParentNode runs compressSubtreeWide and then
// iteratively folds any surplus chaining values down to exactly two,
// returning them concatenated as a 64-byte parent "message". Requires
// input longer than one chunk.
func compressSubtreeToParentNode(input []byte, key CVWords, chunkCounter uint64, flags byte, j Join) [BlockLen]byte {
	debugAssert(len(input) > ChunkLen, "compressSubtreeToParentNode: input must exceed one chunk, got %d bytes", len(input))

	var cvArray [2 * maxSIMDDegree * OutLen]byte
	n := compressSubtreeWide(input, key, chunkCounter, flags, j, cvArray[:])
	debugAssert(n >= 2, "compressSubtreeToParentNode: expected at least 2 CVs, got %d", n)

	cvs := cvArray[:n*OutLen]
	for n > 2 {
		var folded [maxSIMDDegree * OutLen]byte
		n = compressParentsParallel(cvs, key, flags, folded[:])
		copy(cvArray[:], folded[:n*OutLen])
		cvs = cvArray[:n*OutLen]
	}

	var out [BlockLen]byte
	copy(out[:], cvs[:2*OutLen])
	return out
}

// hashAllAtOnce implements the one-shot, non-streaming path used by Sum,
// SumKeyed, and DeriveKey: a single chunk is hashed directly; anything
// larger is folded down to a 64-byte parent message and wrapped as a
// PARENT-flagged Output, deferring the ROOT flag to the caller.
func hashAllAtOnce(j Join, input []byte, key CVWords, flags byte) output {
	if len(input) <= ChunkLen {
		cs := newChunkState(key, 0, flags)
		cs.update(input)
		return cs.output()
	}

	block := compressSubtreeToParentNode(input, key, 0, flags, j)
	return output{
		inputCV:  key,
		block:    block,
		blockLen: BlockLen,
		counter:  0,
		flags:    flags | flagParent,
	}
}
