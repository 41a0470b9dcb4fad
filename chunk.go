package blake3

import "fmt"

// chunkState buffers and compresses up to CHUNK_LEN (1024) bytes of input,
// the leaf unit of the hash tree: a running chaining value, the chunk's
// index in the stream, a 64-byte tail buffer, and counts of how much of
// the chunk has been consumed so far.
type chunkState struct {
	cv               CVWords
	chunkCounter     uint64
	buf              [BlockLen]byte
	bufLen           byte
	blocksCompressed byte
	flags            byte
}

func newChunkState(key CVWords, chunkCounter uint64, flags byte) *chunkState {
	return &chunkState{
		cv:           key,
		chunkCounter: chunkCounter,
		flags:        flags,
	}
}

// len reports how many bytes of the chunk have been absorbed so far,
// buffered or compressed.
func (c *chunkState) len() int {
	return BlockLen*int(c.blocksCompressed) + int(c.bufLen)
}

// startFlag is CHUNK_START exactly when no block of this chunk has been
// compressed yet.
func (c *chunkState) startFlag() byte {
	if c.blocksCompressed == 0 {
		return flagChunkStart
	}
	return 0
}

// fillBuf copies as much of input into the tail buffer as fits, advancing
// input past what was consumed.
func (c *chunkState) fillBuf(input *[]byte) {
	want := BlockLen - int(c.bufLen)
	take := want
	if len(*input) < take {
		take = len(*input)
	}
	copy(c.buf[c.bufLen:], (*input)[:take])
	c.bufLen += byte(take)
	*input = (*input)[take:]
}

// update absorbs input into the chunk, compressing full blocks as they
// accumulate and avoiding buffering whenever a whole block can be read
// straight out of the caller's slice. At most CHUNK_LEN total bytes may
// ever be absorbed across the chunk's lifetime; callers (ChunkState.len()
// plus the caller's own accounting) are responsible for not exceeding it.
func (c *chunkState) update(input []byte) *chunkState {
	if c.bufLen > 0 {
		c.fillBuf(&input)
		if len(input) > 0 {
			debugAssert(int(c.bufLen) == BlockLen, "chunkState.update: expected full buffer, got %d bytes", c.bufLen)
			blockFlags := c.flags | c.startFlag()
			c.cv = compress(c.cv, c.buf, BlockLen, c.chunkCounter, blockFlags)
			c.bufLen = 0
			c.buf = [BlockLen]byte{}
			c.blocksCompressed++
		}
	}

	for len(input) > BlockLen {
		debugAssert(c.bufLen == 0, "chunkState.update: buffer should be empty mid-chunk, got %d bytes", c.bufLen)
		blockFlags := c.flags | c.startFlag()
		var block [BlockLen]byte
		copy(block[:], input[:BlockLen])
		c.cv = compress(c.cv, block, BlockLen, c.chunkCounter, blockFlags)
		c.blocksCompressed++
		input = input[BlockLen:]
	}

	c.fillBuf(&input)
	debugAssert(len(input) == 0, "chunkState.update: leftover input after fill, %d bytes", len(input))
	debugAssert(c.len() <= ChunkLen, "chunkState.update: chunk grew past ChunkLen, got %d bytes", c.len())
	return c
}

// output yields the pending final block as an Output snapshot, flagged
// CHUNK_END (and CHUNK_START too, if this is a one-block chunk). The
// caller decides whether to read it as a non-root chaining value or, at
// the top of the tree, as the root hash.
func (c *chunkState) output() output {
	blockFlags := c.flags | c.startFlag() | flagChunkEnd
	return output{
		inputCV:  c.cv,
		block:    c.buf,
		blockLen: c.bufLen,
		counter:  c.chunkCounter,
		flags:    blockFlags,
	}
}

// String intentionally omits the chaining value: chunk state may be
// derived from secret key material, so it is never logged.
func (c *chunkState) String() string {
	return fmt.Sprintf("chunkState{len: %d, chunkCounter: %d, flags: %#x}", c.len(), c.chunkCounter, c.flags)
}
