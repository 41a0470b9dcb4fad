package blake3

import "math/bits"

// Hasher is the streaming, incremental BLAKE3 API. It absorbs input of any
// size across any number of Update calls and, at Finalize, produces the
// same digest as hashing the same bytes all at once.
//
// Internally it keeps a chaining-value stack of completed, power-of-two
// sized subtrees, merged lazily: the topmost entry is always left
// unmerged, so it remains eligible to be flagged as the root, right up
// until Finalize runs.
type Hasher struct {
	key        CVWords
	chunkState *chunkState
	cvStack    [MaxDepth + 1]CVBytes
	cvStackLen int
	flags      byte
}

// New constructs a Hasher for the unkeyed default hash mode.
func New() *Hasher {
	return newHasher(IV, 0)
}

// NewKeyed constructs a Hasher for the keyed-MAC mode under the given
// 32-byte key.
func NewKeyed(key [KeyLen]byte) *Hasher {
	return newHasher(wordsFromLE(key[:]), flagKeyedHash)
}

// NewDeriveKey constructs a Hasher for the key-derivation mode: context is
// hashed first (with IV and DERIVE_KEY_CONTEXT) to produce a context key,
// which then keys the returned Hasher for hashing key material (with
// DERIVE_KEY_MATERIAL). This mirrors the two-pass construction in
// DeriveKey, exposed here incrementally for large key material.
func NewDeriveKey(context string) *Hasher {
	contextOut := hashAllAtOnce(SerialJoin{}, []byte(context), IV, flagDeriveKeyContext)
	contextKey := contextOut.rootHash()
	return newHasher(wordsFromLE(contextKey[:]), flagDeriveKeyMaterial)
}

func newHasher(key CVWords, flags byte) *Hasher {
	return &Hasher{
		key:        key,
		chunkState: newChunkState(key, 0, flags),
		flags:      flags,
	}
}

// Reset restores the Hasher to its initial state: key and mode flags are
// preserved, the chunk counter returns to zero, and the chaining-value
// stack empties. This always works, even in the keyed modes, because the
// key words are retained unconditionally.
func (h *Hasher) Reset() {
	h.chunkState = newChunkState(h.key, 0, h.flags)
	h.cvStackLen = 0
}

// Count returns the total number of input bytes absorbed so far.
func (h *Hasher) Count() uint64 {
	return h.chunkState.chunkCounter*ChunkLen + uint64(h.chunkState.len())
}

// Update absorbs input using the serial Join: all tree recursion runs on
// the calling goroutine. This is what Write (and so io.Copy) uses.
func (h *Hasher) Update(input []byte) *Hasher {
	h.update(SerialJoin{}, input)
	return h
}

// UpdateParallel absorbs input using the parallel Join: subtree hashing
// for large inputs fans out across goroutines, joining before returning.
// The digest is identical to the one Update would have produced.
func (h *Hasher) UpdateParallel(input []byte) *Hasher {
	h.update(ParallelJoin{}, input)
	return h
}

// Write implements io.Writer (and, with Sum/Size/BlockSize, hash.Hash),
// so a Hasher can be used anywhere a stdlib hash is expected, e.g.
// io.Copy(hasher, r).
func (h *Hasher) Write(p []byte) (int, error) {
	h.Update(p)
	return len(p), nil
}

// Sum appends the current digest to b and returns the resulting slice,
// following hash.Hash's contract. It does not mutate the Hasher: Finalize
// is idempotent and non-consuming, so Sum may be called any number of
// times, interleaved with further Writes.
func (h *Hasher) Sum(b []byte) []byte {
	sum := h.Finalize()
	return append(b, sum[:]...)
}

// Size returns the digest length in bytes, 32.
func (h *Hasher) Size() int { return OutLen }

// BlockSize returns the hash's block size, 64. Write accepts input of any
// size; this is only a hint for callers that want to align their writes.
func (h *Hasher) BlockSize() int { return BlockLen }

func (h *Hasher) update(j Join, input []byte) {
	if len(input) == 0 {
		return
	}

	// Step 1: top up a partial chunk first. If input remains afterward, this
	// chunk is definitely not the root, so finalize and push it now.
	if h.chunkState.len() > 0 {
		want := ChunkLen - h.chunkState.len()
		take := want
		if len(input) < take {
			take = len(input)
		}
		h.chunkState.update(input[:take])
		input = input[take:]
		if len(input) == 0 {
			return
		}
		chunkCV := h.chunkState.output().chainingValue()
		h.pushCV(chunkCV, h.chunkState.chunkCounter)
		h.chunkState = newChunkState(h.key, h.chunkState.chunkCounter+1, h.flags)
	}

	// Step 2: consume whole subtrees while more than one chunk of input
	// remains, right-aligning subtree boundaries to the chunk counter so the
	// stack always holds strictly decreasing power-of-two subtree sizes.
	for len(input) > ChunkLen {
		debugAssert(h.chunkState.len() == 0, "Hasher.update: chunkState should be empty mid-subtree-loop, has %d bytes", h.chunkState.len())

		subtreeLen := largestPowerOfTwoLeq(len(input))
		countSoFar := h.chunkState.chunkCounter * ChunkLen
		for uint64(subtreeLen-1)&countSoFar != 0 {
			subtreeLen /= 2
		}
		// Never let a single iteration consume all remaining input while more
		// than one chunk is left: Finalize's non-trivial branch needs the top
		// two stack entries to still be separable from the current chunkState.
		if subtreeLen == len(input) {
			subtreeLen /= 2
		}
		subtreeChunks := uint64(subtreeLen / ChunkLen)

		if subtreeLen <= ChunkLen {
			debugAssert(subtreeLen == ChunkLen, "Hasher.update: expected exactly one chunk, got %d bytes", subtreeLen)
			cs := newChunkState(h.key, h.chunkState.chunkCounter, h.flags)
			cs.update(input[:subtreeLen])
			cv := cs.output().chainingValue()
			h.pushCV(cv, h.chunkState.chunkCounter)
		} else {
			pair := compressSubtreeToParentNode(input[:subtreeLen], h.key, h.chunkState.chunkCounter, h.flags, j)
			var leftCV, rightCV CVBytes
			copy(leftCV[:], pair[:OutLen])
			copy(rightCV[:], pair[OutLen:])
			h.pushCV(leftCV, h.chunkState.chunkCounter)
			h.pushCV(rightCV, h.chunkState.chunkCounter+subtreeChunks/2)
		}

		h.chunkState.chunkCounter += subtreeChunks
		input = input[subtreeLen:]
	}

	// Step 3: whatever remains (at most one chunk) goes into chunkState. Merge
	// only prior, fully-committed subtrees — the stack may still exceed
	// popcount(chunkCounter) until this runs, because pushCV during the
	// subtree loop above merges using each pushed CV's own starting chunk
	// count, not the final total.
	if len(input) > 0 {
		h.chunkState.update(input)
		h.mergeCVStack(h.chunkState.chunkCounter)
	}
}

// pushCV merges prior, fully-committed subtrees down to popcount(chunkCounter)
// entries, then pushes the new chaining value. chunkCounter is the count of
// chunks completed strictly before the one(s) folded into newCV, so the
// merge only ever touches subtrees that can no longer be the root.
func (h *Hasher) pushCV(newCV CVBytes, chunkCounter uint64) {
	h.mergeCVStack(chunkCounter)
	h.cvStack[h.cvStackLen] = newCV
	h.cvStackLen++
}

// mergeCVStack pops and combines stack entries, two at a time, until the
// stack holds exactly popcount(totalChunks) entries — one surviving
// subtree per set bit of the chunk count.
func (h *Hasher) mergeCVStack(totalChunks uint64) {
	postMergeStackLen := bits.OnesCount64(totalChunks)
	for h.cvStackLen > postMergeStackLen {
		right := h.cvStack[h.cvStackLen-1]
		left := h.cvStack[h.cvStackLen-2]
		parent := parentNodeOutput(left, right, h.key, h.flags)
		h.cvStack[h.cvStackLen-2] = parent.chainingValue()
		h.cvStackLen--
	}
}

// Finalize returns the BLAKE3 digest of everything absorbed so far. It
// does not mutate the Hasher, so calling it again, or following it with
// more Updates and a further Finalize, both behave as expected.
func (h *Hasher) Finalize() Hash {
	return h.rootOutput().rootHash()
}

// rootOutput builds the Output for the root node without mutating any
// Hasher state: if the stack is empty, the lone chunkState is the whole
// input; otherwise chunkState's pending output (or, if chunkState is
// empty, the top two stack entries) seeds a chain of parent combinations
// that walks the remaining stack from top to bottom.
func (h *Hasher) rootOutput() output {
	if h.cvStackLen == 0 {
		return h.chunkState.output()
	}

	numCVsRemaining := h.cvStackLen
	var out output

	if h.chunkState.len() > 0 {
		debugAssert(h.cvStackLen == bits.OnesCount64(h.chunkState.chunkCounter),
			"Hasher.rootOutput: stack length %d != popcount(%d)", h.cvStackLen, h.chunkState.chunkCounter)
		out = h.chunkState.output()
	} else {
		out = parentNodeOutput(h.cvStack[numCVsRemaining-2], h.cvStack[numCVsRemaining-1], h.key, h.flags)
		numCVsRemaining -= 2
	}

	for numCVsRemaining > 0 {
		numCVsRemaining--
		out = parentNodeOutput(h.cvStack[numCVsRemaining], out.chainingValue(), h.key, h.flags)
	}

	return out
}
