package blake3

import (
	"strings"
	"testing"
)

func TestChunkStateLenTracksAbsorbedBytes(t *testing.T) {
	cs := newChunkState(IV, 0, 0)
	if cs.len() != 0 {
		t.Fatalf("fresh chunkState: len() = %d, want 0", cs.len())
	}

	cs.update(fillPattern(100))
	if cs.len() != 100 {
		t.Fatalf("after 100 bytes: len() = %d, want 100", cs.len())
	}

	cs.update(fillPattern(1000)[:924])
	if cs.len() != ChunkLen {
		t.Fatalf("after filling chunk: len() = %d, want %d", cs.len(), ChunkLen)
	}
}

func TestChunkStateStartFlagOnlyOnFirstBlock(t *testing.T) {
	cs := newChunkState(IV, 0, 0)
	if cs.startFlag() != flagChunkStart {
		t.Fatal("fresh chunkState should report CHUNK_START")
	}

	// A chunk's last block is always held back in the buffer, so it takes
	// one byte past a full block before the first block is compressed.
	cs.update(fillPattern(BlockLen + 1))
	if cs.startFlag() != 0 {
		t.Fatal("chunkState with a compressed block should not report CHUNK_START")
	}
}

func TestChunkStateOutputSetsChunkEnd(t *testing.T) {
	cs := newChunkState(IV, 0, 0)
	cs.update(fillPattern(10))
	out := cs.output()
	if out.flags&flagChunkEnd == 0 {
		t.Fatal("chunkState.output() must set CHUNK_END")
	}
	if out.flags&flagChunkStart == 0 {
		t.Fatal("a single-block chunk's output must also set CHUNK_START")
	}
}

func TestChunkStateSplitUpdatesMatchOneShot(t *testing.T) {
	input := fillPattern(700)

	whole := newChunkState(IV, 0, 0)
	whole.update(input)

	split := newChunkState(IV, 0, 0)
	split.update(input[:1])
	split.update(input[1:64])
	split.update(input[64:65])
	split.update(input[65:500])
	split.update(input[500:])

	a := whole.output().chainingValue()
	b := split.output().chainingValue()
	if a != b {
		t.Errorf("split updates produced a different chaining value: %x != %x", a, b)
	}
}

func TestChunkStateStringDoesNotLeakChainingValue(t *testing.T) {
	var key CVWords
	for i := range key {
		key[i] = 0xDEADBEEF
	}
	cs := newChunkState(key, 3, flagKeyedHash)
	cs.update([]byte("secret"))

	s := cs.String()
	for _, needle := range []string{"deadbeef", "DEADBEEF", "efbeadde", "EFBEADDE"} {
		if strings.Contains(s, needle) {
			t.Fatalf("chunkState.String() leaked key material: %s", s)
		}
	}
}
